package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walletItems() []PickerItem {
	return []PickerItem{
		{Label: "alice", SubLabel: "0xf39F…2266", Value: "alice"},
		{Label: "bob", SubLabel: "0x7099…79C8", Value: "bob"},
	}
}

func TestPickerSelectsAfterMoving(t *testing.T) {
	var m tea.Model = pickerModel{title: "Default wallet", items: walletItems()}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}) // clamps at the last item
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	pm := m.(pickerModel)
	require.NotNil(t, pm.selected)
	assert.Equal(t, "bob", pm.selected.Value)
}

func TestPickerCancel(t *testing.T) {
	var m tea.Model = pickerModel{title: "Default wallet", items: walletItems()}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	pm := m.(pickerModel)
	assert.True(t, pm.quitting)
	assert.Nil(t, pm.selected)
	assert.Empty(t, pm.View())
}

func TestPickerView(t *testing.T) {
	m := pickerModel{title: "Default wallet", items: walletItems()}
	out := m.View()
	assert.Contains(t, out, "Default wallet")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")
}

func TestPickItemEmpty(t *testing.T) {
	_, err := PickItem("nothing", nil)
	assert.Error(t, err)
}
