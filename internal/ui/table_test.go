package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// KeyValueBlock
// ---------------------------------------------------------------------------

func TestKeyValueBlockContainsTitleAndPairs(t *testing.T) {
	result := KeyValueBlock("Vending Machine", [][2]string{
		{"Inventory", "97"},
		{"Unit price", "0.0001 ETH"},
	})
	assert.Contains(t, result, "Vending Machine")
	assert.Contains(t, result, "Inventory")
	assert.Contains(t, result, "97")
	assert.Contains(t, result, "0.0001 ETH")
}

func TestKeyValueBlockPreservesOrder(t *testing.T) {
	result := KeyValueBlock("", [][2]string{
		{"First", "AAA"},
		{"Second", "BBB"},
		{"Third", "CCC"},
	})
	i1, i2, i3 := strings.Index(result, "First"), strings.Index(result, "Second"), strings.Index(result, "Third")
	require.Greater(t, i1, -1)
	assert.Less(t, i1, i2)
	assert.Less(t, i2, i3)
}

func TestKeyValueBlockHasBorder(t *testing.T) {
	result := KeyValueBlock("Bordered", [][2]string{{"Key", "Val"}})
	assert.Contains(t, result, "╭")
	assert.Contains(t, result, "╰")
}

// ---------------------------------------------------------------------------
// Table
// ---------------------------------------------------------------------------

func TestNewTableCreatesEmptyTable(t *testing.T) {
	tbl := NewTable([]Column{{Title: "Name", Width: 10}, {Title: "Value", Width: 20}})
	assert.Len(t, tbl.Columns, 2)
	assert.Empty(t, tbl.Rows)
	assert.Equal(t, -1, tbl.SelIdx)
}

func TestTableRender(t *testing.T) {
	tbl := NewTable([]Column{
		{Title: "Network", Width: 10},
		{Title: "Latency", Width: 10},
	})
	tbl.AddRow(Row{"sepolia", "120ms"})
	tbl.AddRow(Row{"local"})

	result := tbl.Render()
	lines := strings.Split(strings.TrimRight(result, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Network")
	assert.Contains(t, lines[1], "──────────")
	assert.Contains(t, lines[2], "sepolia")
	assert.Contains(t, lines[2], "120ms")
	assert.Contains(t, lines[3], "local")
}

func TestTableRenderPadsStyledCells(t *testing.T) {
	tbl := NewTable([]Column{{Title: "A", Width: 6}, {Title: "B", Width: 3}})
	tbl.AddRow(Row{Success("ok"), "x"})
	result := tbl.Render()
	assert.Contains(t, result, "ok")
	assert.Contains(t, result, "x")
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func TestPadR(t *testing.T) {
	assert.Equal(t, "hi        ", padR("hi", 10))
	assert.Equal(t, "hello", padR("hello", 5))
	assert.Equal(t, "toolongstring", padR("toolongstring", 5))
	assert.Equal(t, "    ", padR("", 4))
	assert.Equal(t, "x", padR("x", 0))
}

func TestTrimErr(t *testing.T) {
	assert.Equal(t, "short", TrimErr("short"))
	assert.Equal(t, "dial tcp 127.0.0.1:8545: conne…",
		TrimErr(`Post "http://127.0.0.1:8545": dial tcp 127.0.0.1:8545: connect: connection refused`))
	assert.Equal(t, "context deadline exceeded", TrimErr("rpc call: context deadline exceeded"))
}

// ---------------------------------------------------------------------------
// Confirm / Spinner
// ---------------------------------------------------------------------------

func TestConfirmFrom(t *testing.T) {
	for in, want := range map[string]bool{
		"y\n":   true,
		"YES\n": true,
		" y \n": true,
		"n\n":   false,
		"\n":    false,
		"":      false,
	} {
		var out bytes.Buffer
		assert.Equal(t, want, ConfirmFrom(strings.NewReader(in), &out, "Buy 3 donuts?"), "input %q", in)
		assert.Contains(t, out.String(), "Buy 3 donuts?")
	}
}

func TestSpinnerStopsAndPrints(t *testing.T) {
	var out bytes.Buffer
	s := NewSpinnerTo(&out, "waiting for receipt")
	s.Start()
	time.Sleep(2 * spinnerInterval)
	s.StopWithMsg("mined")

	assert.Contains(t, out.String(), "waiting for receipt")
	assert.True(t, strings.HasSuffix(out.String(), "mined\n"))
}
