package ui

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Mohsinsiddi/donutxpress/internal/vending"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const vendingDescription = "Donut Xpress, a vending machine dapp to purchase donuts using Ethereum Wallet.\n" +
	"One donut costs 0.0001 eth. You can view the number of donuts you have purchased on the blockchain.\n\n" +
	"Don't worry, we'll never run out of donuts because the owner restocks the inventory regularly!"

// StateFeed carries machine states into the Bubble Tea loop. Pass Observe to
// vending.WithObserver. States are dropped when the buffer is full; the page
// re-reads the machine after every finished operation anyway.
type StateFeed chan vending.ViewState

// NewStateFeed returns a buffered feed.
func NewStateFeed() StateFeed { return make(StateFeed, 32) }

// Observe queues s without blocking.
func (f StateFeed) Observe(s vending.ViewState) {
	select {
	case f <- s:
	default:
	}
}

func (f StateFeed) next() tea.Cmd {
	return func() tea.Msg { return vendingStateMsg(<-f) }
}

type vendingStateMsg vending.ViewState

// vendingOpMsg reports a finished machine operation.
type vendingOpMsg struct {
	op      string
	failure *vending.Failure
}

type vendingTickMsg struct{}

func vendingTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg { return vendingTickMsg{} })
}

// VendingOptions configures the vending page.
type VendingOptions struct {
	Network       string
	AllowRestock  bool
	RestockAmount *big.Int
}

// VendingModel is the Bubble Tea model for the Donut Xpress page.
type VendingModel struct {
	ctx     context.Context
	machine *vending.Machine
	feed    StateFeed
	opts    VendingOptions

	state    vending.ViewState
	problem  string // last failed read, shown under the counters
	frame    int
	Quitting bool
}

// NewVendingModel builds the page around machine. feed may be nil when the
// machine has no observer.
func NewVendingModel(ctx context.Context, machine *vending.Machine, feed StateFeed, opts VendingOptions) VendingModel {
	if opts.RestockAmount == nil {
		opts.RestockAmount = big.NewInt(2)
	}
	return VendingModel{
		ctx:     ctx,
		machine: machine,
		feed:    feed,
		opts:    opts,
		state:   machine.State(),
	}
}

// State returns the state the page last rendered.
func (m VendingModel) State() vending.ViewState { return m.state }

func (m VendingModel) Init() tea.Cmd {
	if m.feed == nil {
		return vendingTick()
	}
	return tea.Batch(m.feed.next(), vendingTick())
}

func (m VendingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case vendingStateMsg:
		m.state = vending.ViewState(msg)
		return m, m.feed.next()

	case vendingOpMsg:
		m.state = m.machine.State()
		m.problem = ""
		if msg.failure != nil && msg.failure.Kind == vending.KindReadFailed {
			m.problem = msg.op + ": " + msg.failure.Kind.Message()
		}

	case vendingTickMsg:
		m.frame++
		return m, vendingTick()
	}
	return m, nil
}

func (m VendingModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "q" {
		m.Quitting = true
		return m, tea.Quit
	}
	if m.state.InFlight {
		return m, nil
	}

	switch key {
	case "c":
		return m, m.run("connect", func(ctx context.Context) *vending.Failure {
			return m.machine.Connect(ctx).Failure
		})

	case "r":
		return m, m.run("refresh", func(ctx context.Context) *vending.Failure {
			if res := m.machine.RefreshInventory(ctx); !res.OK() {
				return res.Failure
			}
			return m.machine.RefreshCallerBalance(ctx).Failure
		})

	case "s":
		if !m.opts.AllowRestock {
			return m, nil
		}
		amount := m.opts.RestockAmount
		return m, m.run("restock", func(ctx context.Context) *vending.Failure {
			return m.machine.Restock(ctx, amount).Failure
		})

	case "enter":
		return m, m.run("purchase", func(ctx context.Context) *vending.Failure {
			return m.machine.SubmitPurchase(ctx).Failure
		})

	case "esc":
		m.machine.DismissNotice()

	case "backspace":
		if r := []rune(m.state.Quantity); len(r) > 0 {
			m.machine.SetQuantity(string(r[:len(r)-1]))
		}

	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.machine.SetQuantity(m.state.Quantity + string(msg.Runes))
		}
	}
	m.state = m.machine.State()
	return m, nil
}

func (m VendingModel) run(op string, fn func(context.Context) *vending.Failure) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return vendingOpMsg{op: op, failure: fn(ctx)}
	}
}

func (m VendingModel) View() string {
	if m.Quitting {
		return ""
	}

	var sb strings.Builder

	header := StyleTitle.Render("🍩 Donut Xpress")
	if m.state.Connected() {
		header += "  " + Addr(TruncateAddr(m.state.Account))
	} else {
		header += "  " + Meta("not connected")
	}
	if m.opts.Network != "" {
		header += "  " + ChainName(m.opts.Network)
	}
	sb.WriteString(header + "\n\n")

	if m.state.InFlight {
		overlay := StyleOverlay.Render(styleSpinner.Render(SpinnerFrame(m.frame)) + "  Transaction in process")
		sb.WriteString(overlay + "\n\n")
	}

	sb.WriteString(lipgloss.NewStyle().Width(80).Render(vendingDescription) + "\n\n")

	sb.WriteString(fmt.Sprintf("Vending machine inventory: %s\n", Val(counter(m.state.Inventory))))
	sb.WriteString(fmt.Sprintf("My donuts: %s\n", Val(counter(m.state.Balance))))
	if m.problem != "" {
		sb.WriteString(Warn(m.problem) + "\n")
	}
	sb.WriteString("\n")

	sb.WriteString(StyleValue.Render("Buy Donuts") + "\n")
	input := m.state.Quantity
	if input == "" {
		input = Meta("Enter amount...")
	}
	sb.WriteString(StyleBorder.Width(24).Render(input) + "\n")
	if q := vending.ParseQuantity(m.state.Quantity); q.Sign() > 0 {
		sb.WriteString(Meta(fmt.Sprintf("Total: %s ETH", vending.FormatEther(vending.PaymentWei(q)))) + "\n")
	}
	sb.WriteString("\n")

	if n := m.state.Notice; n != nil {
		line := n.Title + " " + n.Body
		if n.Level == vending.LevelError {
			sb.WriteString(Err(line) + "\n\n")
		} else {
			sb.WriteString(Success(line) + "\n\n")
		}
	}

	sb.WriteString(m.controls())
	return sb.String()
}

func (m VendingModel) controls() string {
	parts := []string{"[ c ] connect", "[ Enter ] buy", "[ r ] refresh"}
	if m.opts.AllowRestock {
		parts = append(parts, fmt.Sprintf("[ s ] restock %s", m.opts.RestockAmount))
	}
	parts = append(parts, "[ esc ] dismiss", "[ q ] quit")
	return StyleMeta.Render(strings.Join(parts, "   ")) + "\n"
}

func counter(n *big.Int) string {
	if n == nil {
		return ""
	}
	return n.String()
}

// RunVending runs the vending page until the user quits.
func RunVending(m VendingModel) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
