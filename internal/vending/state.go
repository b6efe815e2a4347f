package vending

import (
	"fmt"
	"math/big"
)

// Level is the tone of a notice.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

// Notice is a one-shot message for the user.
type Notice struct {
	Title string
	Body  string
	Level Level
}

// ViewState is everything the vending page shows. Values are replaced
// wholesale by Reduce and never mutated in place.
type ViewState struct {
	// Inventory and Balance are nil until the first successful read.
	Inventory *big.Int
	Balance   *big.Int
	Quantity  string
	InFlight  bool
	Account   string
	Notice    *Notice

	inventoryReq uint64
	balanceReq   uint64
}

// Connected reports whether an account is bound.
func (s ViewState) Connected() bool { return s.Account != "" }

// Event is a state transition fed to Reduce.
type Event interface{ event() }

// Connected binds the account of a new wallet session.
type Connected struct{ Account string }

// ConnectFailed reports a failed wallet connection.
type ConnectFailed struct{ Failure *Failure }

// InventoryRequested marks ID as the latest inventory read.
type InventoryRequested struct{ ID uint64 }

// InventoryLoaded carries the result of inventory read ID.
type InventoryLoaded struct {
	ID    uint64
	Value *big.Int
}

// BalanceRequested marks ID as the latest balance read.
type BalanceRequested struct{ ID uint64 }

// BalanceLoaded carries the result of balance read ID.
type BalanceLoaded struct {
	ID    uint64
	Value *big.Int
}

type QuantityChanged struct{ Text string }

type PurchaseStarted struct{}

// PurchaseSettled ends a successful purchase of Amount donuts, after the
// follow-up reads.
type PurchaseSettled struct{ Amount *big.Int }

type PurchaseFailed struct{ Failure *Failure }

type RestockStarted struct{}

type RestockSettled struct{ Amount *big.Int }

type RestockFailed struct{ Failure *Failure }

type NoticeDismissed struct{}

func (Connected) event()          {}
func (ConnectFailed) event()      {}
func (InventoryRequested) event() {}
func (InventoryLoaded) event()    {}
func (BalanceRequested) event()   {}
func (BalanceLoaded) event()      {}
func (QuantityChanged) event()    {}
func (PurchaseStarted) event()    {}
func (PurchaseSettled) event()    {}
func (PurchaseFailed) event()     {}
func (RestockStarted) event()     {}
func (RestockSettled) event()     {}
func (RestockFailed) event()      {}
func (NoticeDismissed) event()    {}

// Reduce returns the state that follows s after e. A loaded value whose
// request ID is not the latest one issued for that field is dropped.
func Reduce(s ViewState, e Event) ViewState {
	switch e := e.(type) {
	case Connected:
		s.Account = e.Account
		s.Notice = &Notice{Title: "Yayy!", Body: "Wallet successfully connected", Level: LevelSuccess}

	case ConnectFailed:
		s.Notice = failureNotice(e.Failure)

	case InventoryRequested:
		s.inventoryReq = e.ID
	case InventoryLoaded:
		if e.ID == s.inventoryReq {
			s.Inventory = e.Value
		}

	case BalanceRequested:
		s.balanceReq = e.ID
	case BalanceLoaded:
		if e.ID == s.balanceReq {
			s.Balance = e.Value
		}

	case QuantityChanged:
		s.Quantity = e.Text

	case PurchaseStarted, RestockStarted:
		s.InFlight = true
		s.Notice = nil

	case PurchaseSettled:
		s.InFlight = false
		s.Quantity = ""
		s.Notice = &Notice{
			Title: "Yippie!",
			Body:  fmt.Sprintf("You have successfully purchased %s donuts", e.Amount),
			Level: LevelSuccess,
		}

	case PurchaseFailed:
		s.InFlight = false
		s.Quantity = ""
		s.Notice = failureNotice(e.Failure)

	case RestockSettled:
		s.InFlight = false
		s.Notice = &Notice{
			Title: "Restocked!",
			Body:  fmt.Sprintf("Added %s donuts to the machine", e.Amount),
			Level: LevelSuccess,
		}

	case RestockFailed:
		s.InFlight = false
		s.Notice = failureNotice(e.Failure)

	case NoticeDismissed:
		s.Notice = nil
	}
	return s
}

func failureNotice(f *Failure) *Notice {
	kind := KindTransactionFailed
	if f != nil {
		kind = f.Kind
	}
	return &Notice{Title: "Oops!", Body: kind.Message(), Level: LevelError}
}
