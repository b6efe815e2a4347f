package vending

import (
	"errors"

	"github.com/Mohsinsiddi/donutxpress/internal/wallet"
)

// Kind classifies why an operation failed.
type Kind int

const (
	KindWalletUnavailable Kind = iota + 1
	KindUserRejected
	KindConnectionError
	KindTransactionFailed
	KindReadFailed
	KindBusy
)

func (k Kind) String() string {
	switch k {
	case KindWalletUnavailable:
		return "wallet unavailable"
	case KindUserRejected:
		return "user rejected"
	case KindConnectionError:
		return "connection error"
	case KindTransactionFailed:
		return "transaction failed"
	case KindReadFailed:
		return "read failed"
	case KindBusy:
		return "busy"
	}
	return "unknown"
}

// Message is the short user-facing text for a failure kind.
func (k Kind) Message() string {
	switch k {
	case KindWalletUnavailable:
		return "No wallet found"
	case KindUserRejected, KindConnectionError:
		return "Connection error"
	case KindTransactionFailed:
		return "Transaction failed"
	case KindReadFailed:
		return "Could not read from the vending machine"
	case KindBusy:
		return "A transaction is already in process"
	}
	return "Something went wrong"
}

// Failure is the error half of a Result. Detail keeps the underlying cause.
type Failure struct {
	Kind   Kind
	Detail error
}

func (f *Failure) Error() string {
	if f.Detail == nil {
		return f.Kind.String()
	}
	return f.Kind.String() + ": " + f.Detail.Error()
}

func (f *Failure) Unwrap() error { return f.Detail }

// Result is the outcome of a machine operation: either a value or a Failure.
type Result[T any] struct {
	Value   T
	Failure *Failure
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool { return r.Failure == nil }

// Err returns the failure as an error, or nil.
func (r Result[T]) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

func ok[T any](v T) Result[T] { return Result[T]{Value: v} }

func fail[T any](kind Kind, err error) Result[T] {
	return Result[T]{Failure: &Failure{Kind: kind, Detail: err}}
}

// Classify maps an error from the wallet or contract layers to a Kind.
// Errors it does not recognise get fallback.
func Classify(err error, fallback Kind) Kind {
	var f *Failure
	switch {
	case errors.As(err, &f):
		return f.Kind
	case errors.Is(err, wallet.ErrWalletUnavailable):
		return KindWalletUnavailable
	case errors.Is(err, wallet.ErrUserRejected):
		return KindUserRejected
	case errors.Is(err, wallet.ErrConnection):
		return KindConnectionError
	}
	return fallback
}
