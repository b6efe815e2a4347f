package contract

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Errors.
var (
	ErrUnknownFunction = errors.New("function not found in ABI")
	ErrNotReadable     = errors.New("function is not a read function")
	ErrNotWritable     = errors.New("function is not a write function")
)

// Mutability is a function's declared state mutability.
type Mutability string

const (
	View       Mutability = "view"
	Pure       Mutability = "pure"
	NonPayable Mutability = "nonpayable"
	Payable    Mutability = "payable"
)

// Param is one named, typed function input.
type Param struct {
	Name string
	Type string
}

// Function describes one callable entry of a contract.
type Function struct {
	Name       string
	Inputs     []Param
	Outputs    []string
	Mutability Mutability
}

// IsRead reports whether the function only inspects state.
func (f Function) IsRead() bool {
	return f.Mutability == View || f.Mutability == Pure
}

// IsWrite reports whether calling the function needs a transaction.
func (f Function) IsWrite() bool {
	return f.Mutability == NonPayable || f.Mutability == Payable
}

// IsPayable reports whether the function accepts attached value.
func (f Function) IsPayable() bool { return f.Mutability == Payable }

// Signature returns the canonical signature, e.g. "purchase(uint256)".
func (f Function) Signature() string {
	types := make([]string, len(f.Inputs))
	for i, p := range f.Inputs {
		types[i] = p.Type
	}
	return f.Name + "(" + strings.Join(types, ",") + ")"
}

// Selector returns the 4-byte function selector as 0x-prefixed hex.
func (f Function) Selector() string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(f.Signature()))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}

// Descriptor is a contract's ABI bound to its deployment address.
type Descriptor struct {
	Address   common.Address
	ABI       abi.ABI
	Functions []Function
}

var (
	vendingOnce sync.Once
	vendingDesc *Descriptor
	vendingErr  error
)

// Vending returns the VendingMachine descriptor. It is parsed once and shared;
// callers must not modify it.
func Vending() *Descriptor {
	vendingOnce.Do(func() {
		vendingDesc, vendingErr = NewDescriptor(VendingAddress, VendingABIJSON())
	})
	if vendingErr != nil {
		// The embedded ABI is a compile-time constant.
		panic(fmt.Sprintf("parsing embedded vending ABI: %v", vendingErr))
	}
	return vendingDesc
}

// NewDescriptor parses abiJSON and binds it to address.
func NewDescriptor(address string, abiJSON []byte) (*Descriptor, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", address)
	}
	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing ABI: %w", err)
	}
	return &Descriptor{
		Address:   common.HexToAddress(address),
		ABI:       parsed,
		Functions: functionsFromJSON(parsed, abiJSON),
	}, nil
}

// WithAddress returns a copy of d bound to another deployment address.
func (d *Descriptor) WithAddress(address string) (*Descriptor, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", address)
	}
	cp := *d
	cp.Address = common.HexToAddress(address)
	return &cp, nil
}

// Function looks up a function by name.
func (d *Descriptor) Function(name string) (Function, error) {
	for _, f := range d.Functions {
		if f.Name == name {
			return f, nil
		}
	}
	return Function{}, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
}

// functionsFromJSON lists functions in ABI declaration order. abi.ABI keeps
// methods in a map, so the order is recovered from the raw JSON names.
func functionsFromJSON(parsed abi.ABI, raw []byte) []Function {
	order := declarationOrder(raw)
	out := make([]Function, 0, len(parsed.Methods))
	for _, name := range order {
		m, ok := parsed.Methods[name]
		if !ok {
			continue
		}
		f := Function{
			Name:       m.RawName,
			Mutability: Mutability(m.StateMutability),
		}
		for _, in := range m.Inputs {
			f.Inputs = append(f.Inputs, Param{Name: in.Name, Type: in.Type.String()})
		}
		for _, o := range m.Outputs {
			f.Outputs = append(f.Outputs, o.Type.String())
		}
		out = append(out, f)
	}
	return out
}

func declarationOrder(raw []byte) []string {
	var entries []struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.Type == "function" {
			names = append(names, e.Name)
		}
	}
	return names
}
