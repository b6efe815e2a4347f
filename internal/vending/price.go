package vending

import (
	"math/big"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// UnitPrice is the price of one donut in ether.
var UnitPrice = decimal.RequireFromString("0.0001")

const etherDecimals = 18

// PaymentWei returns quantity × UnitPrice in wei.
func PaymentWei(quantity *big.Int) *big.Int {
	if quantity == nil {
		return new(big.Int)
	}
	return decimal.NewFromBigInt(quantity, 0).
		Mul(UnitPrice).
		Shift(etherDecimals).
		BigInt()
}

// ParseQuantity reads a donut count from free text. Leading whitespace and
// one sign are accepted, then the longest run of ASCII digits; anything after
// it is ignored. Text without a leading number parses as zero.
func ParseQuantity(text string) *big.Int {
	s := strings.TrimLeftFunc(text, unicode.IsSpace)

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return new(big.Int)
	}

	n, _ := new(big.Int).SetString(s[:end], 10)
	if neg {
		n.Neg(n)
	}
	return n
}

// FormatEther renders a wei amount in ether without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -etherDecimals).String()
}
