// Package wad implements 1e18-scaled fixed-point ratio arithmetic on
// 256-bit unsigned integers.
package wad

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// Scale is the fixed-point scale factor: 1e18 represents 100%.
var Scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Pre-computed uint256 constant (avoid allocation on every call)
var u256Scale = uint256.MustFromBig(Scale)

var (
	ErrOverflow   = errors.New("wad: intermediate product overflows 256 bits")
	ErrOutOfRange = errors.New("wad: operand is negative or exceeds 256 bits")
)

// Proportion computes floor(amount * ratio / Scale). The multiplication is
// performed before the division to preserve precision; an intermediate
// overflow is reported as a fatal arithmetic error, never wrapped silently.
func Proportion(amount, ratio *big.Int) (*big.Int, error) {
	if amount.Sign() < 0 || ratio.Sign() < 0 {
		return nil, ErrOutOfRange
	}
	a, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, ErrOutOfRange
	}
	r, overflow := uint256.FromBig(ratio)
	if overflow {
		return nil, ErrOutOfRange
	}

	product, overflow := new(uint256.Int).MulOverflow(a, r)
	if overflow {
		return nil, ErrOverflow
	}
	return product.Div(product, u256Scale).ToBig(), nil
}
