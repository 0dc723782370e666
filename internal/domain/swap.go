package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Path is an ordered token route from input token to donation token.
// A single-element path denotes a pass-through (no venue call).
type Path []common.Address

func (p Path) First() common.Address {
	return p[0]
}

func (p Path) Last() common.Address {
	return p[len(p)-1]
}

// PassThrough reports whether the path denotes the donation token itself,
// i.e. no conversion is needed.
func (p Path) PassThrough(donationToken common.Address) bool {
	return len(p) == 1 && p[0] == donationToken
}

// Swap is one exchange instruction converting the leading token of Path
// into the engine's donation token.
type Swap struct {
	AmountIn     *big.Int
	AmountOutMin *big.Int
	Path         Path
}

// InputToken returns the leading token of the swap route. Duplicate-input
// detection across a batch operates on this value, not the whole path.
func (s *Swap) InputToken() common.Address {
	return s.Path.First()
}

// SwapOutcome maps each leading input token to the realized amount of
// donation token produced by converting it.
type SwapOutcome map[common.Address]*big.Int

// DonationBatch is the full input of one settlement call. All entities live
// only for the duration of the call; the engine keeps no state across calls.
type DonationBatch struct {
	Donor       common.Address
	Swaps       []Swap
	Deadline    time.Time
	Donations   []Donation
	NativeValue *big.Int
}

func (b *DonationBatch) NativeAmount() *big.Int {
	if b.NativeValue == nil {
		return new(big.Int)
	}
	return b.NativeValue
}
