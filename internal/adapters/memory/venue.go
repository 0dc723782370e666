package memory

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/donation-engine/internal/domain"
)

var ErrNoRoute = errors.New("no rate configured for pair")

type pairKey struct {
	from common.Address
	to   common.Address
}

type rate struct {
	num *big.Int
	den *big.Int
}

// Venue is a deterministic rate-table swap venue implementing the engine's
// SwapVenue port. Token movements are staged on the ledger's open
// settlement, so a discarded batch leaves the venue's reserves untouched.
type Venue struct {
	ledger  *Ledger
	account common.Address
	rates   map[pairKey]rate
}

// NewVenue creates a venue trading out of account's reserves on ledger.
// Fund the account with Mint before swapping toward it.
func NewVenue(ledger *Ledger, account common.Address) *Venue {
	return &Venue{
		ledger:  ledger,
		account: account,
		rates:   make(map[pairKey]rate),
	}
}

// SetRate configures the pair's exchange rate: out = in * num / den.
func (v *Venue) SetRate(from, to common.Address, num, den int64) {
	v.rates[pairKey{from, to}] = rate{num: big.NewInt(num), den: big.NewInt(den)}
}

func (v *Venue) Swap(ctx context.Context, amountIn, amountOutMin *big.Int, path domain.Path, _ time.Time, recipient common.Address) (*big.Int, error) {
	out := new(big.Int).Set(amountIn)
	for i := 0; i+1 < len(path); i++ {
		r, ok := v.rates[pairKey{path[i], path[i+1]}]
		if !ok {
			return nil, ErrNoRoute
		}
		out.Mul(out, r.num)
		out.Div(out, r.den)
	}

	tx := v.ledger.open
	if tx == nil {
		return nil, ErrNoOpenSettlement
	}
	if err := tx.Transfer(ctx, path.First(), recipient, v.account, amountIn); err != nil {
		return nil, err
	}
	if err := tx.Transfer(ctx, path.Last(), v.account, recipient, out); err != nil {
		return nil, err
	}
	return out, nil
}
