// Package ports declares the collaborator interfaces the settlement engine
// is written against. Adapters (EVM, in-memory) implement them; the engine
// consumes them.
package ports

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/donation-engine/internal/domain"
)

// RegistryReader exposes the external grant registry. The registry owns and
// persists grant data; the engine reads it live on every call and never
// caches across calls.
type RegistryReader interface {
	GrantCount(ctx context.Context) (uint64, error)
	GrantPayee(ctx context.Context, grantID uint64) (common.Address, error)
}

// RoundReader resolves a grant round referenced by a donation.
type RoundReader interface {
	Round(ctx context.Context, round common.Address) (*domain.GrantRound, error)
}

// TokenReader exposes the read-only token surface the engine needs for its
// construction-time sanity probe and post-settlement dust accounting.
type TokenReader interface {
	TotalSupply(ctx context.Context, token common.Address) (*big.Int, error)
	BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error)
}

// SwapVenue executes one swap instruction through the external exchange and
// reports the realized output as a typed return value. Implementations move
// the input from and the output to the recipient's custody within the
// engine's active unit of work.
type SwapVenue interface {
	Swap(ctx context.Context, amountIn, amountOutMin *big.Int, path domain.Path, deadline time.Time, recipient common.Address) (*big.Int, error)
}

// Ledger is the fund-transfer capability the engine settles against. Begin
// opens one serial unit of work; the batch's transfers take effect only on
// Commit, and Discard drops every staged transfer.
type Ledger interface {
	Begin(ctx context.Context) (LedgerTx, error)
}

// LedgerTx stages token movements for one settlement call. Discard after
// Commit is a no-op, so callers can defer it unconditionally.
type LedgerTx interface {
	Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int) error
	Commit(ctx context.Context) error
	Discard()
}

// RecordEmitter receives one settlement record per donation of a committed
// batch. External indexers and matching computation consume these.
type RecordEmitter interface {
	Emit(ctx context.Context, rec domain.SettlementRecord) error
}
