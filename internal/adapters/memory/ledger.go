// Package memory provides deterministic in-process implementations of the
// engine's collaborator ports, used by tests and simulation runs.
package memory

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/donation-engine/internal/ports"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrNoOpenSettlement    = errors.New("no open settlement")
)

// Ledger is an in-memory token ledger with staged, all-or-nothing batches.
// Begin serializes callers: the ledger lock is held until the batch commits
// or is discarded, mirroring the engine's serial execution model.
type Ledger struct {
	mu       sync.Mutex
	balances map[common.Address]map[common.Address]*big.Int // token -> holder
	supply   map[common.Address]*big.Int
	open     *Tx
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[common.Address]map[common.Address]*big.Int),
		supply:   make(map[common.Address]*big.Int),
	}
}

// Mint credits holder with amount of token, growing total supply. Test and
// venue funding only; must not be called while a settlement is open.
func (l *Ledger) Mint(token, holder common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.credit(token, holder, amount)
	supply, ok := l.supply[token]
	if !ok {
		supply = new(big.Int)
		l.supply[token] = supply
	}
	supply.Add(supply, amount)
}

// BalanceOf implements the engine's TokenReader port.
func (l *Ledger) BalanceOf(_ context.Context, token, holder common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balance(token, holder)), nil
}

// TotalSupply implements the engine's TokenReader port.
func (l *Ledger) TotalSupply(_ context.Context, token common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	supply, ok := l.supply[token]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(supply), nil
}

// Begin opens one settlement batch. The ledger lock is held until Commit or
// Discard, so at most one batch is in flight at a time.
func (l *Ledger) Begin(_ context.Context) (ports.LedgerTx, error) {
	l.mu.Lock()
	tx := &Tx{
		ledger: l,
		deltas: make(map[common.Address]map[common.Address]*big.Int),
	}
	l.open = tx
	return tx, nil
}

func (l *Ledger) balance(token, holder common.Address) *big.Int {
	holders, ok := l.balances[token]
	if !ok {
		return new(big.Int)
	}
	bal, ok := holders[holder]
	if !ok {
		return new(big.Int)
	}
	return bal
}

func (l *Ledger) credit(token, holder common.Address, amount *big.Int) {
	holders, ok := l.balances[token]
	if !ok {
		holders = make(map[common.Address]*big.Int)
		l.balances[token] = holders
	}
	bal, ok := holders[holder]
	if !ok {
		bal = new(big.Int)
		holders[holder] = bal
	}
	bal.Add(bal, amount)
}

// Tx stages token movements for one settlement batch.
type Tx struct {
	ledger *Ledger
	deltas map[common.Address]map[common.Address]*big.Int
	done   bool
}

func (tx *Tx) Transfer(_ context.Context, token, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	available := new(big.Int).Add(tx.ledger.balance(token, from), tx.delta(token, from))
	if available.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	tx.apply(token, from, new(big.Int).Neg(amount))
	tx.apply(token, to, amount)
	return nil
}

func (tx *Tx) Commit(_ context.Context) error {
	if tx.done {
		return errors.New("settlement already closed")
	}
	for token, holders := range tx.deltas {
		for holder, delta := range holders {
			tx.ledger.credit(token, holder, delta)
		}
	}
	tx.close()
	return nil
}

func (tx *Tx) Discard() {
	if tx.done {
		return
	}
	tx.close()
}

func (tx *Tx) close() {
	tx.done = true
	tx.ledger.open = nil
	tx.ledger.mu.Unlock()
}

func (tx *Tx) delta(token, holder common.Address) *big.Int {
	holders, ok := tx.deltas[token]
	if !ok {
		return new(big.Int)
	}
	delta, ok := holders[holder]
	if !ok {
		return new(big.Int)
	}
	return delta
}

func (tx *Tx) apply(token, holder common.Address, amount *big.Int) {
	holders, ok := tx.deltas[token]
	if !ok {
		holders = make(map[common.Address]*big.Int)
		tx.deltas[token] = holders
	}
	delta, ok := holders[holder]
	if !ok {
		delta = new(big.Int)
		holders[holder] = delta
	}
	delta.Add(delta, amount)
}
