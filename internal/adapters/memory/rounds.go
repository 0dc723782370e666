package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/donation-engine/internal/domain"
)

var ErrRoundNotFound = errors.New("round not found")

// RoundBook is an in-memory round service implementing the engine's
// RoundReader port.
type RoundBook struct {
	mu     sync.RWMutex
	rounds map[common.Address]domain.GrantRound
}

func NewRoundBook() *RoundBook {
	return &RoundBook{rounds: make(map[common.Address]domain.GrantRound)}
}

func (b *RoundBook) Put(round domain.GrantRound) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rounds[round.Address] = round
}

// SetActive flips a round's activity flag, emulating an administrative
// change racing a settlement call.
func (b *RoundBook) SetActive(addr common.Address, active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	round, ok := b.rounds[addr]
	if !ok {
		return
	}
	round.Active = active
	b.rounds[addr] = round
}

func (b *RoundBook) Round(_ context.Context, addr common.Address) (*domain.GrantRound, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	round, ok := b.rounds[addr]
	if !ok {
		return nil, ErrRoundNotFound
	}
	copy := round
	return &copy, nil
}
