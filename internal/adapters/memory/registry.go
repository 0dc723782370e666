package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/donation-engine/internal/domain"
)

var ErrGrantNotFound = errors.New("grant not found")

// Registry is an in-memory grant registry implementing the engine's
// RegistryReader port.
type Registry struct {
	mu     sync.RWMutex
	grants []domain.Grant
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a grant and returns its id. Ids are dense and ordered, so
// every id below GrantCount resolves.
func (r *Registry) Add(payee common.Address) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uint64(len(r.grants))
	r.grants = append(r.grants, domain.Grant{ID: id, Payee: payee})
	return id
}

func (r *Registry) GrantCount(_ context.Context) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(len(r.grants)), nil
}

func (r *Registry) GrantPayee(_ context.Context, grantID uint64) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if grantID >= uint64(len(r.grants)) {
		return common.Address{}, ErrGrantNotFound
	}
	return r.grants[grantID].Payee, nil
}
