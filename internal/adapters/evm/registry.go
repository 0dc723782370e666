package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Registry reads the on-chain grant registry contract.
type Registry struct {
	contract *bind.BoundContract
}

func NewRegistry(client *Client, addr common.Address) *Registry {
	return &Registry{contract: client.bound(addr, registryABI)}
}

func (r *Registry) GrantCount(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "grantCount"); err != nil {
		return 0, fmt.Errorf("grantCount call: %w", err)
	}
	count := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return count.Uint64(), nil
}

func (r *Registry) GrantPayee(ctx context.Context, grantID uint64) (common.Address, error) {
	var out []interface{}
	id := new(big.Int).SetUint64(grantID)
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getGrantPayee", id); err != nil {
		return common.Address{}, fmt.Errorf("getGrantPayee call: %w", err)
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}
