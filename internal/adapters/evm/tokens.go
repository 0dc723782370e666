package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/donation-engine/internal/domain"
)

// Tokens reads ERC-20 state. The native pseudo-address resolves balances
// through the node's account state instead of a contract call.
type Tokens struct {
	client *Client
}

func NewTokens(client *Client) *Tokens {
	return &Tokens{client: client}
}

func (t *Tokens) TotalSupply(ctx context.Context, token common.Address) (*big.Int, error) {
	var out []interface{}
	contract := t.client.bound(token, erc20ABI)
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "totalSupply"); err != nil {
		return nil, fmt.Errorf("totalSupply call on %s: %w", token.Hex(), err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (t *Tokens) BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	if token == domain.NativeToken {
		return t.client.eth.BalanceAt(ctx, holder, nil)
	}

	var out []interface{}
	contract := t.client.bound(token, erc20ABI)
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", holder); err != nil {
		return nil, fmt.Errorf("balanceOf call on %s: %w", token.Hex(), err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
