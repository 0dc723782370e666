package evm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/donation-engine/internal/domain"
)

// Venue executes swaps through a Uniswap-V2 style router. The realized
// output is measured as the recipient's balance delta across the swap
// transaction, which also captures fee-on-transfer tokens correctly.
type Venue struct {
	client        *Client
	router        common.Address
	wrappedNative common.Address
	tokens        *Tokens
}

func NewVenue(client *Client, router, wrappedNative common.Address) *Venue {
	return &Venue{
		client:        client,
		router:        router,
		wrappedNative: wrappedNative,
		tokens:        NewTokens(client),
	}
}

func (v *Venue) Swap(ctx context.Context, amountIn, amountOutMin *big.Int, path domain.Path, deadline time.Time, recipient common.Address) (*big.Int, error) {
	outToken := path.Last()
	before, err := v.tokens.BalanceOf(ctx, outToken, recipient)
	if err != nil {
		return nil, err
	}

	contract := v.client.bound(v.router, routerABI)
	deadlineArg := big.NewInt(deadline.Unix())
	hops := routerPath(path, v.wrappedNative)

	var tx *types.Transaction
	if path.First() == domain.NativeToken {
		tx, err = contract.Transact(v.client.transactOpts(ctx, amountIn),
			"swapExactETHForTokens", amountOutMin, hops, recipient, deadlineArg)
		if err != nil {
			return nil, fmt.Errorf("swapExactETHForTokens: %w", err)
		}
	} else {
		tx, err = contract.Transact(v.client.transactOpts(ctx, nil),
			"swapExactTokensForTokens", amountIn, amountOutMin, hops, recipient, deadlineArg)
		if err != nil {
			return nil, fmt.Errorf("swapExactTokensForTokens: %w", err)
		}
	}
	if err := v.client.waitMined(ctx, tx); err != nil {
		return nil, err
	}

	after, err := v.tokens.BalanceOf(ctx, outToken, recipient)
	if err != nil {
		return nil, err
	}
	realized := new(big.Int).Sub(after, before)

	log.Debug().
		Str("tx", tx.Hash().Hex()).
		Str("in", path.First().Hex()).
		Str("out", outToken.Hex()).
		Str("realized", realized.String()).
		Msg("[swapVenue] swap executed")

	return realized, nil
}

// routerPath substitutes the native pseudo-address with the wrapped native
// token, which is what V2 routers expect in the hop list.
func routerPath(path domain.Path, wrappedNative common.Address) []common.Address {
	hops := make([]common.Address, len(path))
	for i, hop := range path {
		if hop == domain.NativeToken {
			hop = wrappedNative
		}
		hops[i] = hop
	}
	return hops
}
