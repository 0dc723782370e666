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

// Rounds reads grant round contracts. Rounds are standalone contracts, so
// every lookup binds at the round's own address.
type Rounds struct {
	client *Client
}

func NewRounds(client *Client) *Rounds {
	return &Rounds{client: client}
}

func (r *Rounds) Round(ctx context.Context, addr common.Address) (*domain.GrantRound, error) {
	contract := r.client.bound(addr, roundABI)
	opts := &bind.CallOpts{Context: ctx}

	var out []interface{}
	if err := contract.Call(opts, &out, "donationToken"); err != nil {
		return nil, fmt.Errorf("donationToken call on %s: %w", addr.Hex(), err)
	}
	donationToken := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)

	out = out[:0]
	if err := contract.Call(opts, &out, "isActive"); err != nil {
		return nil, fmt.Errorf("isActive call on %s: %w", addr.Hex(), err)
	}
	active := *abi.ConvertType(out[0], new(bool)).(*bool)

	out = out[:0]
	if err := contract.Call(opts, &out, "minContribution"); err != nil {
		return nil, fmt.Errorf("minContribution call on %s: %w", addr.Hex(), err)
	}
	minContribution := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)

	return &domain.GrantRound{
		Address:         addr,
		DonationToken:   donationToken,
		Active:          active,
		MinContribution: minContribution,
	}, nil
}
