package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/hxuan190/donation-engine/internal/domain"
	"github.com/hxuan190/donation-engine/internal/ports"
)

// Ledger implements the engine's Ledger port with on-chain token transfers.
// Unlike the in-memory ledger, effects land as soon as each transfer mines:
// Commit is a checkpoint and Discard cannot claw back mined transfers. The
// engine's validate-before-move ordering keeps the practical failure window
// to venue reverts, which fail the whole call before any payout transfer.
type Ledger struct {
	client *Client
}

func NewLedger(client *Client) *Ledger {
	return &Ledger{client: client}
}

func (l *Ledger) Begin(_ context.Context) (ports.LedgerTx, error) {
	return &Tx{client: l.client}, nil
}

type Tx struct {
	client *Client
}

func (tx *Tx) Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int) error {
	if token == domain.NativeToken {
		// Native value rides in on the swap transaction itself; there is
		// no separate transfer to issue.
		return nil
	}

	contract := tx.client.bound(token, erc20ABI)

	var (
		sent *types.Transaction
		err  error
	)
	if from == tx.client.account {
		sent, err = contract.Transact(tx.client.transactOpts(ctx, nil), "transfer", to, amount)
	} else {
		// Pulling from a third party relies on a prior ERC-20 approval of
		// the settler account.
		sent, err = contract.Transact(tx.client.transactOpts(ctx, nil), "transferFrom", from, to, amount)
	}
	if err != nil {
		return fmt.Errorf("transfer %s of %s: %w", amount, token.Hex(), err)
	}

	return tx.client.waitMined(ctx, sent)
}

func (tx *Tx) Commit(_ context.Context) error {
	return nil
}

func (tx *Tx) Discard() {}
