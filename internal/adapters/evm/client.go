// Package evm implements the engine's collaborator ports against live
// Ethereum-compatible contracts over JSON-RPC.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/donation-engine/internal/config"
)

const dialTimeout = 15 * time.Second

// Client wraps an ethclient connection plus the settler key used to sign
// custody transactions.
type Client struct {
	eth     *ethclient.Client
	auth    *bind.TransactOpts
	account common.Address
	chainID *big.Int
}

func NewClient(cfg *config.ChainConfig) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	eth, err := ethclient.DialContext(ctx, cfg.RPCUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc: %w", err)
	}

	key, err := crypto.HexToECDSA(cfg.SettlerKey)
	if err != nil {
		return nil, fmt.Errorf("invalid settler key: %w", err)
	}

	chainID := big.NewInt(cfg.ChainID)
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to build transactor: %w", err)
	}

	account := crypto.PubkeyToAddress(key.PublicKey)
	log.Info().
		Str("account", account.Hex()).
		Int64("chain_id", cfg.ChainID).
		Msg("[evmClient] connected")

	return &Client{
		eth:     eth,
		auth:    auth,
		account: account,
		chainID: chainID,
	}, nil
}

// Account returns the settler address derived from the configured key.
func (c *Client) Account() common.Address {
	return c.account
}

func (c *Client) bound(addr common.Address, parsed abi.ABI) *bind.BoundContract {
	return bind.NewBoundContract(addr, parsed, c.eth, c.eth, c.eth)
}

// transactOpts clones the keyed transactor with the call's context and an
// optional native value attached.
func (c *Client) transactOpts(ctx context.Context, value *big.Int) *bind.TransactOpts {
	opts := *c.auth
	opts.Context = ctx
	opts.Value = value
	return &opts
}

// waitMined blocks until tx lands and fails on a reverted receipt.
func (c *Client) waitMined(ctx context.Context, tx *types.Transaction) error {
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return fmt.Errorf("failed to wait for tx %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("tx %s reverted", tx.Hash().Hex())
	}
	return nil
}
