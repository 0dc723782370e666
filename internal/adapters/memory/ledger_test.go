package memory

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/donation-engine/internal/domain"
)

var (
	tokenA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	alice  = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	bob    = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func TestLedger_CommitAppliesStagedTransfers(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()
	ledger.Mint(tokenA, alice, big.NewInt(100))

	tx, err := ledger.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.Transfer(ctx, tokenA, alice, bob, big.NewInt(40)))
	require.NoError(t, tx.Commit(ctx))

	balA, _ := ledger.BalanceOf(ctx, tokenA, alice)
	balB, _ := ledger.BalanceOf(ctx, tokenA, bob)
	assert.Equal(t, int64(60), balA.Int64())
	assert.Equal(t, int64(40), balB.Int64())
}

func TestLedger_DiscardLeavesBalancesUntouched(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()
	ledger.Mint(tokenA, alice, big.NewInt(100))

	tx, err := ledger.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.Transfer(ctx, tokenA, alice, bob, big.NewInt(40)))
	tx.Discard()

	balA, _ := ledger.BalanceOf(ctx, tokenA, alice)
	balB, _ := ledger.BalanceOf(ctx, tokenA, bob)
	assert.Equal(t, int64(100), balA.Int64())
	assert.Equal(t, int64(0), balB.Int64())
}

func TestLedger_TransferChecksStagedBalance(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()
	ledger.Mint(tokenA, alice, big.NewInt(50))

	tx, err := ledger.Begin(ctx)
	require.NoError(t, err)
	defer tx.Discard()

	require.NoError(t, tx.Transfer(ctx, tokenA, alice, bob, big.NewInt(30)))
	// Only 20 remains after the staged debit even though nothing committed.
	err = tx.Transfer(ctx, tokenA, alice, bob, big.NewInt(30))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Staged credits are spendable within the same batch.
	require.NoError(t, tx.Transfer(ctx, tokenA, bob, alice, big.NewInt(30)))
}

func TestLedger_RejectsNegativeAmount(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()
	ledger.Mint(tokenA, alice, big.NewInt(10))

	tx, err := ledger.Begin(ctx)
	require.NoError(t, err)
	defer tx.Discard()

	assert.ErrorIs(t, tx.Transfer(ctx, tokenA, alice, bob, big.NewInt(-1)), ErrInvalidAmount)
}

func TestVenue_SwapMovesFundsThroughOpenSettlement(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()
	venueAddr := common.HexToAddress("0x000000000000000000000000000000000000dead")

	ledger.Mint(tokenA, alice, big.NewInt(100))
	ledger.Mint(tokenB, venueAddr, big.NewInt(1_000))

	venue := NewVenue(ledger, venueAddr)
	venue.SetRate(tokenA, tokenB, 2, 1)

	tx, err := ledger.Begin(ctx)
	require.NoError(t, err)

	out, err := venue.Swap(ctx, big.NewInt(50), big.NewInt(0), domain.Path{tokenA, tokenB}, time.Now().Add(time.Minute), alice)
	require.NoError(t, err)
	assert.Equal(t, int64(100), out.Int64())

	require.NoError(t, tx.Commit(ctx))

	gotB, _ := ledger.BalanceOf(ctx, tokenB, alice)
	venueA, _ := ledger.BalanceOf(ctx, tokenA, venueAddr)
	assert.Equal(t, int64(100), gotB.Int64())
	assert.Equal(t, int64(50), venueA.Int64())
}

func TestVenue_SwapRequiresOpenSettlement(t *testing.T) {
	ledger := NewLedger()
	venue := NewVenue(ledger, common.HexToAddress("0x000000000000000000000000000000000000dead"))
	venue.SetRate(tokenA, tokenB, 1, 1)

	_, err := venue.Swap(context.Background(), big.NewInt(1), big.NewInt(0), domain.Path{tokenA, tokenB}, time.Now(), alice)
	assert.ErrorIs(t, err, ErrNoOpenSettlement)
}
