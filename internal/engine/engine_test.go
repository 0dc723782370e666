package engine_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/donation-engine/internal/adapters/memory"
	"github.com/hxuan190/donation-engine/internal/domain"
	"github.com/hxuan190/donation-engine/internal/engine"
	"github.com/hxuan190/donation-engine/internal/wad"
)

var (
	dai  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	weth = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdc = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")

	donor      = common.HexToAddress("0x000000000000000000000000000000000000d010")
	engineAcct = common.HexToAddress("0x000000000000000000000000000000000000e001")
	venueAddr  = common.HexToAddress("0x000000000000000000000000000000000000ace0")

	payee0 = common.HexToAddress("0x0000000000000000000000000000000000000911")
	payee1 = common.HexToAddress("0x0000000000000000000000000000000000000912")
	payee2 = common.HexToAddress("0x0000000000000000000000000000000000000913")

	roundAddr = common.HexToAddress("0x000000000000000000000000000000000000f001")
)

// wadPct converts a whole percentage into a WAD-scaled ratio.
func wadPct(pct int64) *big.Int {
	r := new(big.Int).Mul(big.NewInt(pct), wad.Scale)
	return r.Div(r, big.NewInt(100))
}

type fixture struct {
	ledger   *memory.Ledger
	registry *memory.Registry
	rounds   *memory.RoundBook
	venue    *memory.Venue
	sink     *memory.RecordSink
	clk      *clock.Mock
	svc      *engine.Service
}

func newFixture() *fixture {
	ledger := memory.NewLedger()
	registry := memory.NewRegistry()
	rounds := memory.NewRoundBook()
	venue := memory.NewVenue(ledger, venueAddr)
	sink := memory.NewRecordSink()
	clk := clock.NewMock()

	registry.Add(payee0)
	registry.Add(payee1)
	registry.Add(payee2)

	svc := engine.New(
		engine.Params{DonationToken: dai, WrappedNative: weth, Account: engineAcct},
		registry, rounds, ledger, venue, ledger, sink, clk,
	)

	return &fixture{
		ledger:   ledger,
		registry: registry,
		rounds:   rounds,
		venue:    venue,
		sink:     sink,
		clk:      clk,
		svc:      svc,
	}
}

func (f *fixture) deadline() time.Time {
	return f.clk.Now().Add(time.Hour)
}

func (f *fixture) balance(t *testing.T, token, holder common.Address) int64 {
	t.Helper()
	bal, err := f.ledger.BalanceOf(context.Background(), token, holder)
	require.NoError(t, err)
	return bal.Int64()
}

func passThrough(amount int64) domain.Swap {
	return domain.Swap{
		AmountIn:     big.NewInt(amount),
		AmountOutMin: big.NewInt(amount),
		Path:         domain.Path{dai},
	}
}

func TestDonate_PassThroughFullRatio(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(dai, donor, big.NewInt(100))

	records, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor:    donor,
		Swaps:    []domain.Swap{passThrough(100)},
		Deadline: f.deadline(),
		Donations: []domain.Donation{
			{GrantID: 0, Token: dai, Ratio: wadPct(100)},
		},
	})
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, uint64(0), records[0].GrantID)
	assert.Equal(t, dai, records[0].Token)
	assert.Equal(t, int64(100), records[0].Amount.Int64())

	assert.Equal(t, int64(0), f.balance(t, dai, donor))
	assert.Equal(t, int64(100), f.balance(t, dai, payee0))
	assert.Equal(t, int64(0), f.balance(t, dai, engineAcct))

	require.Len(t, f.sink.Records(), 1)
}

func TestDonate_SplitsProceedsAcrossGrants(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(dai, donor, big.NewInt(100))

	records, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor:    donor,
		Swaps:    []domain.Swap{passThrough(100)},
		Deadline: f.deadline(),
		Donations: []domain.Donation{
			{GrantID: 0, Token: dai, Ratio: wadPct(25)},
			{GrantID: 1, Token: dai, Ratio: wadPct(75)},
		},
	})
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, int64(25), records[0].Amount.Int64())
	assert.Equal(t, int64(75), records[1].Amount.Int64())
	assert.Equal(t, int64(25), f.balance(t, dai, payee0))
	assert.Equal(t, int64(75), f.balance(t, dai, payee1))
	assert.Equal(t, int64(0), f.balance(t, dai, engineAcct))
}

func TestDonate_TruncationLeavesBoundedResidue(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(dai, donor, big.NewInt(100))

	third, _ := new(big.Int).SetString("333333333333333333", 10)
	rest := new(big.Int).Sub(wad.Scale, new(big.Int).Mul(third, big.NewInt(2)))

	records, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor:    donor,
		Swaps:    []domain.Swap{passThrough(100)},
		Deadline: f.deadline(),
		Donations: []domain.Donation{
			{GrantID: 0, Token: dai, Ratio: new(big.Int).Set(third)},
			{GrantID: 1, Token: dai, Ratio: new(big.Int).Set(third)},
			{GrantID: 2, Token: dai, Ratio: rest},
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Each share floors to 33; one wei stays behind in custody, within the
	// n-1 residue bound.
	assert.Equal(t, int64(33), f.balance(t, dai, payee0))
	assert.Equal(t, int64(33), f.balance(t, dai, payee1))
	assert.Equal(t, int64(33), f.balance(t, dai, payee2))
	residual := f.balance(t, dai, engineAcct)
	assert.LessOrEqual(t, residual, int64(2))
	assert.Equal(t, int64(1), residual)
}

func TestDonate_SwapsThroughVenue(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(usdc, donor, big.NewInt(500))
	f.ledger.Mint(dai, venueAddr, big.NewInt(10_000))
	f.venue.SetRate(usdc, dai, 1, 1)

	records, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor: donor,
		Swaps: []domain.Swap{
			{AmountIn: big.NewInt(500), AmountOutMin: big.NewInt(490), Path: domain.Path{usdc, dai}},
		},
		Deadline: f.deadline(),
		Donations: []domain.Donation{
			{GrantID: 0, Token: usdc, Ratio: wadPct(100)},
		},
	})
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, usdc, records[0].Token)
	assert.Equal(t, int64(500), records[0].Amount.Int64())
	assert.Equal(t, int64(500), f.balance(t, dai, payee0))
	assert.Equal(t, int64(500), f.balance(t, usdc, venueAddr))
}

func TestDonate_NativeInputKeyedUnderWrappedNative(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(domain.NativeToken, donor, big.NewInt(1_000))
	f.ledger.Mint(dai, venueAddr, big.NewInt(1_000_000))
	f.venue.SetRate(domain.NativeToken, dai, 2000, 1)

	records, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor: donor,
		Swaps: []domain.Swap{
			{AmountIn: big.NewInt(100), AmountOutMin: big.NewInt(200_000), Path: domain.Path{domain.NativeToken, dai}},
		},
		Deadline:    f.deadline(),
		NativeValue: big.NewInt(100),
		Donations: []domain.Donation{
			{GrantID: 1, Token: weth, Ratio: wadPct(100)},
		},
	})
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, weth, records[0].Token)
	assert.Equal(t, int64(200_000), records[0].Amount.Int64())
	assert.Equal(t, int64(200_000), f.balance(t, dai, payee1))
}

func TestDonate_NativeValueMustMatchSwapInput(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(domain.NativeToken, donor, big.NewInt(1_000))
	f.ledger.Mint(dai, venueAddr, big.NewInt(1_000_000))
	f.venue.SetRate(domain.NativeToken, dai, 2000, 1)

	_, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor: donor,
		Swaps: []domain.Swap{
			{AmountIn: big.NewInt(100), AmountOutMin: big.NewInt(0), Path: domain.Path{domain.NativeToken, dai}},
		},
		Deadline:    f.deadline(),
		NativeValue: big.NewInt(99),
		Donations: []domain.Donation{
			{GrantID: 0, Token: weth, Ratio: wadPct(100)},
		},
	})
	assert.ErrorIs(t, err, engine.ErrNativeValueMismatch)
}

func TestDonate_RejectsDuplicateInputTokens(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(dai, donor, big.NewInt(200))

	_, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor:    donor,
		Swaps:    []domain.Swap{passThrough(100), passThrough(100)},
		Deadline: f.deadline(),
		Donations: []domain.Donation{
			{GrantID: 0, Token: dai, Ratio: wadPct(100)},
		},
	})
	assert.ErrorIs(t, err, engine.ErrDuplicateInputToken)
}

func TestDonate_RejectsNativeAndWrappedNativeInputs(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(domain.NativeToken, donor, big.NewInt(1_000))
	f.ledger.Mint(weth, donor, big.NewInt(1_000))
	f.ledger.Mint(dai, venueAddr, big.NewInt(1_000_000))
	f.venue.SetRate(domain.NativeToken, dai, 2000, 1)
	f.venue.SetRate(weth, dai, 2000, 1)

	// Native input settles under the wrapped native token, so these two
	// swaps collide on the same settlement key even though their leading
	// addresses differ.
	_, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor: donor,
		Swaps: []domain.Swap{
			{AmountIn: big.NewInt(100), AmountOutMin: big.NewInt(0), Path: domain.Path{domain.NativeToken, dai}},
			{AmountIn: big.NewInt(100), AmountOutMin: big.NewInt(0), Path: domain.Path{weth, dai}},
		},
		Deadline:    f.deadline(),
		NativeValue: big.NewInt(100),
		Donations: []domain.Donation{
			{GrantID: 0, Token: weth, Ratio: wadPct(100)},
		},
	})
	assert.ErrorIs(t, err, engine.ErrDuplicateInputToken)

	assert.Equal(t, int64(1_000), f.balance(t, domain.NativeToken, donor))
	assert.Equal(t, int64(1_000), f.balance(t, weth, donor))
	assert.Equal(t, int64(0), f.balance(t, dai, engineAcct))
	assert.Empty(t, f.sink.Records())
}

func TestDonate_RejectsRatioSumBelowOne(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(dai, donor, big.NewInt(100))

	_, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor:    donor,
		Swaps:    []domain.Swap{passThrough(100)},
		Deadline: f.deadline(),
		Donations: []domain.Donation{
			{GrantID: 0, Token: dai, Ratio: wadPct(75)},
		},
	})
	assert.ErrorIs(t, err, engine.ErrRatioSum)
}

func TestDonate_RejectsRatioSumAboveOne(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(dai, donor, big.NewInt(100))

	_, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor:    donor,
		Swaps:    []domain.Swap{passThrough(100)},
		Deadline: f.deadline(),
		Donations: []domain.Donation{
			{GrantID: 0, Token: dai, Ratio: wadPct(60)},
			{GrantID: 1, Token: dai, Ratio: wadPct(60)},
		},
	})
	assert.ErrorIs(t, err, engine.ErrRatioSum)
}

func TestDonate_RejectsUnknownGrant(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(dai, donor, big.NewInt(100))

	_, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor:    donor,
		Swaps:    []domain.Swap{passThrough(100)},
		Deadline: f.deadline(),
		Donations: []domain.Donation{
			{GrantID: 42, Token: dai, Ratio: wadPct(100)},
		},
	})
	assert.ErrorIs(t, err, engine.ErrUnknownGrant)
}

func TestDonate_RoundValidation(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(dai, donor, big.NewInt(100))

	batch := func() *domain.DonationBatch {
		return &domain.DonationBatch{
			Donor:    donor,
			Swaps:    []domain.Swap{passThrough(100)},
			Deadline: f.deadline(),
			Donations: []domain.Donation{
				{GrantID: 0, Token: dai, Ratio: wadPct(100), Rounds: []common.Address{roundAddr}},
			},
		}
	}

	t.Run("inactive round rejected", func(t *testing.T) {
		f.rounds.Put(domain.GrantRound{Address: roundAddr, DonationToken: dai, Active: false})
		_, err := f.svc.Donate(context.Background(), batch())
		assert.ErrorIs(t, err, engine.ErrRoundInactive)
	})

	t.Run("token mismatch rejected", func(t *testing.T) {
		f.rounds.Put(domain.GrantRound{Address: roundAddr, DonationToken: usdc, Active: true})
		_, err := f.svc.Donate(context.Background(), batch())
		assert.ErrorIs(t, err, engine.ErrRoundTokenMismatch)
	})

	t.Run("active matching round accepted", func(t *testing.T) {
		f.rounds.Put(domain.GrantRound{Address: roundAddr, DonationToken: dai, Active: true})
		records, err := f.svc.Donate(context.Background(), batch())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, []common.Address{roundAddr}, records[0].Rounds)
	})
}

func TestDonate_DuplicateRoundEntriesAreHarmless(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(dai, donor, big.NewInt(100))
	f.rounds.Put(domain.GrantRound{Address: roundAddr, DonationToken: dai, Active: true})

	records, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor:    donor,
		Swaps:    []domain.Swap{passThrough(100)},
		Deadline: f.deadline(),
		Donations: []domain.Donation{
			{GrantID: 0, Token: dai, Ratio: wadPct(100), Rounds: []common.Address{roundAddr, roundAddr}},
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Rounds, 2)
}

func TestDonate_RejectsExpiredDeadline(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(dai, donor, big.NewInt(100))

	deadline := f.clk.Now().Add(time.Minute)
	f.clk.Add(2 * time.Minute)

	_, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor:    donor,
		Swaps:    []domain.Swap{passThrough(100)},
		Deadline: deadline,
		Donations: []domain.Donation{
			{GrantID: 0, Token: dai, Ratio: wadPct(100)},
		},
	})
	assert.ErrorIs(t, err, engine.ErrDeadlineExpired)
	assert.Equal(t, int64(100), f.balance(t, dai, donor))
}

func TestDonate_RejectsSlippage(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(usdc, donor, big.NewInt(100))
	f.ledger.Mint(dai, venueAddr, big.NewInt(1_000))
	f.venue.SetRate(usdc, dai, 1, 2)

	_, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor: donor,
		Swaps: []domain.Swap{
			{AmountIn: big.NewInt(100), AmountOutMin: big.NewInt(60), Path: domain.Path{usdc, dai}},
		},
		Deadline: f.deadline(),
		Donations: []domain.Donation{
			{GrantID: 0, Token: usdc, Ratio: wadPct(100)},
		},
	})
	assert.ErrorIs(t, err, engine.ErrSlippage)

	// The staged transfer-in rolled back with the batch.
	assert.Equal(t, int64(100), f.balance(t, usdc, donor))
	assert.Equal(t, int64(0), f.balance(t, usdc, engineAcct))
}

func TestDonate_RejectsZeroDonationAmount(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor:    donor,
		Swaps:    []domain.Swap{passThrough(0)},
		Deadline: f.deadline(),
		Donations: []domain.Donation{
			{GrantID: 0, Token: dai, Ratio: wadPct(100)},
		},
	})
	assert.ErrorIs(t, err, engine.ErrZeroDonation)
}

func TestDonate_RejectsDonationWithoutMatchingSwap(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(dai, donor, big.NewInt(100))

	// The usdc donation has no swap feeding it, so distribution finds no
	// recorded output and the whole batch rolls back.
	_, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor:    donor,
		Swaps:    []domain.Swap{passThrough(100)},
		Deadline: f.deadline(),
		Donations: []domain.Donation{
			{GrantID: 0, Token: usdc, Ratio: wadPct(100)},
		},
	})
	assert.ErrorIs(t, err, engine.ErrMissingSwapOutput)

	assert.Equal(t, int64(100), f.balance(t, dai, donor))
	assert.Equal(t, int64(0), f.balance(t, dai, payee0))
	assert.Equal(t, int64(0), f.balance(t, dai, engineAcct))
	assert.Empty(t, f.sink.Records())
}

func TestDonate_FailureDiscardsEveryStagedEffect(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(dai, donor, big.NewInt(100))
	f.ledger.Mint(usdc, donor, big.NewInt(100))
	// No rate for usdc->dai: the second swap fails after the first one and
	// both transfer-ins have been staged.

	_, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor: donor,
		Swaps: []domain.Swap{
			passThrough(100),
			{AmountIn: big.NewInt(100), AmountOutMin: big.NewInt(1), Path: domain.Path{usdc, dai}},
		},
		Deadline: f.deadline(),
		Donations: []domain.Donation{
			{GrantID: 0, Token: dai, Ratio: wadPct(100)},
			{GrantID: 1, Token: usdc, Ratio: wadPct(100)},
		},
	})
	require.Error(t, err)

	assert.Equal(t, int64(100), f.balance(t, dai, donor))
	assert.Equal(t, int64(100), f.balance(t, usdc, donor))
	assert.Equal(t, int64(0), f.balance(t, dai, engineAcct))
	assert.Equal(t, int64(0), f.balance(t, dai, payee0))
	assert.Empty(t, f.sink.Records())
}

func TestDonate_MultipleInputTokensSettleTogether(t *testing.T) {
	f := newFixture()
	f.ledger.Mint(dai, donor, big.NewInt(100))
	f.ledger.Mint(usdc, donor, big.NewInt(50))
	f.ledger.Mint(dai, venueAddr, big.NewInt(1_000))
	f.venue.SetRate(usdc, dai, 2, 1)

	records, err := f.svc.Donate(context.Background(), &domain.DonationBatch{
		Donor: donor,
		Swaps: []domain.Swap{
			passThrough(100),
			{AmountIn: big.NewInt(50), AmountOutMin: big.NewInt(100), Path: domain.Path{usdc, dai}},
		},
		Deadline: f.deadline(),
		Donations: []domain.Donation{
			{GrantID: 0, Token: dai, Ratio: wadPct(100)},
			{GrantID: 1, Token: usdc, Ratio: wadPct(50)},
			{GrantID: 2, Token: usdc, Ratio: wadPct(50)},
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, int64(100), f.balance(t, dai, payee0))
	assert.Equal(t, int64(50), f.balance(t, dai, payee1))
	assert.Equal(t, int64(50), f.balance(t, dai, payee2))
}

func TestStart_ProbesRegistryAndDonationToken(t *testing.T) {
	t.Run("empty registry rejected", func(t *testing.T) {
		ledger := memory.NewLedger()
		svc := engine.New(
			engine.Params{DonationToken: dai, WrappedNative: weth, Account: engineAcct},
			memory.NewRegistry(), memory.NewRoundBook(), ledger,
			memory.NewVenue(ledger, venueAddr), ledger, memory.NewRecordSink(), clock.NewMock(),
		)
		assert.ErrorIs(t, svc.Start(), engine.ErrInvalidRegistry)
	})

	t.Run("zero supply donation token rejected", func(t *testing.T) {
		ledger := memory.NewLedger()
		registry := memory.NewRegistry()
		registry.Add(payee0)
		svc := engine.New(
			engine.Params{DonationToken: dai, WrappedNative: weth, Account: engineAcct},
			registry, memory.NewRoundBook(), ledger,
			memory.NewVenue(ledger, venueAddr), ledger, memory.NewRecordSink(), clock.NewMock(),
		)
		assert.ErrorIs(t, svc.Start(), engine.ErrInvalidDonationToken)
	})

	t.Run("healthy configuration accepted", func(t *testing.T) {
		f := newFixture()
		f.ledger.Mint(dai, donor, big.NewInt(1))
		assert.NoError(t, f.svc.Start())
	})
}
