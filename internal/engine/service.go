// Package engine implements the donation-settlement engine: it converts a
// batch of heterogeneous input tokens into the configured donation token and
// distributes the proceeds proportionally to grant payees, all-or-nothing.
package engine

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/andres-erbsen/clock"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/donation-engine/internal/adapters/evm"
	"github.com/hxuan190/donation-engine/internal/adapters/persistence"
	"github.com/hxuan190/donation-engine/internal/common"
	"github.com/hxuan190/donation-engine/internal/config"
	"github.com/hxuan190/donation-engine/internal/domain"
	"github.com/hxuan190/donation-engine/internal/metrics"
	"github.com/hxuan190/donation-engine/internal/ports"
)

const SETTLEMENT_SERVICE = "settlement-service"

// Params is the configuration fixed at engine construction. Everything else
// arrives with each settlement call.
type Params struct {
	DonationToken ethcommon.Address
	WrappedNative ethcommon.Address
	// Account is the engine's custody address ferrying swap outputs to
	// recipients; it should hold at most dust between calls.
	Account ethcommon.Address
}

type Service struct {
	container.BaseDIInstance

	donationToken ethcommon.Address
	wrappedNative ethcommon.Address
	account       ethcommon.Address

	registry ports.RegistryReader
	rounds   ports.RoundReader
	tokens   ports.TokenReader
	venue    ports.SwapVenue
	ledger   ports.Ledger
	emitter  ports.RecordEmitter
	clk      clock.Clock

	journal *persistence.Journal
	mlog    *common.ServiceLogger
}

// New constructs a settlement engine from explicit collaborators. The DI
// container path (Configure) builds the EVM-backed set; tests inject the
// in-memory one.
func New(p Params, registry ports.RegistryReader, rounds ports.RoundReader, tokens ports.TokenReader,
	venue ports.SwapVenue, ledger ports.Ledger, emitter ports.RecordEmitter, clk clock.Clock) *Service {
	svc := &Service{
		donationToken: p.DonationToken,
		wrappedNative: p.WrappedNative,
		account:       p.Account,
		registry:      registry,
		rounds:        rounds,
		tokens:        tokens,
		venue:         venue,
		ledger:        ledger,
		emitter:       emitter,
		clk:           clk,
	}
	svc.mlog = common.NewServiceLogger(svc)
	return svc
}

func (svc *Service) ID() string {
	return SETTLEMENT_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	engineConf := c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)
	chainConf := c.GetConfig(config.CHAIN_CONFIG_KEY).(*config.ChainConfig)
	generalConf := c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)

	client, err := evm.NewClient(chainConf)
	if err != nil {
		return err
	}

	svc.donationToken = engineConf.DonationToken
	svc.wrappedNative = engineConf.WrappedNative
	svc.account = client.Account()
	svc.registry = evm.NewRegistry(client, engineConf.Registry)
	svc.rounds = evm.NewRounds(client)
	svc.tokens = evm.NewTokens(client)
	svc.venue = evm.NewVenue(client, engineConf.Router, engineConf.WrappedNative)
	svc.ledger = evm.NewLedger(client)
	svc.clk = clock.New()

	svc.mlog = common.NewServiceLogger(svc)
	if strings.EqualFold(generalConf.LogLevel, "debug") {
		svc.mlog.SetDebugMode(true)
		svc.mlog.EnableLogForServices([]string{SETTLEMENT_SERVICE})
	}

	if engineConf.JournalEnabled {
		journal, err := persistence.NewJournal(engineConf.JournalPath)
		if err != nil {
			return err
		}
		svc.journal = journal
		svc.emitter = journal
	}

	return nil
}

// Start runs the construction-time sanity probe: the registry must report
// grant data and the donation token a non-zero total supply. This is a
// configuration check, not a runtime validation.
func (svc *Service) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	count, err := svc.registry.GrantCount(ctx)
	if err != nil || count == 0 {
		log.Error().Err(err).Msg("[settlementService] registry probe failed")
		return ErrInvalidRegistry
	}
	supply, err := svc.tokens.TotalSupply(ctx, svc.donationToken)
	if err != nil || supply.Sign() == 0 {
		log.Error().Err(err).Msg("[settlementService] donation token probe failed")
		return ErrInvalidDonationToken
	}

	log.Info().
		Uint64("grant_count", count).
		Str("donation_token", svc.donationToken.Hex()).
		Msg("[settlementService] started")
	return nil
}

func (svc *Service) Stop() error {
	if svc.journal != nil {
		return svc.journal.Close()
	}
	return nil
}

// Registry exposes the injected registry reader for read-only passthrough.
func (svc *Service) Registry() ports.RegistryReader {
	return svc.registry
}

// Rounds exposes the injected round reader for read-only passthrough.
func (svc *Service) Rounds() ports.RoundReader {
	return svc.rounds
}

// Journal returns the settlement record journal, or nil when journaling is
// disabled.
func (svc *Service) Journal() *persistence.Journal {
	return svc.journal
}

// DonationToken returns the engine's configured donation currency.
func (svc *Service) DonationToken() ethcommon.Address {
	return svc.donationToken
}

// Donate settles one batch: Validate, Execute-swaps, Distribute, in that
// order, inside a single ledger unit of work. Any failure at any step
// discards every staged effect; on success it returns one settlement record
// per donation, in batch order.
func (svc *Service) Donate(ctx context.Context, batch *domain.DonationBatch) ([]domain.SettlementRecord, error) {
	start := time.Now()
	svc.mlog.Info("settling donation batch", "Donate")

	if err := svc.validate(ctx, batch); err != nil {
		metrics.SettlementRequests.WithLabelValues("rejected").Inc()
		return nil, err
	}

	tx, err := svc.ledger.Begin(ctx)
	if err != nil {
		metrics.SettlementRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	defer tx.Discard()

	outcome, err := svc.executeSwaps(ctx, tx, batch)
	if err != nil {
		metrics.SettlementRequests.WithLabelValues("swap_failed").Inc()
		return nil, err
	}

	records, err := svc.distribute(ctx, tx, batch.Donations, outcome)
	if err != nil {
		metrics.SettlementRequests.WithLabelValues("distribution_failed").Inc()
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		metrics.SettlementRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	svc.emit(ctx, records)
	svc.observeDust(ctx, outcome)

	metrics.SettlementRequests.WithLabelValues("ok").Inc()
	metrics.SettlementDuration.Observe(time.Since(start).Seconds())
	metrics.SwapsExecuted.Add(float64(len(batch.Swaps)))
	metrics.DonationsSettled.Add(float64(len(records)))

	return records, nil
}

// emit publishes committed records. The batch is already settled at this
// point, so an emitter failure is logged, not propagated.
func (svc *Service) emit(ctx context.Context, records []domain.SettlementRecord) {
	for _, rec := range records {
		log.Info().
			Uint64("grant_id", rec.GrantID).
			Str("token", rec.Token.Hex()).
			Str("amount", rec.Amount.String()).
			Int("rounds", len(rec.Rounds)).
			Msg("[settlementService] grant donation settled")

		if svc.emitter == nil {
			continue
		}
		if err := svc.emitter.Emit(ctx, rec); err != nil {
			log.Error().Err(err).Uint64("grant_id", rec.GrantID).
				Msg("[settlementService] failed to emit settlement record")
		}
	}
}

// observeDust reads the engine's residual custody balances after a
// successful settlement. Truncation leaves at most a few wei per token;
// anything above the threshold indicates an accounting bug.
func (svc *Service) observeDust(ctx context.Context, outcome domain.SwapOutcome) {
	touched := make([]ethcommon.Address, 0, len(outcome)+1)
	touched = append(touched, svc.donationToken)
	for token := range outcome {
		if token != svc.donationToken {
			touched = append(touched, token)
		}
	}

	for _, token := range touched {
		bal, err := svc.tokens.BalanceOf(ctx, token, svc.account)
		if err != nil {
			continue
		}
		residual, _ := new(big.Float).SetInt(bal).Float64()
		metrics.CustodyResidual.WithLabelValues(token.Hex()).Set(residual)
		if bal.Cmp(domain.DustThreshold) > 0 {
			log.Warn().
				Str("token", token.Hex()).
				Str("balance", bal.String()).
				Msg("[settlementService] custody residual above dust threshold")
		}
	}
}
