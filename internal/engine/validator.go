package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/donation-engine/internal/domain"
	"github.com/hxuan190/donation-engine/internal/wad"
)

// validate checks the structural and business invariants of the whole batch
// before any transfer occurs. Checks run in a fixed order so the first
// failing invariant determines the reported error. Read-only: the only side
// effects are registry/round lookups.
func (svc *Service) validate(ctx context.Context, batch *domain.DonationBatch) error {
	if err := svc.validateRounds(ctx, batch.Donations); err != nil {
		return err
	}
	if err := svc.validateGrants(ctx, batch.Donations); err != nil {
		return err
	}
	if err := svc.validateSwapInputs(batch.Swaps); err != nil {
		return err
	}
	return validateRatios(batch.Donations)
}

// validateRounds resolves every round referenced by a donation and requires
// a matching donation token and an active round. An empty rounds list is
// valid and skips resolution entirely.
func (svc *Service) validateRounds(ctx context.Context, donations []domain.Donation) error {
	for i := range donations {
		for _, addr := range donations[i].Rounds {
			round, err := svc.rounds.Round(ctx, addr)
			if err != nil {
				return fmt.Errorf("resolve round %s: %w", addr.Hex(), err)
			}
			if round.DonationToken != svc.donationToken {
				return fmt.Errorf("round %s: %w", addr.Hex(), ErrRoundTokenMismatch)
			}
			if !round.Active {
				return fmt.Errorf("round %s: %w", addr.Hex(), ErrRoundInactive)
			}
		}
	}
	return nil
}

func (svc *Service) validateGrants(ctx context.Context, donations []domain.Donation) error {
	count, err := svc.registry.GrantCount(ctx)
	if err != nil {
		return fmt.Errorf("registry grant count: %w", err)
	}
	for i := range donations {
		if donations[i].GrantID >= count {
			return fmt.Errorf("grant %d: %w", donations[i].GrantID, ErrUnknownGrant)
		}
	}
	return nil
}

// validateSwapInputs rejects batches in which two swaps share the same
// leading input token. Detection runs on the token the outcome is keyed
// under, so a native-leading swap collides with a wrapped-native one:
// both would settle under the wrapped native token and the later output
// would silently replace the earlier.
func (svc *Service) validateSwapInputs(swaps []domain.Swap) error {
	seen := make(map[common.Address]struct{}, len(swaps))
	for i := range swaps {
		input := swaps[i].InputToken()
		if input == domain.NativeToken {
			input = svc.wrappedNative
		}
		if _, dup := seen[input]; dup {
			return fmt.Errorf("token %s: %w", input.Hex(), ErrDuplicateInputToken)
		}
		seen[input] = struct{}{}
	}
	return nil
}

// validateRatios groups donations by input token and requires each group's
// ratios to sum to exactly one WAD. Any deviation, above or below, fails.
func validateRatios(donations []domain.Donation) error {
	sums := make(map[common.Address]*big.Int)
	for i := range donations {
		token := donations[i].Token
		sum, ok := sums[token]
		if !ok {
			sum = new(big.Int)
			sums[token] = sum
		}
		sum.Add(sum, donations[i].Ratio)
	}
	for token, sum := range sums {
		if sum.Cmp(wad.Scale) != 0 {
			return fmt.Errorf("token %s sums to %s: %w", token.Hex(), sum, ErrRatioSum)
		}
	}
	return nil
}
