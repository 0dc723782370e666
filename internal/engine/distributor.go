package engine

import (
	"context"
	"fmt"

	"github.com/hxuan190/donation-engine/internal/domain"
	"github.com/hxuan190/donation-engine/internal/ports"
	"github.com/hxuan190/donation-engine/internal/wad"
)

// distribute computes each donation's proportional share of the matching
// swap output, resolves the payee and stages the transfer. One record per
// donation, in batch order; no aggregation across donations targeting the
// same grant. Amount and payee are finalized before the transfer is staged,
// and no engine state is read back afterwards.
func (svc *Service) distribute(ctx context.Context, tx ports.LedgerTx, donations []domain.Donation, outcome domain.SwapOutcome) ([]domain.SettlementRecord, error) {
	records := make([]domain.SettlementRecord, 0, len(donations))
	for i := range donations {
		donation := &donations[i]

		output, ok := outcome[donation.Token]
		if !ok {
			// Validation admits donations only for swapped tokens, so a
			// missing output is a caller/programmer error, not a user one.
			return nil, fmt.Errorf("token %s: %w", donation.Token.Hex(), ErrMissingSwapOutput)
		}

		amount, err := wad.Proportion(output, donation.Ratio)
		if err != nil {
			return nil, fmt.Errorf("proportion for grant %d: %w", donation.GrantID, err)
		}
		if amount.Sign() == 0 {
			// A zero share means the ratio/amount combination is too small
			// to represent; failing beats silently dropping the donation.
			return nil, fmt.Errorf("grant %d: %w", donation.GrantID, ErrZeroDonation)
		}

		payee, err := svc.registry.GrantPayee(ctx, donation.GrantID)
		if err != nil {
			return nil, fmt.Errorf("payee for grant %d: %w", donation.GrantID, err)
		}

		if err := tx.Transfer(ctx, svc.donationToken, svc.account, payee, amount); err != nil {
			return nil, fmt.Errorf("transfer to payee %s: %w", payee.Hex(), err)
		}

		records = append(records, domain.SettlementRecord{
			GrantID: donation.GrantID,
			Token:   donation.Token,
			Amount:  amount,
			Rounds:  donation.Rounds,
		})
	}

	return records, nil
}
