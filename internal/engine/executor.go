package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/hxuan190/donation-engine/internal/domain"
	"github.com/hxuan190/donation-engine/internal/ports"
)

// executeSwaps runs each swap instruction in batch order, staging the
// transfer-in on the ledger and delegating conversion to the swap venue.
// Realized outputs are keyed by the swap's leading input token so the
// distribution step can look up how much donation token resulted from
// converting token X. Native input is recorded under the configured wrapped
// native token, which is the token donations reference.
func (svc *Service) executeSwaps(ctx context.Context, tx ports.LedgerTx, batch *domain.DonationBatch) (domain.SwapOutcome, error) {
	// A deadline already elapsed at call time rejects the batch before any
	// venue interaction.
	if !svc.clk.Now().Before(batch.Deadline) {
		return nil, ErrDeadlineExpired
	}

	outcome := make(domain.SwapOutcome, len(batch.Swaps))
	for i := range batch.Swaps {
		swap := &batch.Swaps[i]
		input := swap.InputToken()

		key := input
		if input == domain.NativeToken {
			key = svc.wrappedNative
			if batch.NativeAmount().Cmp(swap.AmountIn) != 0 {
				return nil, fmt.Errorf("have %s, swap needs %s: %w",
					batch.NativeAmount(), swap.AmountIn, ErrNativeValueMismatch)
			}
		}

		// Transfer-in accounting applies to pass-throughs as well: the
		// caller funds the engine's custody as part of the same call.
		if err := tx.Transfer(ctx, input, batch.Donor, svc.account, swap.AmountIn); err != nil {
			return nil, fmt.Errorf("transfer in %s: %w", input.Hex(), err)
		}

		var realized *big.Int
		if swap.Path.PassThrough(svc.donationToken) {
			realized = new(big.Int).Set(swap.AmountIn)
		} else {
			out, err := svc.venue.Swap(ctx, swap.AmountIn, swap.AmountOutMin, swap.Path, batch.Deadline, svc.account)
			if err != nil {
				return nil, fmt.Errorf("swap %s: %w", input.Hex(), err)
			}
			if out.Cmp(swap.AmountOutMin) < 0 {
				return nil, fmt.Errorf("realized %s, minimum %s: %w", out, swap.AmountOutMin, ErrSlippage)
			}
			realized = out
		}

		outcome[key] = realized
	}

	return outcome, nil
}
