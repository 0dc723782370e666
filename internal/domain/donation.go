package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Donation allocates a share of a swapped token's proceeds to one grant.
// Ratio is WAD-scaled (1e18 == 100%). Rounds may be empty, meaning the
// donation is not credited to any matching round.
type Donation struct {
	GrantID uint64
	Token   common.Address
	Ratio   *big.Int
	Rounds  []common.Address
}

// SettlementRecord is the engine's observable output: one record per
// donation of a successful batch. Token is the donation's input token,
// Amount is denominated in the engine's donation token. Downstream
// matching computation consumes these records out-of-process.
type SettlementRecord struct {
	GrantID uint64           `json:"grantId"`
	Token   common.Address   `json:"token"`
	Amount  *big.Int         `json:"amount"`
	Rounds  []common.Address `json:"rounds"`
}
