package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Grant is a recipient entity owned by the external registry. The engine
// only ever reads it.
type Grant struct {
	ID    uint64
	Payee common.Address
}

// GrantRound is a matching campaign owned by the external round service.
// The engine reads it to validate that a donation may credit the round.
type GrantRound struct {
	Address         common.Address
	DonationToken   common.Address
	Active          bool
	MinContribution *big.Int
}
