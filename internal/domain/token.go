package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// NativeToken is the sentinel address denoting the chain's native
	// currency in swap paths and ledger bookkeeping.
	NativeToken = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

	// DustThreshold is the residual custody balance tolerated after a
	// successful settlement, attributable to integer-division truncation.
	DustThreshold = big.NewInt(5)
)
