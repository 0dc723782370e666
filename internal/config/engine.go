package config

import (
	"fmt"
	"os"
	"strconv"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/andrew-solarstorm/go-packages/common"
)

type EngineConfig struct {
	// DonationToken is the single currency every donation settles in.
	DonationToken ethcommon.Address

	// WrappedNative is the wrapped form of the chain's native currency;
	// donations against native-input swaps are keyed under it.
	WrappedNative ethcommon.Address

	// Registry is the grant registry contract address.
	Registry ethcommon.Address

	// Router is the swap-routing venue contract address.
	Router ethcommon.Address

	// JournalPath is the BoltDB file settlement records are journaled to.
	// Default: "./data/donation-engine.db"
	JournalPath    string
	JournalEnabled bool
}

func (ec *EngineConfig) Key() string {
	return ENGINE_CONFIG_KEY
}

func (ec *EngineConfig) Load() error {
	donationToken := os.Getenv("DONATION_TOKEN")
	wrappedNative := os.Getenv("WRAPPED_NATIVE")
	registry := os.Getenv("GRANT_REGISTRY")
	router := os.Getenv("SWAP_ROUTER")

	for name, addr := range map[string]string{
		"DONATION_TOKEN": donationToken,
		"WRAPPED_NATIVE": wrappedNative,
		"GRANT_REGISTRY": registry,
		"SWAP_ROUTER":    router,
	} {
		if !ethcommon.IsHexAddress(addr) {
			return fmt.Errorf("%s is not a valid address: %q", name, addr)
		}
	}

	ec.DonationToken = ethcommon.HexToAddress(donationToken)
	ec.WrappedNative = ethcommon.HexToAddress(wrappedNative)
	ec.Registry = ethcommon.HexToAddress(registry)
	ec.Router = ethcommon.HexToAddress(router)
	ec.JournalPath = common.GetEnvOrDefault("JOURNAL_PATH", "./data/donation-engine.db")
	ec.JournalEnabled = common.GetEnvOrDefault("JOURNAL_ENABLED", "true") == "true"
	return nil
}

func (ec *EngineConfig) Validate() error {
	return nil
}

func envInt64(key string, def int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return v
}
