package config

import (
	"errors"
	"os"
)

type ChainConfig struct {
	RPCUrl string
	// SettlerKey is the hex-encoded private key of the engine's custody
	// account; it signs transfer and swap transactions.
	SettlerKey string
	ChainID    int64
}

func (cc *ChainConfig) Key() string {
	return CHAIN_CONFIG_KEY
}

func (cc *ChainConfig) Load() error {
	cc.RPCUrl = os.Getenv("RPC_URL")
	cc.SettlerKey = os.Getenv("SETTLER_KEY")
	cc.ChainID = envInt64("CHAIN_ID", 1)
	return nil
}

func (cc *ChainConfig) Validate() error {
	if cc.RPCUrl == "" || cc.SettlerKey == "" {
		return errors.New("invalid chain config")
	}
	return nil
}
