package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/donation-engine/internal/common"
	"github.com/hxuan190/donation-engine/internal/config"
	"github.com/hxuan190/donation-engine/internal/engine"
	"github.com/hxuan190/donation-engine/internal/http"
)

// @title Donation Settlement API
// @version 1.0
// @description Donation-settlement engine for grant funding platforms: swaps a batch of arbitrary input tokens into a single donation token and distributes the proceeds proportionally to grant payees, all-or-nothing.
// @description
// @description ## - Semantics
// @description - **Atomic batches**: a batch either settles every donation or settles nothing
// @description - **WAD ratios**: donation shares are expressed with 18-decimal fixed-point ratios (1e18 == 100%)
// @description - **Slippage protection**: each swap carries a caller-chosen minimum output
// @description - **Deadlines**: expired batches are rejected before any token moves
// @description - **Matching rounds**: donations may credit active rounds denominated in the donation token
// @description
// @description ## - Rate Limit
// @description 10 requests/second per client (burst: 20)
// @BasePath /
// @schemes http https
// @tag.name donate
// @tag.description Settle donation batches
// @tag.name grants
// @tag.description Read grant registry data
// @tag.name rounds
// @tag.description Inspect matching rounds
// @tag.name records
// @tag.description Browse journaled settlement records

func main() {
	// GOGC, GOMAXPROCS, GOMEMLIMIT
	common.InitRuntime()

	// load env
	err := godotenv.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load env")
		return
	}

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.ChainConfig{},
		&config.EngineConfig{},
	)

	// di container
	dic, err := container.New(
		conf,

		&engine.Service{},
		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
