package http

import (
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/donation-engine/internal/common"
	"github.com/hxuan190/donation-engine/internal/engine"
	"github.com/hxuan190/donation-engine/internal/http/httputil"
)

type RoundHandler struct {
	settlementSvc *engine.Service
}

func NewRoundHandler(settlementSvc *engine.Service) *RoundHandler {
	return &RoundHandler{settlementSvc: settlementSvc}
}

func (h *RoundHandler) Root() string {
	return "/rounds"
}

func (h *RoundHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/:address", h.getRound)
}

type RoundResponse struct {
	Address         string `json:"address"`
	DonationToken   string `json:"donationToken"`
	Active          bool   `json:"active"`
	MinContribution string `json:"minContribution"`
	// Eligible reports whether donations naming this round would pass the
	// engine's round checks right now.
	Eligible bool `json:"eligible"`
}

// getRound godoc
// @Summary Inspect a matching round
// @Tags rounds
// @Produce json
// @Param address path string true "Round contract address"
// @Success 200 {object} httputil.Response{data=RoundResponse}
// @Failure 404 {object} httputil.Response
// @Router /api/v1/rounds/{address} [get]
func (h *RoundHandler) getRound(c *gin.Context) {
	raw := c.Param("address")
	if !ethcommon.IsHexAddress(raw) {
		httputil.Handle(c, common.HTTPErrorBadRequest("invalid round address"))
		return
	}

	round, err := h.settlementSvc.Rounds().Round(c.Request.Context(), ethcommon.HexToAddress(raw))
	if err != nil {
		httputil.Handle(c, common.HTTPErrorNotFound(err.Error()))
		return
	}

	minContribution := "0"
	if round.MinContribution != nil {
		minContribution = round.MinContribution.String()
	}

	httputil.Success(c, RoundResponse{
		Address:         round.Address.Hex(),
		DonationToken:   round.DonationToken.Hex(),
		Active:          round.Active,
		MinContribution: minContribution,
		Eligible:        round.Active && round.DonationToken == h.settlementSvc.DonationToken(),
	})
}
