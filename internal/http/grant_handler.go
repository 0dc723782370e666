package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/donation-engine/internal/common"
	"github.com/hxuan190/donation-engine/internal/engine"
	"github.com/hxuan190/donation-engine/internal/http/httputil"
)

type GrantHandler struct {
	settlementSvc *engine.Service
}

func NewGrantHandler(settlementSvc *engine.Service) *GrantHandler {
	return &GrantHandler{settlementSvc: settlementSvc}
}

func (h *GrantHandler) Root() string {
	return "/grants"
}

func (h *GrantHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/count", h.getCount)
	pub.GET("/:id/payee", h.getPayee)
}

type GrantCountResponse struct {
	Count uint64 `json:"count"`
}

type GrantPayeeResponse struct {
	GrantID uint64 `json:"grantId"`
	Payee   string `json:"payee"`
}

// getCount godoc
// @Summary Number of registered grants
// @Tags grants
// @Produce json
// @Success 200 {object} httputil.Response{data=GrantCountResponse}
// @Router /api/v1/grants/count [get]
func (h *GrantHandler) getCount(c *gin.Context) {
	count, err := h.settlementSvc.Registry().GrantCount(c.Request.Context())
	if err != nil {
		httputil.Handle(c, common.HTTPErrorInternalError(err.Error()))
		return
	}
	httputil.Success(c, GrantCountResponse{Count: count})
}

// getPayee godoc
// @Summary Payout address of a grant
// @Tags grants
// @Produce json
// @Param id path int true "Grant id"
// @Success 200 {object} httputil.Response{data=GrantPayeeResponse}
// @Failure 404 {object} httputil.Response
// @Router /api/v1/grants/{id}/payee [get]
func (h *GrantHandler) getPayee(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httputil.Handle(c, common.HTTPErrorBadRequest("invalid grant id"))
		return
	}

	payee, err := h.settlementSvc.Registry().GrantPayee(c.Request.Context(), id)
	if err != nil {
		httputil.Handle(c, common.HTTPErrorNotFound(err.Error()))
		return
	}
	httputil.Success(c, GrantPayeeResponse{GrantID: id, Payee: payee.Hex()})
}
