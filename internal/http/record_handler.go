package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/donation-engine/internal/common"
	"github.com/hxuan190/donation-engine/internal/domain"
	"github.com/hxuan190/donation-engine/internal/engine"
	"github.com/hxuan190/donation-engine/internal/http/httputil"
)

type RecordHandler struct {
	settlementSvc *engine.Service
}

func NewRecordHandler(settlementSvc *engine.Service) *RecordHandler {
	return &RecordHandler{settlementSvc: settlementSvc}
}

func (h *RecordHandler) Root() string {
	return "/records"
}

func (h *RecordHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.listRecords)
}

type RecordsResponse struct {
	Records []domain.SettlementRecord `json:"records"`
	Count   int                       `json:"count"`
}

// listRecords godoc
// @Summary Journaled settlement records
// @Description Returns every settlement record in settlement order. Available only when journaling is enabled.
// @Tags records
// @Produce json
// @Success 200 {object} httputil.Response{data=RecordsResponse}
// @Failure 503 {object} httputil.Response
// @Router /api/v1/records [get]
func (h *RecordHandler) listRecords(c *gin.Context) {
	journal := h.settlementSvc.Journal()
	if journal == nil {
		httputil.Handle(c, common.HTTPErrorServiceUnavailable("journaling is disabled"))
		return
	}

	records, err := journal.List()
	if err != nil {
		httputil.Handle(c, common.HTTPErrorInternalError(err.Error()))
		return
	}
	httputil.Success(c, RecordsResponse{Records: records, Count: len(records)})
}
