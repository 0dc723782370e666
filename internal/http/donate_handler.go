package http

import (
	"errors"
	"math/big"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/donation-engine/internal/common"
	"github.com/hxuan190/donation-engine/internal/domain"
	"github.com/hxuan190/donation-engine/internal/engine"
	"github.com/hxuan190/donation-engine/internal/http/httputil"
)

type DonateHandler struct {
	settlementSvc *engine.Service
}

func NewDonateHandler(settlementSvc *engine.Service) *DonateHandler {
	return &DonateHandler{settlementSvc: settlementSvc}
}

func (h *DonateHandler) Root() string {
	return "/donate"
}

func (h *DonateHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("", h.donate)
}

// SwapRequest is one exchange instruction of a settlement batch
type SwapRequest struct {
	// Exact input amount in the token's smallest unit, decimal string
	AmountIn string `json:"amountIn" binding:"required" example:"1000000000000000000"`

	// Minimum acceptable output in donation-token units, decimal string
	AmountOutMin string `json:"amountOutMin" binding:"required" example:"995000000000000000"`

	// Token route from input token to donation token. A single-element
	// path containing the donation token itself performs no conversion.
	// Use 0xEeee...EEeE as the first hop to donate the native currency.
	Path []string `json:"path" binding:"required,min=1" example:"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2,0x6B175474E89094C44Da98b954EedeAC495271d0F"`
}

// DonationRequest allocates a share of one input token's proceeds to a grant
type DonationRequest struct {
	// Grant id in the external registry
	GrantID uint64 `json:"grantId" example:"3"`

	// Input token whose swap proceeds fund this donation
	Token string `json:"token" binding:"required" example:"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`

	// WAD-scaled share of the token's proceeds (1e18 == 100%), decimal string
	Ratio string `json:"ratio" binding:"required" example:"500000000000000000"`

	// Matching rounds to credit; may be empty
	Rounds []string `json:"rounds"`
}

// DonateRequest is one all-or-nothing settlement batch
type DonateRequest struct {
	// Address funding the batch
	Donor string `json:"donor" binding:"required" example:"0x1dF62f291b2E969fB0849d99D9Ce41e2F137006e"`

	Swaps     []SwapRequest     `json:"swaps" binding:"required,min=1"`
	Donations []DonationRequest `json:"donations" binding:"required,min=1"`

	// Unix seconds after which the batch must not execute
	Deadline int64 `json:"deadline" binding:"required" example:"1735689600"`

	// Native currency attached to the batch, decimal string. Required to
	// equal the native swap's amountIn when a native path is present.
	NativeValue string `json:"nativeValue" example:"0"`
}

type DonateResponse struct {
	Records []domain.SettlementRecord `json:"records"`
}

// donate godoc
// @Summary Settle a donation batch
// @Description Validates the batch, swaps every input token into the donation token and pays grant payees proportionally. Any failure settles nothing.
// @Tags donate
// @Accept json
// @Produce json
// @Param request body DonateRequest true "Settlement batch"
// @Success 200 {object} httputil.Response{data=DonateResponse}
// @Failure 400 {object} httputil.Response
// @Failure 422 {object} httputil.Response
// @Failure 500 {object} httputil.Response
// @Router /api/v1/donate [post]
func (h *DonateHandler) donate(c *gin.Context) {
	var req DonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Handle(c, common.HTTPErrorBadRequest(err.Error()))
		return
	}

	batch, err := parseBatch(&req)
	if err != nil {
		httputil.Handle(c, common.HTTPErrorBadRequest(err.Error()))
		return
	}

	records, err := h.settlementSvc.Donate(c.Request.Context(), batch)
	if err != nil {
		if isRejection(err) {
			httputil.Handle(c, common.HTTPErrorUnprocessable(err.Error()))
			return
		}
		httputil.Handle(c, common.HTTPErrorInternalError(err.Error()))
		return
	}

	httputil.Success(c, DonateResponse{Records: records})
}

// rejections are caller faults; everything else is an engine/backend fault.
var rejections = []error{
	engine.ErrUnknownGrant,
	engine.ErrRoundTokenMismatch,
	engine.ErrRoundInactive,
	engine.ErrDuplicateInputToken,
	engine.ErrRatioSum,
	engine.ErrNativeValueMismatch,
	engine.ErrDeadlineExpired,
	engine.ErrSlippage,
	engine.ErrZeroDonation,
}

func isRejection(err error) bool {
	for _, sentinel := range rejections {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func parseBatch(req *DonateRequest) (*domain.DonationBatch, error) {
	donor, err := parseAddress(req.Donor)
	if err != nil {
		return nil, err
	}

	swaps := make([]domain.Swap, 0, len(req.Swaps))
	for i := range req.Swaps {
		swap, err := parseSwap(&req.Swaps[i])
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, swap)
	}

	donations := make([]domain.Donation, 0, len(req.Donations))
	for i := range req.Donations {
		donation, err := parseDonation(&req.Donations[i])
		if err != nil {
			return nil, err
		}
		donations = append(donations, donation)
	}

	nativeValue := new(big.Int)
	if req.NativeValue != "" {
		nativeValue, err = parseAmount(req.NativeValue)
		if err != nil {
			return nil, err
		}
	}

	return &domain.DonationBatch{
		Donor:       donor,
		Swaps:       swaps,
		Deadline:    time.Unix(req.Deadline, 0),
		Donations:   donations,
		NativeValue: nativeValue,
	}, nil
}

func parseSwap(req *SwapRequest) (domain.Swap, error) {
	amountIn, err := parseAmount(req.AmountIn)
	if err != nil {
		return domain.Swap{}, err
	}
	amountOutMin, err := parseAmount(req.AmountOutMin)
	if err != nil {
		return domain.Swap{}, err
	}

	path := make(domain.Path, 0, len(req.Path))
	for _, hop := range req.Path {
		addr, err := parseAddress(hop)
		if err != nil {
			return domain.Swap{}, err
		}
		path = append(path, addr)
	}

	return domain.Swap{AmountIn: amountIn, AmountOutMin: amountOutMin, Path: path}, nil
}

func parseDonation(req *DonationRequest) (domain.Donation, error) {
	token, err := parseAddress(req.Token)
	if err != nil {
		return domain.Donation{}, err
	}
	ratio, err := parseAmount(req.Ratio)
	if err != nil {
		return domain.Donation{}, err
	}

	rounds := make([]ethcommon.Address, 0, len(req.Rounds))
	for _, round := range req.Rounds {
		addr, err := parseAddress(round)
		if err != nil {
			return domain.Donation{}, err
		}
		rounds = append(rounds, addr)
	}

	return domain.Donation{GrantID: req.GrantID, Token: token, Ratio: ratio, Rounds: rounds}, nil
}

func parseAddress(raw string) (ethcommon.Address, error) {
	if !ethcommon.IsHexAddress(raw) {
		return ethcommon.Address{}, errors.New("invalid address: " + raw)
	}
	return ethcommon.HexToAddress(raw), nil
}

func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() < 0 {
		return nil, errors.New("invalid amount: " + raw)
	}
	return amount, nil
}
