package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/prpulse/core"
	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/internal/source"
	"github.com/huangsam/prpulse/schema"
	"go.uber.org/zap"
)

// Error codes returned in the error envelope.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeNotFound       = "NOT_FOUND"
)

// ErrorBody is the inner object of an error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope for every non-2xx response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// RequestParams are the analysis parameters of a request.
// Absent fields fall back to the server configuration.
type RequestParams struct {
	RecencyWindowMonths int        `json:"recencyWindowMonths"`
	MinimumPRThreshold  *int       `json:"minimumPRThreshold"`
	ActiveOnlyMode      *bool      `json:"activeOnlyMode"`
	CohortTopN          int        `json:"cohortTopN"`
	InactiveTopN        int        `json:"inactiveTopN"`
	InactiveFloor       *time.Time `json:"inactiveFloor"`
	Now                 *time.Time `json:"now"`
}

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	Params  RequestParams       `json:"params"`
	Records []source.WireRecord `json:"records"`
}

var errMissingRepository = errors.New("repository is required")

func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// handler serves the analysis endpoints against a base configuration.
type handler struct {
	baseCfg *contract.Config
	logger  *zap.SugaredLogger
	clock   func() time.Time
}

// Healthz handles GET /healthz.
func (h *handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Analyze handles POST /v1/analyze and returns the full report.
func (h *handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return
	}

	params, err := h.resolveParams(req.Params)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	records := make([]schema.PullRequestRecord, 0, len(req.Records))
	for i, w := range req.Records {
		if w.Repository == "" {
			errorResponse(c, http.StatusBadRequest, CodeInvalidRequest, fmt.Sprintf("records[%d]: %v", i, errMissingRepository))
			return
		}
		records = append(records, w.Record(w.Repository))
	}

	report, err := core.Analyze(c.Request.Context(), records, params)
	if err != nil {
		h.logger.Errorw("analysis failed", "error", err, "records", len(records))
		errorResponse(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}
	c.JSON(http.StatusOK, report)
}

// resolveParams merges request parameters over the server defaults and validates them.
func (h *handler) resolveParams(in RequestParams) (schema.Params, error) {
	params := h.baseCfg.Params()
	params.Now = h.clock().UTC()

	if in.RecencyWindowMonths != 0 {
		if in.RecencyWindowMonths < 0 || in.RecencyWindowMonths > contract.MaxWindowMonths {
			return schema.Params{}, fmt.Errorf("recencyWindowMonths must be between 1 and %d (received %d)", contract.MaxWindowMonths, in.RecencyWindowMonths)
		}
		params.RecencyWindowMonths = in.RecencyWindowMonths
	}
	if in.MinimumPRThreshold != nil {
		if *in.MinimumPRThreshold < 0 {
			return schema.Params{}, fmt.Errorf("minimumPRThreshold cannot be negative (received %d)", *in.MinimumPRThreshold)
		}
		params.MinimumPRThreshold = *in.MinimumPRThreshold
	}
	if in.ActiveOnlyMode != nil {
		params.ActiveOnlyMode = *in.ActiveOnlyMode
	}
	if in.CohortTopN != 0 {
		if in.CohortTopN < 0 || in.CohortTopN > contract.MaxResultLimit {
			return schema.Params{}, fmt.Errorf("cohortTopN must be between 1 and %d (received %d)", contract.MaxResultLimit, in.CohortTopN)
		}
		params.CohortTopN = in.CohortTopN
	}
	if in.InactiveTopN != 0 {
		if in.InactiveTopN < 0 || in.InactiveTopN > contract.MaxResultLimit {
			return schema.Params{}, fmt.Errorf("inactiveTopN must be between 1 and %d (received %d)", contract.MaxResultLimit, in.InactiveTopN)
		}
		params.InactiveTopN = in.InactiveTopN
	}
	if in.Now != nil {
		params.Now = in.Now.UTC()
	}
	floorPinned := h.baseCfg.FloorPinned
	if in.InactiveFloor != nil {
		params.InactiveFloor = in.InactiveFloor.UTC()
		floorPinned = true
	}
	if params.InactiveFloor.After(params.Now) && !floorPinned {
		params.InactiveFloor = params.Now
	}
	if params.InactiveFloor.After(params.Now) {
		return schema.Params{}, fmt.Errorf("inactiveFloor (%s) cannot be after now (%s)",
			params.InactiveFloor.Format(contract.DateTimeFormat), params.Now.Format(contract.DateTimeFormat))
	}
	if params.RecencyWindowMonths <= 0 {
		params.RecencyWindowMonths = contract.DefaultWindowMonths
	}
	return params, nil
}
