// Package handlers provides HTTP handlers for portfolio risk analysis.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/esfolk/DefiHedge/internal/domain"
	"github.com/esfolk/DefiHedge/internal/modules/prices"
	"github.com/esfolk/DefiHedge/internal/modules/risk"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"

	maxRequestBytes = 1 << 20
)

// Analyzer runs a portfolio analysis. *risk.Analyzer implements it.
type Analyzer interface {
	Analyze(ctx context.Context, holdings domain.Holdings, lookbackDays int) (*risk.AnalysisResult, error)
}

// AnalysisRequest is the body of POST /api/risk/analysis
type AnalysisRequest struct {
	PortfolioData map[string]float64 `json:"portfolio_data" msgpack:"portfolio_data" validate:"required,min=1,dive,keys,required,endkeys,gt=0"`
	LookbackDays  *int               `json:"lookback_days,omitempty" msgpack:"lookback_days,omitempty" validate:"omitempty,min=30,max=1095"`
}

// Handler handles risk analysis HTTP requests
type Handler struct {
	analyzer            Analyzer
	validate            *validator.Validate
	minHoldingUSD       float64
	defaultLookbackDays int
	log                 zerolog.Logger
}

// NewHandler creates a new risk analysis handler. Holdings worth less than
// minHoldingUSD are dropped before analysis.
func NewHandler(analyzer Analyzer, minHoldingUSD float64, defaultLookbackDays int, log zerolog.Logger) *Handler {
	return &Handler{
		analyzer:            analyzer,
		validate:            validator.New(),
		minHoldingUSD:       minHoldingUSD,
		defaultLookbackDays: defaultLookbackDays,
		log:                 log.With().Str("handler", "risk").Logger(),
	}
}

// HandleAnalyze handles POST /api/risk/analysis
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := h.decodeRequest(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_request", fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_request", validationMessage(err))
		return
	}

	lookback := h.defaultLookbackDays
	if req.LookbackDays != nil {
		lookback = *req.LookbackDays
	}

	holdings, dropped := h.materialHoldings(req.PortfolioData)
	if len(holdings) == 0 {
		h.writeError(w, r, http.StatusBadRequest, "invalid_holdings",
			fmt.Sprintf("No holdings worth at least %.2f USD", h.minHoldingUSD))
		return
	}
	if len(dropped) > 0 {
		h.log.Debug().Strs("symbols", dropped).Float64("min_usd", h.minHoldingUSD).Msg("Dropped immaterial holdings")
	}

	result, err := h.analyzer.Analyze(r.Context(), holdings, lookback)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Msg("Portfolio analysis failed")
		} else {
			h.log.Warn().Err(err).Msg("Portfolio analysis rejected")
		}
		h.writeError(w, r, status, risk.ErrorCode(err), err.Error())
		return
	}

	h.writeResponse(w, r, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp":        time.Now().Format(time.RFC3339),
			"dropped_holdings": dropped,
		},
	})
}

// HandleGetSymbols handles GET /api/risk/symbols
func (h *Handler) HandleGetSymbols(w http.ResponseWriter, r *http.Request) {
	h.writeResponse(w, r, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbols": prices.SupportedTickers(),
			"count":   len(prices.SupportedSymbols()),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// materialHoldings drops holdings below the materiality threshold
func (h *Handler) materialHoldings(data map[string]float64) (domain.Holdings, []string) {
	holdings := make(domain.Holdings, len(data))
	dropped := []string{}
	for symbol, value := range data {
		if value < h.minHoldingUSD {
			dropped = append(dropped, symbol)
			continue
		}
		holdings[symbol] = value
	}
	return holdings, dropped
}

func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request, dst *AnalysisRequest) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if mediaType(r.Header.Get("Content-Type")) == contentTypeMsgpack {
		raw, err := io.ReadAll(body)
		if err != nil {
			return err
		}
		return msgpack.Unmarshal(raw, dst)
	}

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	h.writeResponse(w, r, status, map[string]interface{}{
		"error": message,
		"code":  code,
	})
}

// writeResponse encodes data as MessagePack when the client asks for it and
// as JSON otherwise.
func (h *Handler) writeResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if !acceptsMsgpack(r) {
		h.writeJSON(w, status, data)
		return
	}

	body, err := encodeMsgpack(data)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode MessagePack response")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to encode response", "code": "internal"})
		return
	}

	w.Header().Set("Content-Type", contentTypeMsgpack)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.log.Error().Err(err).Msg("Failed to write MessagePack response")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// encodeMsgpack encodes data through its JSON form so MessagePack responses
// carry the same field names and section error shapes as JSON ones.
func encodeMsgpack(data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var tree interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return msgpack.Marshal(tree)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, risk.ErrInvalidHoldings), errors.Is(err, risk.ErrInvalidLookback):
		return http.StatusBadRequest
	case errors.Is(err, risk.ErrDataUnavailable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return "Validation failed: " + strings.Join(msgs, "; ")
}

func acceptsMsgpack(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		if mediaType(part) == contentTypeMsgpack {
			return true
		}
	}
	return false
}

func mediaType(header string) string {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(header))
	if err != nil {
		return ""
	}
	return mt
}
