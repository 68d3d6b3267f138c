package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-calculator/internal/calculator"
	"github.com/trogers1052/stock-calculator/internal/models"
)

// Ledger is the position ledger the handlers delegate to
type Ledger interface {
	CalculateAndSave(ctx context.Context, ticker string, stockPrice decimal.Decimal, shares int, fee decimal.Decimal) (calculator.BaseMetrics, int, error)
	OpenPosition(ctx context.Context, ticker string, stockPrice decimal.Decimal, shares int, fee decimal.Decimal) (int, error)
	GetPosition(ctx context.Context, id int) (*models.OpenPosition, error)
	ListOpenPositions(ctx context.Context) ([]*models.OpenPosition, error)
	Sell(ctx context.Context, positionID, sharesSold int, sellPrice decimal.Decimal) (*models.HistoryRecord, error)
	DeletePosition(ctx context.Context, id int) error
	ListHistory(ctx context.Context) ([]*models.HistoryRecord, error)
	Summary(ctx context.Context) (*models.HistorySummary, error)
	StorageLocation() string
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	ledger Ledger
	log    zerolog.Logger
}

// NewHandler creates a new Handler
func NewHandler(ledger Ledger, log zerolog.Logger) *Handler {
	return &Handler{
		ledger: ledger,
		log:    log.With().Str("component", "api").Logger(),
	}
}

type positionRequest struct {
	Ticker         string          `json:"ticker"`
	StockPrice     decimal.Decimal `json:"stock_price"`
	Shares         int             `json:"shares"`
	TransactionFee decimal.Decimal `json:"transaction_fee"`
}

type calculateResponse struct {
	calculator.BaseMetrics
	PositionID int `json:"position_id,omitempty"`
}

type scenarioRequest struct {
	StockPrice     decimal.Decimal   `json:"stock_price"`
	Shares         int               `json:"shares"`
	TransactionFee decimal.Decimal   `json:"transaction_fee"`
	PercentChanges []decimal.Decimal `json:"percent_changes"`
}

type scenarioResponse struct {
	Metrics   calculator.BaseMetrics `json:"metrics"`
	Scenarios []calculator.Scenario  `json:"scenarios"`
}

type sellRequest struct {
	SharesSold int             `json:"shares_sold"`
	SellPrice  decimal.Decimal `json:"sell_price"`
}

// Calculate handles POST /calculate. A non-empty ticker also opens the position.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	metrics, id, err := h.ledger.CalculateAndSave(r.Context(), req.Ticker, req.StockPrice, req.Shares, req.TransactionFee)
	if err != nil {
		h.respondError(w, err)
		return
	}

	status := http.StatusOK
	if id != 0 {
		status = http.StatusCreated
	}
	respondJSON(w, status, calculateResponse{BaseMetrics: metrics, PositionID: id})
}

// Scenario handles POST /scenario
func (h *Handler) Scenario(w http.ResponseWriter, r *http.Request) {
	var req scenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.PercentChanges) == 0 {
		http.Error(w, "percent_changes is required", http.StatusBadRequest)
		return
	}

	calc, err := calculator.New(req.StockPrice, req.Shares, req.TransactionFee)
	if err != nil {
		h.respondError(w, err)
		return
	}

	resp := scenarioResponse{
		Metrics:   calc.Metrics(),
		Scenarios: make([]calculator.Scenario, 0, len(req.PercentChanges)),
	}
	for _, pct := range req.PercentChanges {
		resp.Scenarios = append(resp.Scenarios, calc.Scenario(pct))
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetAllPositions handles GET /positions
func (h *Handler) GetAllPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.ledger.ListOpenPositions(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, positions)
}

// GetPosition handles GET /positions/{id}
func (h *Handler) GetPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := positionID(w, r)
	if !ok {
		return
	}

	position, err := h.ledger.GetPosition(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, position)
}

// OpenPosition handles POST /positions
func (h *Handler) OpenPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.ledger.OpenPosition(r.Context(), req.Ticker, req.StockPrice, req.Shares, req.TransactionFee)
	if err != nil {
		h.respondError(w, err)
		return
	}

	position, err := h.ledger.GetPosition(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, position)
}

// SellPosition handles POST /positions/{id}/sell
func (h *Handler) SellPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := positionID(w, r)
	if !ok {
		return
	}

	var req sellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	record, err := h.ledger.Sell(r.Context(), id, req.SharesSold, req.SellPrice)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, record)
}

// DeletePosition handles DELETE /positions/{id}
func (h *Handler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := positionID(w, r)
	if !ok {
		return
	}

	if err := h.ledger.DeletePosition(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetHistory handles GET /history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.ledger.ListHistory(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// GetHistorySummary handles GET /history/summary
func (h *Handler) GetHistorySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ledger.Summary(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"storage": h.ledger.StorageLocation(),
	})
}

func positionID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		http.Error(w, "invalid position id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.log.Error().Err(err).Msg("Request failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
