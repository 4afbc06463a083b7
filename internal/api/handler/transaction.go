// internal/api/handler/transaction.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/souma9830/WalletWise/internal/service"
	"github.com/souma9830/WalletWise/internal/util"
)

// DefaultTimeout bounds request handling end to end.
const DefaultTimeout = 30 * time.Second

const dateLayout = "2006-01-02"

var (
	ledgerMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "walletwise_ledger_mutations_total",
		Help: "Total ledger mutations processed, labeled by operation and outcome",
	}, []string{"operation", "outcome"})

	ledgerMutationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "walletwise_ledger_mutation_duration_seconds",
		Help:    "Latency distribution of ledger mutations",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"operation"})

	sweepMaterializedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "walletwise_recurrence_materialized_total",
		Help: "Total transactions materialized from recurring templates",
	})
)

// TransactionHandler handles HTTP requests for the transactional ledger.
type TransactionHandler struct {
	service service.LedgerService
	engine  *service.RecurrenceEngine
	logger  *slog.Logger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(svc service.LedgerService, engine *service.RecurrenceEngine, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		service: svc,
		engine:  engine,
		logger:  logger,
	}
}

func (h *TransactionHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func (h *TransactionHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"
	var body map[string]interface{}

	var verr *util.ValidationError
	switch {
	case errors.As(err, &verr):
		statusCode = http.StatusBadRequest
		body = map[string]interface{}{"error": "Validation error", "errors": verr.Violations}
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrConflict):
		statusCode = http.StatusConflict
		message = "Concurrent modification, retry the request"
	case util.IsError(err, util.ErrAtomicityUnsupported):
		statusCode = http.StatusInternalServerError
		message = "Store does not support atomic commits; check deployment configuration"
		h.logger.Error("Atomicity unsupported", "error", err)
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	if body == nil {
		body = map[string]interface{}{"error": message}
	}
	h.respondWithJSON(w, statusCode, body)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// CreateTransactionRequest is the request body for adding a transaction.
type CreateTransactionRequest struct {
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Category          string          `json:"category"`
	Description       string          `json:"description"`
	PaymentMethod     string          `json:"paymentMethod"`
	Mood              string          `json:"mood"`
	Date              *time.Time      `json:"date"`
	IsRecurring       bool            `json:"isRecurring"`
	RecurringInterval string          `json:"recurringInterval"`
}

// Create handles POST /transactions.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(ledgerMutationDuration.WithLabelValues("add"))
	defer timer.ObserveDuration()

	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondWithJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	tx, err := h.service.AddTransaction(r.Context(), userID, service.CreateTransactionInput{
		Type:              req.Type,
		Amount:            req.Amount,
		Category:          req.Category,
		Description:       req.Description,
		PaymentMethod:     req.PaymentMethod,
		Mood:              req.Mood,
		Date:              req.Date,
		IsRecurring:       req.IsRecurring,
		RecurringInterval: req.RecurringInterval,
	})
	ledgerMutationsTotal.WithLabelValues("add", outcome(err)).Inc()
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Transaction added successfully",
		"transaction": tx,
	})
}

// UpdateTransactionRequest carries partial updates; absent fields are left
// untouched.
type UpdateTransactionRequest struct {
	Type              *string          `json:"type"`
	Amount            *decimal.Decimal `json:"amount"`
	Category          *string          `json:"category"`
	Description       *string          `json:"description"`
	PaymentMethod     *string          `json:"paymentMethod"`
	Mood              *string          `json:"mood"`
	Date              *time.Time       `json:"date"`
	IsRecurring       *bool            `json:"isRecurring"`
	RecurringInterval *string          `json:"recurringInterval"`
}

// Update handles PUT /transactions/{transactionID}.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(ledgerMutationDuration.WithLabelValues("update"))
	defer timer.ObserveDuration()

	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondWithJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	tx, err := h.service.UpdateTransaction(r.Context(), userID, chi.URLParam(r, "transactionID"), service.UpdateTransactionInput{
		Type:              req.Type,
		Amount:            req.Amount,
		Category:          req.Category,
		Description:       req.Description,
		PaymentMethod:     req.PaymentMethod,
		Mood:              req.Mood,
		Date:              req.Date,
		IsRecurring:       req.IsRecurring,
		RecurringInterval: req.RecurringInterval,
	})
	ledgerMutationsTotal.WithLabelValues("update", outcome(err)).Inc()
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Transaction updated successfully",
		"transaction": tx,
	})
}

// Delete handles DELETE /transactions/{transactionID}.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(ledgerMutationDuration.WithLabelValues("delete"))
	defer timer.ObserveDuration()

	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondWithJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	tx, err := h.service.DeleteTransaction(r.Context(), userID, chi.URLParam(r, "transactionID"))
	ledgerMutationsTotal.WithLabelValues("delete", outcome(err)).Inc()
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Transaction deleted successfully",
		"transaction": tx,
	})
}

// List handles GET /transactions. The recurrence sweep for the requesting
// user runs first so due templates show up in the listing they just
// affected; a sweep failure degrades to serving the listing as-is.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondWithJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	params, err := parseListParams(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	materialized, err := h.engine.SweepUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("recurrence sweep failed on listing path", "userId", userID, "error", err)
	}
	sweepMaterializedTotal.Add(float64(materialized))

	page, err := h.service.ListTransactions(r.Context(), userID, params)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": page.Transactions,
		"total":        page.Total,
		"page":         page.Page,
		"pages":        page.Pages,
		"limit":        page.Limit,
	})
}

// GetWalletBalance handles GET /wallet/balance.
func (h *TransactionHandler) GetWalletBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondWithJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	balance, err := h.service.GetWalletBalance(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"walletBalance": balance,
	})
}

func parseListParams(r *http.Request) (service.ListParams, error) {
	query := r.URL.Query()
	verr := &util.ValidationError{}

	params := service.ListParams{
		Search: query.Get("search"),
		Type:   query.Get("type"),
		Sort:   query.Get("sort"),
	}

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			verr.Add("page", "must be an integer >= 1")
		} else {
			params.Page = page
		}
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			verr.Add("limit", "must be an integer >= 1")
		} else {
			params.Limit = limit
		}
	}
	if raw := query.Get("startDate"); raw != "" {
		start, err := time.Parse(dateLayout, raw)
		if err != nil {
			verr.Add("startDate", "must be a date in YYYY-MM-DD form")
		} else {
			params.StartDate = &start
		}
	}
	if raw := query.Get("endDate"); raw != "" {
		end, err := time.Parse(dateLayout, raw)
		if err != nil {
			verr.Add("endDate", "must be a date in YYYY-MM-DD form")
		} else {
			params.EndDate = &end
		}
	}

	if err := verr.OrNil(); err != nil {
		return service.ListParams{}, err
	}
	return params, nil
}
