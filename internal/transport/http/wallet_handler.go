package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "stockwatch/internal/errors"
	"stockwatch/internal/exporter"
	"stockwatch/internal/middleware"
	"stockwatch/internal/services"
	v1 "stockwatch/pkg/contracts/api/v1"
	"stockwatch/pkg/contracts/domain"
)

// WalletHandler handles wallet transactions, holdings and exports
type WalletHandler struct {
	service      *services.WalletService
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewWalletHandler creates a wallet handler
func NewWalletHandler(service *services.WalletService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *WalletHandler {
	return &WalletHandler{
		service:      service,
		validate:     validator.New(),
		logger:       logger.With(slog.String("component", "wallet_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the wallet routes. All of them require authentication.
func (h *WalletHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Holdings)
	r.Get("/transactions", h.History)
	r.Post("/transactions", h.CreateTransaction)
	r.Get("/export/{format}", h.Export)

	return r
}

// Holdings handles GET /api/wallet
func (h *WalletHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	holdings, err := h.service.Holdings(r.Context(), userID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, &v1.HoldingsResponse{Holdings: holdings, Count: len(holdings)})
}

// History handles GET /api/wallet/transactions
func (h *WalletHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	transactions, err := h.service.History(r.Context(), userID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, &v1.HistoryResponse{Transactions: transactions, Count: len(transactions)})
}

// CreateTransaction handles POST /api/wallet/transactions
func (h *WalletHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req v1.CreateTransactionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.errorHandler.HandleError(w, r, validationErrors(err))
		return
	}

	tx, err := h.service.Record(r.Context(), userID, req.Symbol, domain.Operation(req.Operation), req.Quantity, req.UnitPrice)
	if err != nil {
		if errors.Is(err, services.ErrInvalidOperation) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("operation", err.Error()))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, &v1.TransactionResponse{Transaction: tx})
}

// Export handles GET /api/wallet/export/{format}
func (h *WalletHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	format := chi.URLParam(r, "format")

	transactions, err := h.service.History(r.Context(), userID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filename := fmt.Sprintf("wallet-history-%s", time.Now().UTC().Format("2006-01-02"))

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, filename))
		if err := exporter.WriteHistoryCSV(w, transactions); err != nil {
			h.logger.ErrorContext(r.Context(), "csv export failed", slog.String("error", err.Error()))
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, filename))
		if err := exporter.WriteHistoryXLSX(w, transactions); err != nil {
			h.logger.ErrorContext(r.Context(), "xlsx export failed", slog.String("error", err.Error()))
		}
	default:
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "Supported formats: csv, xlsx"))
	}
}
