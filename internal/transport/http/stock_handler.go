package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "stockwatch/internal/errors"
	"stockwatch/internal/services"
	v1 "stockwatch/pkg/contracts/api/v1"
)

// StockHandler handles tracked stocks and quote lookups
type StockHandler struct {
	service      *services.StockService
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewStockHandler creates a stock handler
func NewStockHandler(service *services.StockService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *StockHandler {
	return &StockHandler{
		service:      service,
		validate:     validator.New(),
		logger:       logger.With(slog.String("component", "stock_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the stock routes
func (h *StockHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.Post("/", h.Track)

	r.Route("/{symbol}", func(r chi.Router) {
		r.Use(h.SymbolCtx)
		r.Get("/", h.Get)
		r.Delete("/", h.Untrack)
		r.Get("/quote", h.Quote)
	})

	return r
}

// SymbolCtx validates the symbol URL parameter
func (h *StockHandler) SymbolCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := chi.URLParam(r, "symbol")
		if symbol == "" || len(symbol) > 10 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("symbol", "Invalid stock symbol"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// List handles GET /api/stocks
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.service.List(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, &v1.StockListResponse{Stocks: stocks, Count: len(stocks)})
}

// Track handles POST /api/stocks
func (h *StockHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req v1.TrackStockRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.errorHandler.HandleError(w, r, validationErrors(err))
		return
	}

	stock, err := h.service.Track(r.Context(), req.Symbol)
	if err != nil {
		h.handleServiceError(w, r, req.Symbol, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, &v1.StockResponse{Stock: stock})
}

// Get handles GET /api/stocks/{symbol}
func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	stock, err := h.service.Get(r.Context(), symbol)
	if err != nil {
		h.handleServiceError(w, r, symbol, err)
		return
	}
	render.JSON(w, r, &v1.StockResponse{Stock: stock})
}

// Untrack handles DELETE /api/stocks/{symbol}
func (h *StockHandler) Untrack(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	if err := h.service.Untrack(r.Context(), symbol); err != nil {
		h.handleServiceError(w, r, symbol, err)
		return
	}
	render.NoContent(w, r)
}

// Quote handles GET /api/stocks/{symbol}/quote
func (h *StockHandler) Quote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	quote, err := h.service.GetQuote(r.Context(), symbol)
	if err != nil {
		h.handleServiceError(w, r, symbol, err)
		return
	}
	render.JSON(w, r, &v1.QuoteResponse{Quote: quote})
}

func (h *StockHandler) handleServiceError(w http.ResponseWriter, r *http.Request, symbol string, err error) {
	switch {
	case errors.Is(err, services.ErrStockNotFound):
		h.errorHandler.HandleError(w, r, apierrors.ErrStockNotFound)
	case errors.Is(err, services.ErrStockExists):
		h.errorHandler.HandleError(w, r, apierrors.New(http.StatusConflict, "CONFLICT", "Stock is already tracked"))
	case errors.Is(err, services.ErrQuoteUnavailable):
		h.errorHandler.HandleError(w, r, apierrors.ScrapeError(symbol, err))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
