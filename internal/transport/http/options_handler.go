package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "etfseasonal/internal/errors"
)

// OptionsHandler serves the selector metadata
type OptionsHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewOptionsHandler creates a new options handler
func NewOptionsHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *OptionsHandler {
	return &OptionsHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "options_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the options routes, mounted under /api/options
func (h *OptionsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.GetOptions)
	r.Get("/tickers", h.GetTickers)
	return r
}

// GetOptions handles GET /api/options
func (h *OptionsHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Options(r.Context()),
	})
}

// GetTickers handles GET /api/options/tickers?category=
func (h *OptionsHandler) GetTickers(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("category", "category is required"))
		return
	}

	tickers, err := h.service.Tickers(r.Context(), category)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "tickers listed",
		slog.String("category", category),
		slog.Int("count", len(tickers)))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"category": category,
			"tickers":  tickers,
		},
	})
}
