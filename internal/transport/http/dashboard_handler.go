package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"etfseasonal/internal/charts"
	apierrors "etfseasonal/internal/errors"
	"etfseasonal/internal/exporter"
	"etfseasonal/internal/middleware"
	"etfseasonal/internal/period"
	"etfseasonal/internal/services"
)

var (
	chartFormats  = []string{string(charts.FormatSVG), string(charts.FormatPNG)}
	exportFormats = []string{string(exporter.FormatCSV), string(exporter.FormatExcel), string(exporter.FormatMarkdown)}
)

// DashboardHandler serves tab renders, chart images and table exports
type DashboardHandler struct {
	service      DashboardServiceInterface
	renderer     *charts.Renderer
	exporter     *exporter.Exporter
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	service DashboardServiceInterface,
	renderer *charts.Renderer,
	exp *exporter.Exporter,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		renderer:     renderer,
		exporter:     exp,
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes, mounted under /api/dashboard
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/{tab}", func(r chi.Router) {
		r.Use(h.TabCtx)
		r.Get("/", h.GetTab)
		r.Get("/charts/{chartID}", h.GetChart)
		r.Get("/table", h.GetTable)
	})

	return r
}

// TabCtx rejects unknown tabs before the selection is parsed
func (h *DashboardHandler) TabCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := services.ParseTab(chi.URLParam(r, "tab")); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetTab handles GET /api/dashboard/{tab}
func (h *DashboardHandler) GetTab(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}

	res, err := h.service.Render(r.Context(), sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   res,
	})
}

// GetChart handles GET /api/dashboard/{tab}/charts/{chartID}?format=svg|png
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	format, ok := h.query.ValidateEnum(w, r, "format", chartFormats, string(charts.FormatSVG))
	if !ok {
		return
	}
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}
	chartID := chi.URLParam(r, "chartID")

	d, err := h.service.Chart(r.Context(), sel, chartID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	f := charts.Format(format)
	var buf bytes.Buffer
	if err := h.renderer.Render(r.Context(), d, f, &buf); err != nil {
		h.logger.ErrorContext(r.Context(), "chart render failed",
			slog.String("chart", chartID),
			slog.String("format", format),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.NewInternalError(fmt.Sprintf("failed to render chart %s", chartID)))
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GetTable handles GET /api/dashboard/{tab}/table?format=csv|xlsx|md
func (h *DashboardHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	format, ok := h.query.ValidateEnum(w, r, "format", exportFormats, string(exporter.FormatCSV))
	if !ok {
		return
	}
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}

	p, err := h.service.Table(r.Context(), sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	f := exporter.Format(format)
	var buf bytes.Buffer
	if err := h.exporter.Write(r.Context(), &buf, p, f); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.FileSystemError("export", err))
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportName(sel)+f.Extension()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// selection reads the tab from the path and the selector values from the
// query string. Series charts are given as repeated series=a,b parameters.
func (h *DashboardHandler) selection(w http.ResponseWriter, r *http.Request) (services.Selection, bool) {
	q := r.URL.Query()
	sel := services.Selection{
		Tab:       services.Tab(chi.URLParam(r, "tab")),
		Category:  q.Get("category"),
		Ticker:    q.Get("ticker"),
		YearRange: period.YearRange(q.Get("year_range")),
		Frequency: period.Family(q.Get("frequency")),
		Holiday:   q.Get("holiday"),
		TWW:       q.Get("tww"),
		Special:   period.Family(q.Get("special")),
		Group:     q.Get("group"),
		Start:     q.Get("start"),
		End:       q.Get("end"),
	}

	var ok bool
	if sel.Period, ok = h.query.ValidateInt(w, r, "period", 0, 53, 0); !ok {
		return sel, false
	}
	if sel.Overall, ok = h.query.ValidateBool(w, r, "overall", false); !ok {
		return sel, false
	}
	if sel.Weekly, ok = h.query.ValidateBool(w, r, "weekly", false); !ok {
		return sel, false
	}
	if q.Has("show_recession") {
		show, ok := h.query.ValidateBool(w, r, "show_recession", true)
		if !ok {
			return sel, false
		}
		sel.ShowRecession = &show
	}

	for _, chart := range q["series"] {
		var names []string
		for _, s := range strings.Split(chart, ",") {
			if s = strings.TrimSpace(s); s != "" {
				names = append(names, s)
			}
		}
		if len(names) > 0 {
			sel.Series = append(sel.Series, names)
		}
	}

	return sel, true
}

// exportName builds the download file name of a tab table
func exportName(sel services.Selection) string {
	parts := []string{}
	if sel.Ticker != "" {
		parts = append(parts, sel.Ticker)
	}
	parts = append(parts, string(sel.Tab))
	for _, p := range []string{string(sel.Frequency), sel.Holiday, sel.TWW, string(sel.Special), string(sel.YearRange)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "_")
}
