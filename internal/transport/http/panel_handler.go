package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "finpanel/internal/errors"
	"finpanel/internal/exporter"
	"finpanel/internal/middleware"
	"finpanel/internal/panel"
	"finpanel/internal/prompt"
	"finpanel/internal/services"
	"finpanel/pkg/contracts/domain"
)

// Fiscal years accepted by the years filter
const (
	minYear = 1900
	maxYear = 2100
)

// PanelHandler serves panel rows, exports and prompt payloads
type PanelHandler struct {
	service      PanelServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validation   *middleware.ValidationMiddleware
	query        *middleware.QueryParamValidator
}

// NewPanelHandler creates a new panel handler with RFC 7807 error handling
func NewPanelHandler(service PanelServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PanelHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &PanelHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "panel_handler")),
		errorHandler: errorHandler,
		validation:   middleware.NewValidationMiddleware(logger, errorHandler),
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
	}
}

// Routes returns the /api/panel routes
func (h *PanelHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetRows)
	r.Get("/columns", h.GetColumns)
	r.Get("/sectors", h.GetSectors)
	r.Route("/sectors/{sector}", func(r chi.Router) {
		r.Use(h.SectorCtx)
		r.Get("/", h.GetSector)
		r.Get("/latest", h.GetSectorLatest)
	})
	r.Get("/series", h.GetSeries)
	r.Get("/export", h.Export)
	r.Get("/summary", h.GetSummary)

	return r
}

// SectorCtx validates the sector URL parameter
func (h *PanelHandler) SectorCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sector := strings.TrimSpace(chi.URLParam(r, "sector"))
		if sector == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("sector", "Sector is required"))
			return
		}
		if len(sector) > 64 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("sector", "Sector name is too long"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetRows handles GET /api/panel
func (h *PanelHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	q, ok := h.panelQuery(w, r)
	if !ok {
		return
	}

	rows, err := h.service.Rows(r.Context(), q)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"rows":  nonNilRows(rows),
		"count": len(rows),
	})
}

// GetColumns handles GET /api/panel/columns
func (h *PanelHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"columns": h.service.Columns(),
	})
}

// GetSectors handles GET /api/panel/sectors
func (h *PanelHandler) GetSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := h.service.Sectors(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if sectors == nil {
		sectors = []services.SectorInfo{}
	}
	render.JSON(w, r, map[string]interface{}{
		"sectors": sectors,
		"count":   len(sectors),
	})
}

// GetSector handles GET /api/panel/sectors/{sector}
func (h *PanelHandler) GetSector(w http.ResponseWriter, r *http.Request) {
	sector := strings.TrimSpace(chi.URLParam(r, "sector"))

	info, err := h.service.Sector(r.Context(), sector)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// GetSectorLatest handles GET /api/panel/sectors/{sector}/latest
func (h *PanelHandler) GetSectorLatest(w http.ResponseWriter, r *http.Request) {
	sector := strings.TrimSpace(chi.URLParam(r, "sector"))

	rows, err := h.service.SectorLatest(r.Context(), sector)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"sector": sector,
		"rows":   nonNilRows(rows),
		"count":  len(rows),
	})
}

type seriesPoint struct {
	PeriodEnd string                 `json:"period_end"`
	Values    map[string]interface{} `json:"values"`
}

// GetSeries handles GET /api/panel/series
func (h *PanelHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	q, ok := h.panelQuery(w, r)
	if !ok {
		return
	}

	columns := splitList(r.URL.Query().Get("columns"))
	if len(columns) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("columns", "columns is required"))
		return
	}

	points, err := h.service.Series(r.Context(), q, columns)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"columns": columns,
		"points":  toSeriesPoints(points),
	})
}

// Export handles GET /api/panel/export
func (h *PanelHandler) Export(w http.ResponseWriter, r *http.Request) {
	name, ok := h.query.ValidateEnum(w, r, "format", []string{string(exporter.FormatCSV), string(exporter.FormatXLSX)}, string(exporter.FormatCSV))
	if !ok {
		return
	}
	format, err := exporter.ParseFormat(name)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}
	q, ok := h.panelQuery(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	count, err := h.service.Export(r.Context(), &buf, format, q)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "panel exported",
		slog.String("format", string(format)),
		slog.Int("rows", count),
		slog.Int("bytes", buf.Len()),
	)

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName("sector_panel")))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Row-Count", strconv.Itoa(count))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted", slog.String("error", err.Error()))
	}
}

// GetSummary handles GET /api/panel/summary
func (h *PanelHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.LastRun(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// promptParams carries the prompt selection from the query string or a JSON body
type promptParams struct {
	Sector  string `json:"sector" validate:"omitempty,max=64"`
	Company string `json:"company" validate:"omitempty,max=64,excludesall=;<>"`
	Topic   string `json:"topic" validate:"omitempty,topic"`
	Scope   string `json:"scope" validate:"omitempty,scope"`
}

type promptResponse struct {
	Scope    prompt.Scope     `json:"scope"`
	Topic    prompt.Topic     `json:"topic"`
	Sector   string           `json:"sector,omitempty"`
	Company  string           `json:"company,omitempty"`
	System   string           `json:"system"`
	Data     json.RawMessage  `json:"data"`
	Messages []prompt.Message `json:"messages"`
}

// GetPrompt handles GET /api/prompt
func (h *PanelHandler) GetPrompt(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := promptParams{
		Sector:  strings.TrimSpace(query.Get("sector")),
		Company: strings.TrimSpace(query.Get("company")),
		Topic:   strings.TrimSpace(query.Get("topic")),
		Scope:   strings.TrimSpace(query.Get("scope")),
	}
	req, ok := h.promptRequest(w, r, params)
	if !ok {
		return
	}

	p, err := h.service.Prompt(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, promptResponse{
		Scope:    req.Scope,
		Topic:    req.Topic,
		Sector:   req.Sector,
		Company:  req.Company,
		System:   p.System,
		Data:     p.Data,
		Messages: p.Messages(),
	})
}

// PostAnalyze handles POST /api/analyze
func (h *PanelHandler) PostAnalyze(w http.ResponseWriter, r *http.Request) {
	var params promptParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	req, ok := h.promptRequest(w, r, params)
	if !ok {
		return
	}

	text, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"scope":    req.Scope,
		"topic":    req.Topic,
		"sector":   req.Sector,
		"company":  req.Company,
		"analysis": text,
	})
}

// InvalidateCache handles POST /api/cache/invalidate
func (h *PanelHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	stats := h.service.Invalidate(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status": "invalidated",
		"cache":  stats,
	})
}

// GetCacheStats handles GET /api/cache
func (h *PanelHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.CacheStats())
}

// promptRequest validates params and resolves topic and scope
func (h *PanelHandler) promptRequest(w http.ResponseWriter, r *http.Request, params promptParams) (prompt.Request, bool) {
	if err := h.validation.ValidateStruct(params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return prompt.Request{}, false
	}

	topic, err := prompt.ParseTopic(params.Topic)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("topic", err.Error()))
		return prompt.Request{}, false
	}
	scope := prompt.ScopeCompany
	if params.Scope != "" {
		if scope, err = prompt.ParseScope(params.Scope); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("scope", err.Error()))
			return prompt.Request{}, false
		}
	}

	if scope == prompt.ScopeCompany {
		switch {
		case params.Sector == "":
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("sector", "sector is required for company scope"))
			return prompt.Request{}, false
		case params.Company == "":
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("company", "company is required for company scope"))
			return prompt.Request{}, false
		case topic == prompt.TopicAll:
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("topic", "company scope needs a single topic"))
			return prompt.Request{}, false
		}
	}

	return prompt.Request{
		Sector:  params.Sector,
		Company: params.Company,
		Topic:   topic,
		Scope:   scope,
	}, true
}

// panelQuery reads the sector, company and years filters
func (h *PanelHandler) panelQuery(w http.ResponseWriter, r *http.Request) (services.PanelQuery, bool) {
	years, ok := h.query.ValidateIntList(w, r, "years", minYear, maxYear)
	if !ok {
		return services.PanelQuery{}, false
	}
	query := r.URL.Query()
	return services.PanelQuery{
		Sector:  strings.TrimSpace(query.Get("sector")),
		Company: strings.TrimSpace(query.Get("company")),
		Years:   years,
	}, true
}

// handleServiceError maps panel service errors to API errors
func (h *PanelHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		h.errorHandler.HandleError(w, r, apierrors.ErrDocumentNotFound)
	case errors.Is(err, services.ErrUnknownSector):
		h.errorHandler.HandleError(w, r, apierrors.New(http.StatusNotFound, "SECTOR_NOT_FOUND", err.Error()))
	case errors.Is(err, services.ErrUnknownCompany):
		h.errorHandler.HandleError(w, r, apierrors.New(http.StatusNotFound, "COMPANY_NOT_FOUND", err.Error()))
	case errors.Is(err, services.ErrUnknownColumn):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("columns", err.Error()))
	case errors.Is(err, services.ErrNoRows):
		h.errorHandler.HandleError(w, r, apierrors.New(http.StatusNotFound, "NO_ROWS", err.Error()))
	case errors.Is(err, services.ErrAnalyzerNotConfigured):
		h.errorHandler.HandleError(w, r, apierrors.ErrNotConfigured)
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

func nonNilRows(rows []domain.PanelRow) []domain.PanelRow {
	if rows == nil {
		return []domain.PanelRow{}
	}
	return rows
}

func toSeriesPoints(points []panel.SeriesPoint) []seriesPoint {
	out := make([]seriesPoint, 0, len(points))
	for _, p := range points {
		values := make(map[string]interface{}, len(p.Values))
		for col, v := range p.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				values[col] = nil
				continue
			}
			values[col] = v
		}
		out = append(out, seriesPoint{
			PeriodEnd: p.PeriodEnd.Format(domain.PeriodEndLayout),
			Values:    values,
		})
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
