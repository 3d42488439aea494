package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"zomato-dashboard/internal/engine"
	"zomato-dashboard/internal/models"
	"zomato-dashboard/internal/render"
	"zomato-dashboard/internal/storage"
)

// defaultPreviewRows is the size of the raw data preview.
const defaultPreviewRows = 5

type Handler struct {
	mu      sync.RWMutex
	store   *engine.ColumnStore
	report  *engine.LoadReport
	loadErr error
	log     *zap.Logger
}

// NewHandler returns a handler with no data. Data endpoints answer 503
// until SetStore is called.
func NewHandler(log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{log: log}
}

// SetStore publishes a loaded dataset. The store must not be mutated
// afterwards.
func (h *Handler) SetStore(cs *engine.ColumnStore, report *engine.LoadReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.store, h.report, h.loadErr = cs, report, nil
}

// SetLoadError records a failed load.
func (h *Handler) SetLoadError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loadErr = err
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	api := e.Group("/api")
	api.GET("/options", h.GetOptions)
	api.GET("/kpis", h.GetKPIs)
	api.GET("/dashboard", h.GetDashboard)
	api.GET("/rows", h.GetRows)
	api.GET("/summary", h.GetSummary)
	api.GET("/charts", h.ListCharts)
	api.GET("/charts/:name", h.GetChart)
	api.GET("/export", h.Export)
}

func (h *Handler) current() (*engine.ColumnStore, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.loadErr != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "dataset failed to load").SetInternal(h.loadErr)
	}
	if h.store == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "dataset is loading")
	}
	return h.store, nil
}

// view resolves the request's filter criteria against the current store.
func (h *Handler) view(c echo.Context) (*engine.View, error) {
	cs, err := h.current()
	if err != nil {
		return nil, err
	}
	crit, err := parseCriteria(c, cs)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return cs.Filter(crit), nil
}

// parseCriteria reads mode, category, cost_min and cost_max. Parameters
// that are not given keep the store defaults; a category parameter that is
// present but empty selects nothing.
func parseCriteria(c echo.Context, cs *engine.ColumnStore) (engine.Criteria, error) {
	crit := cs.DefaultCriteria()
	q := c.QueryParams()

	if m := strings.TrimSpace(q.Get("mode")); m != "" {
		crit.Mode = engine.OrderMode(m)
		for _, known := range engine.OrderModes {
			if strings.EqualFold(m, string(known)) {
				crit.Mode = known
			}
		}
	}

	if vals, ok := q["category"]; ok {
		crit.Categories = make([]string, 0, len(vals))
		for _, v := range vals {
			if v = strings.TrimSpace(v); v != "" {
				crit.Categories = append(crit.Categories, v)
			}
		}
	}

	var err error
	if crit.CostMin, err = floatParam(q.Get("cost_min"), crit.CostMin); err != nil {
		return crit, err
	}
	if crit.CostMax, err = floatParam(q.Get("cost_max"), crit.CostMax); err != nil {
		return crit, err
	}
	return crit, crit.Validate(cs)
}

func floatParam(raw string, fallback float64) (float64, error) {
	if raw = strings.TrimSpace(raw); raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Join(engine.ErrInvalidCriteria, err)
	}
	return v, nil
}

// --- HANDLERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handler) Health(c echo.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	resp := map[string]interface{}{
		"status": "ok",
		"ready":  h.store != nil,
	}
	if h.loadErr != nil {
		resp["status"] = "error"
		resp["error"] = h.loadErr.Error()
	}
	if h.report != nil {
		resp["rows"] = h.report.Rows
		resp["dropped"] = h.report.Dropped
		resp["rating_errors"] = h.report.RatingErrorCount
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetOptions(c echo.Context) error {
	cs, err := h.current()
	if err != nil {
		return err
	}
	def := cs.DefaultCriteria()
	modes := make([]string, len(engine.OrderModes))
	for i, m := range engine.OrderModes {
		modes[i] = string(m)
	}
	return c.JSON(http.StatusOK, models.Options{
		OrderModes: modes,
		Categories: def.Categories,
		CostMin:    def.CostMin,
		CostMax:    def.CostMax,
	})
}

func (h *Handler) GetKPIs(c echo.Context) error {
	v, err := h.view(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v.KPIs())
}

func (h *Handler) GetDashboard(c echo.Context) error {
	v, err := h.view(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v.Aggregate())
}

// raw data preview
func (h *Handler) GetRows(c echo.Context) error {
	v, err := h.view(c)
	if err != nil {
		return err
	}
	limit, offset := getPaginationParams(c, defaultPreviewRows)

	recs := v.Head(offset, limit)
	rows := make([]models.Row, len(recs))
	for i, r := range recs {
		rows[i] = toRow(r)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   rows,
		"total":  v.Len(),
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) GetSummary(c echo.Context) error {
	v, err := h.view(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v.Summary())
}

func (h *Handler) ListCharts(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"charts": render.Names()})
}

func (h *Handler) GetChart(c echo.Context) error {
	v, err := h.view(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	err = render.Render(c.Param("name"), v.Aggregate(), &buf)
	switch {
	case errors.Is(err, render.ErrNoData), errors.Is(err, render.ErrUnknownChart):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case err != nil:
		return err
	}
	return c.Blob(http.StatusOK, render.PNGContentType, buf.Bytes())
}

// Export streams the filtered rows as an Arrow IPC stream.
func (h *Handler) Export(c echo.Context) error {
	v, err := h.view(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := storage.WriteArrow(&buf, v.Records()); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="orders.arrow"`)
	h.log.Debug("export", zap.Int("rows", v.Len()), zap.Int("bytes", buf.Len()))
	return c.Blob(http.StatusOK, storage.ArrowContentType, buf.Bytes())
}

func toRow(r engine.Record) models.Row {
	row := models.Row{
		Name:        r.Name,
		OnlineOrder: r.OnlineOrder,
		BookTable:   r.BookTable,
		Category:    r.Category,
	}
	if r.HasRating() {
		row.Rating = models.Some(r.Rating)
	}
	if r.Votes != engine.MissingVotes {
		row.Votes = models.Some(float64(r.Votes))
	}
	if r.HasCost() {
		row.Cost = models.Some(r.Cost)
	}
	return row
}
