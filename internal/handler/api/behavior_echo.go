package api

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	models "TradeMirror/internal/domain/models"
	icache "TradeMirror/internal/service/cache"
	"TradeMirror/internal/service/metrics"
	"TradeMirror/internal/service/ratelimit"
	"TradeMirror/internal/services/normalize"
	"TradeMirror/internal/usecase"
	xhttp "TradeMirror/pkg/http"
	xlogger "TradeMirror/pkg/logger"

	"github.com/labstack/echo/v4"
)

// BehaviorEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type BehaviorEchoHandler struct {
	logger   *xlogger.Logger
	analyzer *usecase.BehaviorAnalyzer
	ingestor *usecase.TradeIngestor
	cache    icache.BytesCache
	sessions *icache.TTLCache
	rl       *ratelimit.Limiter

	reportTTL    time.Duration
	sessionTTL   time.Duration
	sessionLimit int
	uploadRPS    float64
	uploadBurst  float64
}

func NewBehaviorEchoHandler(logger *xlogger.Logger, analyzer *usecase.BehaviorAnalyzer, ingestor *usecase.TradeIngestor) *BehaviorEchoHandler {
	metrics.Register()
	return &BehaviorEchoHandler{
		logger:       logger,
		analyzer:     analyzer,
		ingestor:     ingestor,
		sessions:     icache.NewTTLCache(),
		rl:           ratelimit.New(),
		reportTTL:    60 * time.Second,
		sessionTTL:   time.Hour,
		sessionLimit: 50000,
		uploadRPS:    2,
		uploadBurst:  5,
	}
}

// SetCache injects a byte cache for session reports.
func (h *BehaviorEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLimits overrides report cache TTL, session fallback TTL, session read
// limit and upload rate.
func (h *BehaviorEchoHandler) SetLimits(reportTTL, fallbackTTL time.Duration, sessionLimit int, rps, burst float64) {
	if reportTTL > 0 {
		h.reportTTL = reportTTL
	}
	if fallbackTTL > 0 {
		h.sessionTTL = fallbackTTL
	}
	if sessionLimit > 0 {
		h.sessionLimit = sessionLimit
	}
	if rps > 0 {
		h.uploadRPS = rps
	}
	if burst > 0 {
		h.uploadBurst = burst
	}
}

func (h *BehaviorEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/analysis", h.Analysis)
	g.POST("/bias", h.Bias)
	g.POST("/metrics", h.Metrics)
	g.POST("/alignment", h.Alignment)
	g.POST("/timeline", h.Timeline)
	g.GET("/profiles", h.Profiles)
	g.POST("/sessions/:id/trades", h.UploadTrades)
	g.GET("/sessions/:id/report", h.SessionReport)
}

func (h *BehaviorEchoHandler) Analysis(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.BehaviorLatency.WithLabelValues("analysis").Observe(time.Since(start).Seconds()) }()

	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.analyzer.Analyze(c.Request().Context(), usecase.AnalyzeInput{
		Trades:        req.Trades,
		TargetProfile: req.TargetProfile,
		TraitScores:   req.TraitScores,
		WithTimeline:  req.WithTimeline,
	})
	if err != nil {
		metrics.BehaviorErrors.WithLabelValues("analysis").Inc()
		h.logger.Error("analysis usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, asAppError(err))
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *BehaviorEchoHandler) Bias(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.BehaviorLatency.WithLabelValues("bias").Observe(time.Since(start).Seconds()) }()

	req := &models.BiasRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analyzer.Biases(req.Trades)
	if err != nil {
		metrics.BehaviorErrors.WithLabelValues("bias").Inc()
		h.logger.Error("bias usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, asAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *BehaviorEchoHandler) Metrics(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.BehaviorLatency.WithLabelValues("metrics").Observe(time.Since(start).Seconds()) }()

	req := &models.MetricsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	raw, normalized, err := h.analyzer.Metrics(req.Trades)
	if err != nil {
		metrics.BehaviorErrors.WithLabelValues("metrics").Inc()
		h.logger.Error("metrics usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, asAppError(err))
	}
	return xhttp.SuccessResponse(c, echo.Map{"metrics": raw, "normalized": normalized})
}

func (h *BehaviorEchoHandler) Alignment(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.BehaviorLatency.WithLabelValues("alignment").Observe(time.Since(start).Seconds()) }()

	req := &models.AlignmentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Vector == nil && len(req.Trades) == 0 {
		return xhttp.BadRequestResponse(c, "either vector or trades is required")
	}

	var res *models.AlignmentResult
	var err error
	if req.Vector != nil {
		res, err = h.analyzer.AlignVector(c.Request().Context(), *req.Vector, req.TargetProfile)
	} else {
		res, err = h.analyzer.AlignTrades(c.Request().Context(), req.Trades, req.TargetProfile)
	}
	if err != nil {
		metrics.BehaviorErrors.WithLabelValues("alignment").Inc()
		h.logger.Error("alignment usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, asAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *BehaviorEchoHandler) Timeline(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.BehaviorLatency.WithLabelValues("timeline").Observe(time.Since(start).Seconds()) }()

	req := &models.TimelineRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analyzer.Timeline(req.Trades)
	if err != nil {
		metrics.BehaviorErrors.WithLabelValues("timeline").Inc()
		h.logger.Error("timeline usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, asAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *BehaviorEchoHandler) Profiles(c echo.Context) error {
	ps, err := h.analyzer.Profiles(c.Request().Context())
	if err != nil {
		metrics.BehaviorErrors.WithLabelValues("profiles").Inc()
		h.logger.Error("profiles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, asAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, echo.Map{"profiles": ps})
}

// UploadTrades ingests a trade file (CSV or JSON) into a session.
func (h *BehaviorEchoHandler) UploadTrades(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.BehaviorLatency.WithLabelValues("upload").Observe(time.Since(start).Seconds()) }()

	sessionID := c.Param("id")
	if sessionID == "" {
		return xhttp.BadRequestResponse(c, "session id required")
	}
	if !h.rl.Allow(sessionID+":upload", h.uploadBurst, h.uploadRPS) {
		h.logger.Warn("upload rate_limited", xlogger.String("session", sessionID))
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "too many uploads", 429))
	}

	var res *normalize.Result
	var err error
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.Contains(ct, "text/csv") || strings.Contains(ct, "application/csv") {
		res, err = normalize.FromCSV(c.Request().Body)
	} else {
		res, err = normalize.FromJSON(c.Request().Body)
	}
	if err != nil {
		metrics.BehaviorErrors.WithLabelValues("upload").Inc()
		h.logger.Warn("upload parse error", xlogger.Error(err))
		return xhttp.BadRequestResponse(c, err.Error())
	}
	if len(res.Trades) == 0 {
		return xhttp.BadRequestResponse(c, "no usable trades in upload")
	}

	// keep a TTL-bounded copy so reports survive a backend outage
	h.rememberSession(sessionID, res.Trades)

	if err := h.ingestor.IngestBatch(c.Request().Context(), sessionID, res.Trades); err != nil {
		metrics.BehaviorErrors.WithLabelValues("upload").Inc()
		h.logger.Error("upload ingest error", xlogger.Error(err), xlogger.String("session", sessionID))
		return xhttp.AppErrorResponse(c, asAppError(err))
	}

	h.logger.Info("trades ingested",
		xlogger.String("session", sessionID),
		xlogger.Int("accepted", len(res.Trades)),
		xlogger.Int("dropped", res.Dropped),
	)
	return xhttp.CreatedResponse(c, echo.Map{
		"sessionId": sessionID,
		"accepted":  len(res.Trades),
		"dropped":   res.Dropped,
	})
}

// SessionReport loads a session's stored trades and runs the full analysis.
// Reports are cached per (session, profile) for the configured TTL.
func (h *BehaviorEchoHandler) SessionReport(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.BehaviorLatency.WithLabelValues("report").Observe(time.Since(start).Seconds()) }()

	sessionID := c.Param("id")
	if sessionID == "" {
		return xhttp.BadRequestResponse(c, "session id required")
	}
	profile := c.QueryParam("profile")
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), h.sessionLimit)
	if limit <= 0 || limit > h.sessionLimit {
		limit = h.sessionLimit
	}
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), time.Time{})
	to, hasTo := xhttp.ParseTime(c.QueryParam("to"))

	cacheKey := "report:" + sessionID + ":" + profile + ":" + c.QueryParam("from") + ":" + c.QueryParam("to")
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("report cache_get_error", xlogger.Error(err))
		} else if ok {
			var cached models.BehaviorReport
			if err := json.Unmarshal(b, &cached); err == nil {
				h.logger.Debug("report cache_hit", xlogger.String("key", cacheKey))
				return xhttp.SuccessResponse(c, &cached)
			}
		}
	}

	trades, err := h.ingestor.Trades(c.Request().Context(), sessionID, limit)
	if err != nil {
		h.logger.Warn("report store unavailable, using session fallback",
			xlogger.Error(err), xlogger.String("session", sessionID))
		trades = h.recallSession(sessionID, limit)
		if len(trades) == 0 {
			metrics.BehaviorErrors.WithLabelValues("report").Inc()
			return xhttp.AppErrorResponse(c, asAppError(err))
		}
	}
	if len(trades) == 0 {
		trades = h.recallSession(sessionID, limit)
	}
	trades = windowTrades(trades, from, to, hasTo)
	if len(trades) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no trades for session %s", sessionID))
	}

	report, err := h.analyzer.Analyze(c.Request().Context(), usecase.AnalyzeInput{
		Trades:        trades,
		TargetProfile: profile,
		WithTimeline:  true,
	})
	if err != nil {
		metrics.BehaviorErrors.WithLabelValues("report").Inc()
		h.logger.Error("report usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, asAppError(err))
	}

	if h.cache != nil {
		if b, err := json.Marshal(report); err == nil {
			if err := h.cache.SetBytes(cacheKey, b, h.reportTTL); err != nil {
				h.logger.Warn("report cache_set_error", xlogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, report)
}

// windowTrades keeps trades inside the optional [from, to] bounds.
func windowTrades(trades []models.Trade, from, to time.Time, hasTo bool) []models.Trade {
	if from.IsZero() && !hasTo {
		return trades
	}
	out := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if !from.IsZero() && t.TS.Before(from) {
			continue
		}
		if hasTo && t.TS.After(to) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (h *BehaviorEchoHandler) rememberSession(sessionID string, trades []models.Trade) {
	existing := h.recallSession(sessionID, 0)
	h.sessions.Set("session:"+sessionID, append(existing, trades...), h.sessionTTL)
}

func (h *BehaviorEchoHandler) recallSession(sessionID string, limit int) []models.Trade {
	v, ok := h.sessions.Get("session:" + sessionID)
	if !ok {
		return nil
	}
	trades, ok := v.([]models.Trade)
	if !ok {
		return nil
	}
	if limit > 0 && len(trades) > limit {
		trades = trades[:limit]
	}
	return trades
}

// asAppError maps plain usecase errors onto AppError so the response envelope
// carries a useful status instead of a blanket 500.
func asAppError(err error) error {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no trades"):
		return xhttp.BadRequestError(msg)
	case strings.Contains(msg, "unknown reference profile"):
		return xhttp.NotFoundError(msg)
	default:
		return xhttp.InternalError(msg)
	}
}
