package respond

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/oshokin/accirescue/internal/broadcast"
	domain "github.com/oshokin/accirescue/internal/domain/alert"
	"github.com/oshokin/accirescue/internal/logger"
	"github.com/oshokin/accirescue/internal/repository/records"
)

// Service abstracts the business operations the gateway depends on.
type Service interface {
	Respond(ctx context.Context, submission domain.Submission) (*domain.Verdict, error)
	OpenAlert(ctx context.Context, at domain.Location) (*domain.Alert, []*domain.NotificationRecord)
	State(ctx context.Context) *domain.LockState
	Records(ctx context.Context, alertID string) ([]*domain.NotificationRecord, error)
	Subscribe(kind string) *broadcast.Observer
	Unsubscribe(o *broadcast.Observer)
	Observers() int
}

// messageInternal hides unexpected failures from responders.
const messageInternal = "Internal server error"

// DefaultKeepAlive is the SSE comment and WebSocket ping interval.
const DefaultKeepAlive = 30 * time.Second

//go:embed page.html
var waitingPage string

var defaultCORSConfig = middleware.CORSConfig{
	AllowOrigins: []string{"*"},
	AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept},
}

// Gateway serves the responder HTTP API.
type Gateway struct {
	// service resolves submissions and owns the observer hub.
	service Service
	// keepAlive is the idle interval of realtime connections.
	keepAlive time.Duration
	// echo routes requests.
	echo *echo.Echo
}

// Option configures the gateway.
type Option func(*Gateway)

// WithKeepAlive overrides DefaultKeepAlive.
func WithKeepAlive(interval time.Duration) Option {
	return func(g *Gateway) {
		if interval > 0 {
			g.keepAlive = interval
		}
	}
}

// New builds the gateway and registers its routes.
func New(ctx context.Context, service Service, opts ...Option) *Gateway {
	g := &Gateway{
		service:   service,
		keepAlive: DefaultKeepAlive,
		echo:      echo.New(),
	}

	for _, opt := range opts {
		opt(g)
	}

	e := g.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(defaultCORSConfig))
	e.Use(requestLogger(ctx))

	e.GET("/", g.handleWaiting)
	e.POST("/", g.handleRespond)
	e.GET("/events", g.handleEvents)
	e.GET("/ws", g.handleWebSocket)
	e.POST("/alerts", g.handleOpenAlert)
	e.GET("/alerts/:id/records", g.handleRecords)
	e.GET("/state", g.handleState)
	e.GET("/health", g.handleHealth)

	return g
}

// Handler returns the routed HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return g.echo
}

// Start listens on address and blocks until the server stops.
// A graceful Shutdown makes it return nil.
func (g *Gateway) Start(address string) error {
	if err := g.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.echo.Shutdown(ctx)
}

// messageResponse is the body of every submission answer.
type messageResponse struct {
	Message string `json:"message"`
}

// submissionRequest accepts the identity under the names responder pages use.
type submissionRequest struct {
	ResponderID   string `json:"responderId" form:"responderId"`
	ResponderKey  string `json:"responder_id" form:"responder_id"`
	ResponderRole string `json:"responder_role" form:"responder_role"`
	Decision      string `json:"decision" form:"decision"`
	Response      string `json:"response" form:"response"`
}

// submission picks the first identity and decision that were provided.
func (r *submissionRequest) submission() domain.Submission {
	return domain.Submission{
		ResponderID: firstNonEmpty(r.ResponderID, r.ResponderKey, r.ResponderRole),
		Decision:    firstNonEmpty(r.Decision, r.Response),
	}
}

// handleWaiting serves the neutral view shown before any submission.
func (g *Gateway) handleWaiting(c echo.Context) error {
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML) {
		return c.HTML(http.StatusOK, waitingPage)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: domain.MessageWaiting})
}

// handleRespond resolves a submission.
func (g *Gateway) handleRespond(c echo.Context) error {
	var req submissionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
	}

	submission := req.submission()
	if strings.TrimSpace(submission.ResponderID) == "" {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: domain.MessageRoleRequired})
	}

	verdict, err := g.service.Respond(c.Request().Context(), submission)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: verdict.Message()})
}

// openAlertRequest is the body of POST /alerts.
type openAlertRequest struct {
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lon"`
}

// openAlertResponse describes the opened alert.
type openAlertResponse struct {
	AlertID  string    `json:"alert_id"`
	OpenedAt time.Time `json:"opened_at"`
	Notified int       `json:"notified"`
	Failed   int       `json:"failed"`
}

// handleOpenAlert starts a new alert cycle.
func (g *Gateway) handleOpenAlert(c echo.Context) error {
	var req openAlertRequest
	if err := c.Bind(&req); err != nil || req.Latitude == nil || req.Longitude == nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Location is required"})
	}

	alert, sent := g.service.OpenAlert(c.Request().Context(), domain.Location{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})

	resp := openAlertResponse{
		AlertID:  alert.ID,
		OpenedAt: alert.OpenedAt,
	}

	for _, record := range sent {
		if strings.HasPrefix(record.Status, domain.StatusFailedPrefix) {
			resp.Failed++
		} else {
			resp.Notified++
		}
	}

	return c.JSON(http.StatusCreated, resp)
}

// stateResponse is the body of GET /state.
type stateResponse struct {
	AlertID    string     `json:"alert_id"`
	IsLocked   bool       `json:"is_locked"`
	AcceptedBy string     `json:"accepted_by,omitempty"`
	OpenedAt   *time.Time `json:"opened_at,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
}

// handleState returns the arbitration snapshot.
func (g *Gateway) handleState(c echo.Context) error {
	state := g.service.State(c.Request().Context())

	resp := stateResponse{
		AlertID:    state.AlertID,
		IsLocked:   state.IsLocked,
		AcceptedBy: state.AcceptedBy,
	}

	if !state.OpenedAt.IsZero() {
		resp.OpenedAt = &state.OpenedAt
	}

	if !state.DecidedAt.IsZero() {
		resp.DecidedAt = &state.DecidedAt
	}

	return c.JSON(http.StatusOK, resp)
}

// recordsResponse is the body of GET /alerts/:id/records.
type recordsResponse struct {
	AlertID string                       `json:"alert_id"`
	Records []*domain.NotificationRecord `json:"records"`
}

// handleRecords returns the notification log of one alert: dispatch attempts
// followed by resolved submissions.
func (g *Gateway) handleRecords(c echo.Context) error {
	ctx := c.Request().Context()
	alertID := strings.TrimSpace(c.Param("id"))

	list, err := g.service.Records(ctx, alertID)
	switch {
	case records.IsNotFound(err):
		return c.JSON(http.StatusNotFound, messageResponse{Message: "No records for alert " + alertID})
	case err != nil:
		logger.ErrorKV(ctx, "Failed to list records", "alert_id", alertID, "error", err)

		return c.JSON(http.StatusInternalServerError, messageResponse{Message: messageInternal})
	}

	return c.JSON(http.StatusOK, recordsResponse{AlertID: alertID, Records: list})
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status    string `json:"status"`
	Observers int    `json:"observers"`
}

func (g *Gateway) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "ok", Observers: g.service.Observers()})
}

// writeError maps the domain error taxonomy to status codes.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.JSON(http.StatusForbidden, messageResponse{Message: err.Error()})
	default:
		logger.ErrorKV(c.Request().Context(), "Failed to resolve submission", "error", err)

		return c.JSON(http.StatusInternalServerError, messageResponse{Message: messageInternal})
	}
}

// requestLogger logs every request through the context logger.
func requestLogger(ctx context.Context) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.DebugKV(ctx, "HTTP request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
			)

			return nil
		},
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}
