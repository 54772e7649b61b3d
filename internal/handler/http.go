package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/romanzh1/practice-srs/internal/models"
	"github.com/romanzh1/practice-srs/pkg/utils"
)

type Service interface {
	LogProblem(ctx context.Context, problem *models.Problem) (*models.Problem, error)
	GetProblem(ctx context.Context, ownerID, problemID string) (*models.Problem, error)
	OptInRevision(ctx context.Context, ownerID, problemID string) (*models.RevisionRecord, error)
	OptOutRevision(ctx context.Context, ownerID, problemID string) (int, error)
	GetDueAndUpcoming(ctx context.Context, ownerID string, now time.Time) (*models.DueAndUpcoming, error)
	CompleteRevision(ctx context.Context, recordID int64, ownerID, notes string, timeTaken *int) (*models.RevisionRecord, error)
	SaveReminderSubscription(ctx context.Context, ownerID string, chatID int64, enabled bool) (*models.ReminderSubscription, error)
}

type HTTPHandler struct {
	service Service
	secret  []byte
	now     func() time.Time
}

func NewHTTPHandler(service Service, jwtSecret string) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		secret:  []byte(jwtSecret),
		now:     utils.NowUTC,
	}
}

// NewServer builds the echo instance with access logging and every route registered.
func NewServer(h *HTTPHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			zap.L().Info("request", fields...)
			return nil
		},
	}))

	h.Register(e)
	return e
}

func (h *HTTPHandler) Register(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1", h.requireOwner)
	api.POST("/problems", h.logProblem)
	api.GET("/problems/:id", h.getProblem)
	api.POST("/problems/:id/revision", h.optIn)
	api.DELETE("/problems/:id/revision", h.optOut)
	api.GET("/revisions", h.dueAndUpcoming)
	api.POST("/revisions/:id/complete", h.complete)
	api.PUT("/reminders", h.saveReminders)
}

type errorResponse struct {
	Error string `json:"error"`
}

type logProblemRequest struct {
	Name              string     `json:"name"`
	Platform          string     `json:"platform"`
	Difficulty        string     `json:"difficulty"`
	Topic             string     `json:"topic"`
	Status            string     `json:"status"`
	DateSolved        *time.Time `json:"dateSolved"`
	MarkedForRevision bool       `json:"markedForRevision"`
}

type completeRequest struct {
	PerformanceNotes string `json:"performanceNotes"`
	TimeTaken        *int   `json:"timeTaken"`
}

type remindersRequest struct {
	TelegramChatID int64 `json:"telegramChatId"`
	Enabled        bool  `json:"enabled"`
}

type revisionView struct {
	*models.RevisionRecord
	ScheduledDay string `json:"scheduledDay"`
	Overdue      bool   `json:"overdue"`
}

type dueAndUpcomingResponse struct {
	Today    []revisionView       `json:"today"`
	Upcoming []revisionView       `json:"upcoming"`
	Stats    models.RevisionStats `json:"stats"`
}

func (h *HTTPHandler) logProblem(c echo.Context) error {
	var req logProblemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "name is required"})
	}

	problem := &models.Problem{
		OwnerID:           ownerFrom(c),
		Name:              req.Name,
		Platform:          req.Platform,
		Difficulty:        req.Difficulty,
		Topic:             req.Topic,
		Status:            lo.Ternary(req.Status == "", "Solved", req.Status),
		MarkedForRevision: req.MarkedForRevision,
	}
	if req.DateSolved != nil {
		problem.DateSolved = *req.DateSolved
	}

	created, err := h.service.LogProblem(c.Request().Context(), problem)
	if err != nil {
		return h.internalError(c, "log problem", err)
	}

	return c.JSON(http.StatusCreated, created)
}

func (h *HTTPHandler) getProblem(c echo.Context) error {
	problem, err := h.service.GetProblem(c.Request().Context(), ownerFrom(c), c.Param("id"))
	if err != nil {
		var notFound *models.NotFoundError
		if errors.As(err, &notFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "problem not found"})
		}
		return h.internalError(c, "get problem", err)
	}

	return c.JSON(http.StatusOK, problem)
}

func (h *HTTPHandler) optIn(c echo.Context) error {
	record, err := h.service.OptInRevision(c.Request().Context(), ownerFrom(c), c.Param("id"))
	if err != nil {
		var (
			notFound *models.NotFoundError
			already  *models.AlreadyScheduledError
		)
		switch {
		case errors.As(err, &already):
			return c.JSON(http.StatusConflict, errorResponse{Error: "already marked for revision"})
		case errors.As(err, &notFound):
			return c.JSON(http.StatusNotFound, errorResponse{Error: "problem not found"})
		}
		return h.internalError(c, "opt in revision", err)
	}

	return c.JSON(http.StatusCreated, record)
}

func (h *HTTPHandler) optOut(c echo.Context) error {
	deleted, err := h.service.OptOutRevision(c.Request().Context(), ownerFrom(c), c.Param("id"))
	if err != nil {
		return h.internalError(c, "opt out revision", err)
	}

	return c.JSON(http.StatusOK, map[string]int{"deleted": deleted})
}

func (h *HTTPHandler) dueAndUpcoming(c echo.Context) error {
	now, err := utils.ToUserTimezone(h.now().UTC(), c.QueryParam("tz"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown timezone"})
	}

	due, err := h.service.GetDueAndUpcoming(c.Request().Context(), ownerFrom(c), now)
	if err != nil {
		return h.internalError(c, "get due revisions", err)
	}

	toView := func(record *models.RevisionRecord, _ int) revisionView {
		scheduled := record.ScheduledDate.In(now.Location())
		return revisionView{
			RevisionRecord: record,
			ScheduledDay:   scheduled.Format(time.DateOnly),
			Overdue:        scheduled.Before(now) && !utils.DatesEqual(scheduled, now),
		}
	}

	return c.JSON(http.StatusOK, dueAndUpcomingResponse{
		Today:    lo.Map(due.Today, toView),
		Upcoming: lo.Map(due.Upcoming, toView),
		Stats:    due.Stats,
	})
}

func (h *HTTPHandler) complete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid revision id"})
	}

	var req completeRequest
	if err = c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.TimeTaken != nil && *req.TimeTaken < 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "timeTaken must not be negative"})
	}

	record, err := h.service.CompleteRevision(c.Request().Context(), id, ownerFrom(c), req.PerformanceNotes, req.TimeTaken)
	if err != nil {
		var notFound *models.NotFoundError
		if errors.As(err, &notFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "this item is no longer pending"})
		}
		return h.internalError(c, "complete revision", err)
	}

	return c.JSON(http.StatusOK, record)
}

func (h *HTTPHandler) saveReminders(c echo.Context) error {
	var req remindersRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Enabled && req.TelegramChatID == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "telegramChatId is required"})
	}

	sub, err := h.service.SaveReminderSubscription(c.Request().Context(), ownerFrom(c), req.TelegramChatID, req.Enabled)
	if err != nil {
		return h.internalError(c, "save reminder subscription", err)
	}

	return c.JSON(http.StatusOK, sub)
}

func (h *HTTPHandler) internalError(c echo.Context, op string, err error) error {
	zap.L().Error("failed to "+op,
		zap.String("owner_id", ownerFrom(c)),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
