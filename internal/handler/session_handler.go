package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	contracts "freelancehub/contracts/mq"
	"freelancehub/internal/cache"
	"freelancehub/internal/repository"
	"freelancehub/internal/tracker"
	"freelancehub/pkg/mq"
)

// SessionHandler exposes the session tracker over HTTP. The identity
// comes from the X-User-ID header set by the gateway; every lookup is
// scoped to that user so a wrong owner reads as not found.
type SessionHandler struct {
	tracker   *tracker.Service
	projects  *repository.ProjectRepository
	publisher *mq.Publisher
	cache     *cache.StatsCache
	logger    *zap.Logger
}

func NewSessionHandler(
	trackerSvc *tracker.Service,
	projects *repository.ProjectRepository,
	publisher *mq.Publisher,
	statsCache *cache.StatsCache,
	logger *zap.Logger,
) *SessionHandler {
	return &SessionHandler{
		tracker:   trackerSvc,
		projects:  projects,
		publisher: publisher,
		cache:     statsCache,
		logger:    logger,
	}
}

type stopSessionRequest struct {
	Note *string `json:"note"`
}

type resumeSessionRequest struct {
	SourceIntervalID int `json:"source_interval_id" binding:"required"`
}

type updateSessionRequest struct {
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	ClearEnd        bool       `json:"clear_end"`
	Note            *string    `json:"note"`
	DurationMinutes *int       `json:"duration_minutes"`
}

// StartSession handles POST /projects/:id/sessions.
func (h *SessionHandler) StartSession(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	projectID, ok := intParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.projects.Get(c.Request.Context(), projectID, userID); err != nil {
		h.respondError(c, "StartSession", err)
		return
	}

	iv, err := h.tracker.Start(c.Request.Context(), projectID, userID)
	if err != nil {
		h.respondError(c, "StartSession", err)
		return
	}

	h.publishStarted(c, iv.ID, projectID, userID, iv.StartTime)
	c.JSON(http.StatusCreated, gin.H{"interval": iv})
}

// StopSession handles POST /projects/:id/sessions/:sessionID/stop.
func (h *SessionHandler) StopSession(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	projectID, ok := intParam(c, "id")
	if !ok {
		return
	}
	sessionID, ok := intParam(c, "sessionID")
	if !ok {
		return
	}

	var req stopSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	iv, err := h.tracker.Stop(c.Request.Context(), sessionID, projectID, userID, req.Note)
	if err != nil {
		h.respondError(c, "StopSession", err)
		return
	}

	h.cache.Invalidate(c.Request.Context(), projectID)
	c.JSON(http.StatusOK, gin.H{"interval": iv})
}

// ResumeSession handles POST /projects/:id/sessions/resume. It opens a
// fresh interval carrying the source interval's note forward.
func (h *SessionHandler) ResumeSession(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	projectID, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req resumeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_interval_id required"})
		return
	}

	iv, err := h.tracker.Resume(c.Request.Context(), req.SourceIntervalID, projectID, userID)
	if err != nil {
		h.respondError(c, "ResumeSession", err)
		return
	}

	h.publishStarted(c, iv.ID, projectID, userID, iv.StartTime)
	c.JSON(http.StatusCreated, gin.H{"interval": iv})
}

// UpdateSession handles PATCH /projects/:id/sessions/:sessionID.
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	projectID, ok := intParam(c, "id")
	if !ok {
		return
	}
	sessionID, ok := intParam(c, "sessionID")
	if !ok {
		return
	}

	var req updateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	patch := tracker.UpdatePatch{
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		ClearEnd:        req.ClearEnd,
		Note:            req.Note,
		DurationMinutes: req.DurationMinutes,
	}
	iv, err := h.tracker.Update(c.Request.Context(), sessionID, projectID, userID, patch)
	if err != nil {
		h.respondError(c, "UpdateSession", err)
		return
	}

	h.cache.Invalidate(c.Request.Context(), projectID)
	c.JSON(http.StatusOK, gin.H{"interval": iv})
}

// DeleteSession handles DELETE /projects/:id/sessions/:sessionID.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	projectID, ok := intParam(c, "id")
	if !ok {
		return
	}
	sessionID, ok := intParam(c, "sessionID")
	if !ok {
		return
	}

	if err := h.tracker.Delete(c.Request.Context(), sessionID, projectID, userID); err != nil {
		h.respondError(c, "DeleteSession", err)
		return
	}

	h.cache.Invalidate(c.Request.Context(), projectID)
	c.Status(http.StatusNoContent)
}

// publishStarted emits session.started directly. Unlike session.stopped
// this does not go through the outbox: a lost start notification has no
// billing consequence, so best effort is enough.
func (h *SessionHandler) publishStarted(c *gin.Context, intervalID, projectID, userID int, startedAt time.Time) {
	payload := contracts.SessionStartedPayload{
		IntervalID: intervalID,
		ProjectID:  projectID,
		UserID:     userID,
		StartedAt:  startedAt,
	}
	if err := h.publisher.PublishWithContext(c.Request.Context(), "session.started", payload); err != nil {
		h.logger.Warn("Failed to publish session.started",
			zap.Int("interval_id", intervalID),
			zap.Error(err),
		)
	}
}

func (h *SessionHandler) respondError(c *gin.Context, op string, err error) {
	var conflictErr *tracker.ConflictError
	var notFoundErr *tracker.NotFoundError
	var validationErr *tracker.ValidationError

	switch {
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationErr.Error()})
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// userIDFrom reads the authenticated user id injected by the gateway.
func userIDFrom(c *gin.Context) (int, bool) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header required"})
		return 0, false
	}
	userID, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid X-User-ID header"})
		return 0, false
	}
	return userID, true
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}
