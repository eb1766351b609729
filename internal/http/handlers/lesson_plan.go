package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
	"github.com/yungbote/lessonplan-backend/internal/http/response"
	"github.com/yungbote/lessonplan-backend/internal/modules/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/platform/ctxutil"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

type LessonPlanHandler struct {
	svc lessonplan.Service
	log *logger.Logger
}

func NewLessonPlanHandler(svc lessonplan.Service, log *logger.Logger) *LessonPlanHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &LessonPlanHandler{svc: svc, log: log.With("handler", "LessonPlanHandler")}
}

// POST /api/lesson-plans/group-into-sessions
func (h *LessonPlanHandler) GroupIntoSessions(c *gin.Context) {
	const op = "LessonPlanHandler.GroupIntoSessions"
	var req lessonplan.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, errs.Wrap(errs.CodeValidation, op, err))
		return
	}
	out, err := h.svc.GroupIntoSessions(c.Request.Context(), req)
	if err != nil {
		h.logFailure(c, op, err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, struct {
		Success bool `json:"success"`
		*lessonplan.GroupResult
	}{Success: true, GroupResult: out})
}

type sessionSummaryRequest struct {
	SessionMapID int64 `json:"session_map_id"`
	Force        bool  `json:"force"`
}

// POST /api/lesson-plans/session-summary
func (h *LessonPlanHandler) SessionSummary(c *gin.Context) {
	const op = "LessonPlanHandler.SessionSummary"
	var req sessionSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, errs.Wrap(errs.CodeValidation, op, err))
		return
	}
	out, err := h.svc.SummarizeSession(c.Request.Context(), req.SessionMapID, req.Force)
	if err != nil {
		h.logFailure(c, op, err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, struct {
		Success bool `json:"success"`
		*lessonplan.SummaryResult
	}{Success: true, SummaryResult: out})
}

type sessionDetailRequest struct {
	SessionID int64 `json:"session_id"`
}

// POST /api/lesson-plans/session-detailed
func (h *LessonPlanHandler) SessionDetailed(c *gin.Context) {
	const op = "LessonPlanHandler.SessionDetailed"
	var req sessionDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, errs.Wrap(errs.CodeValidation, op, err))
		return
	}
	out, err := h.svc.DetailSession(c.Request.Context(), req.SessionID)
	if err != nil {
		h.logFailure(c, op, err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"success":    true,
		"from_cache": out.FromCache,
		"data": gin.H{
			"session_id": out.SessionID,
			"content":    out.Content,
		},
	})
}

// GET /api/lesson-plans/sessions/:id
func (h *LessonPlanHandler) GetSession(c *gin.Context) {
	const op = "LessonPlanHandler.GetSession"
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil {
		response.RespondAPIError(c, errs.Validation(op, "invalid session id %q", c.Param("id")))
		return
	}
	out, err := h.svc.GetSession(c.Request.Context(), id)
	if err != nil {
		h.logFailure(c, op, err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "data": out})
}

// logFailure logs server-side failures. Client errors are left to the
// request log.
func (h *LessonPlanHandler) logFailure(c *gin.Context, op string, err error) {
	switch errs.CodeOf(err) {
	case errs.CodeValidation, errs.CodeNotFound, errs.CodeConflict:
		return
	}
	fields := append([]any{"op", op, "code", string(errs.CodeOf(err)), "error", err}, ctxutil.LogFields(c.Request.Context())...)
	h.log.Warn("lesson plan request failed", fields...)
}
