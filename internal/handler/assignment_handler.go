package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/assessment-api/internal/handler/dto"
	"github.com/yourusername/assessment-api/internal/middleware"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
	"github.com/yourusername/assessment-api/internal/service"
)

// Ключ контекста для :id назначения
const assignmentIDKey = "assignmentID"

// AssignmentHandler обрабатывает запросы кандидата
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
	logger            *zap.Logger
}

// NewAssignmentHandler создает обработчик запросов кандидата
func NewAssignmentHandler(assignmentService *service.AssignmentService, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		logger:            logger.Named("AssignmentHandler"),
	}
}

// ListMine возвращает назначения текущего кандидата
// GET /api/assignments
func (h *AssignmentHandler) ListMine(c *gin.Context) {
	candidateID, ok := h.candidateID(c)
	if !ok {
		return
	}

	assignments, err := h.assignmentService.ListForCandidate(c.Request.Context(), candidateID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListAssignmentResponse(assignments))
}

// Get возвращает назначение с тестом и оставшимся временем (для опроса таймера)
// GET /api/assignments/:id
func (h *AssignmentHandler) Get(c *gin.Context) {
	candidateID, ok := h.candidateID(c)
	if !ok {
		return
	}
	assignmentID := c.MustGet(assignmentIDKey).(uint)

	view, err := h.assignmentService.GetForCandidate(c.Request.Context(), assignmentID, candidateID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCandidateAssignmentResponse(view))
}

// Start начинает попытку
// POST /api/assignments/:id/start
func (h *AssignmentHandler) Start(c *gin.Context) {
	candidateID, ok := h.candidateID(c)
	if !ok {
		return
	}
	assignmentID := c.MustGet(assignmentIDKey).(uint)

	if _, err := h.assignmentService.Start(c.Request.Context(), assignmentID, candidateID); err != nil {
		h.fail(c, err)
		return
	}

	// Отдаем вид с вопросами и таймером, чтобы клиент не делал второй запрос
	view, err := h.assignmentService.GetForCandidate(c.Request.Context(), assignmentID, candidateID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCandidateAssignmentResponse(view))
}

// SubmitMCQ сдает ответы MCQ-теста
// POST /api/assignments/:id/submit/mcq
func (h *AssignmentHandler) SubmitMCQ(c *gin.Context) {
	candidateID, ok := h.candidateID(c)
	if !ok {
		return
	}
	assignmentID := c.MustGet(assignmentIDKey).(uint)

	var req dto.SubmitMCQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "invalid_request"})
		return
	}

	assignment, err := h.assignmentService.SubmitMCQ(c.Request.Context(), assignmentID, candidateID, req.ToMCQ())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAssignmentResponse(assignment))
}

// SubmitFillInBlanks сдает ответы теста с пропусками
// POST /api/assignments/:id/submit/fill-in-blanks
func (h *AssignmentHandler) SubmitFillInBlanks(c *gin.Context) {
	candidateID, ok := h.candidateID(c)
	if !ok {
		return
	}
	assignmentID := c.MustGet(assignmentIDKey).(uint)

	var req dto.SubmitFillInBlanksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "invalid_request"})
		return
	}

	assignment, err := h.assignmentService.SubmitFillInBlanks(c.Request.Context(), assignmentID, candidateID, req.ToFillInBlanks())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAssignmentResponse(assignment))
}

// SubmitVideo сдает ссылки на видеоответы
// POST /api/assignments/:id/submit/video
func (h *AssignmentHandler) SubmitVideo(c *gin.Context) {
	candidateID, ok := h.candidateID(c)
	if !ok {
		return
	}
	assignmentID := c.MustGet(assignmentIDKey).(uint)

	var req dto.SubmitVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "invalid_request"})
		return
	}

	assignment, err := h.assignmentService.SubmitVideo(c.Request.Context(), assignmentID, candidateID, req.ToVideo())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAssignmentResponse(assignment))
}

// SaveDraft сохраняет промежуточные ответы
// PUT /api/assignments/:id/draft
func (h *AssignmentHandler) SaveDraft(c *gin.Context) {
	candidateID, ok := h.candidateID(c)
	if !ok {
		return
	}
	assignmentID := c.MustGet(assignmentIDKey).(uint)

	var req dto.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "invalid_request"})
		return
	}

	if err := h.assignmentService.SaveDraft(c.Request.Context(), assignmentID, candidateID, req.ToResponses()); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetDraft возвращает сохраненный черновик
// GET /api/assignments/:id/draft
func (h *AssignmentHandler) GetDraft(c *gin.Context) {
	candidateID, ok := h.candidateID(c)
	if !ok {
		return
	}
	assignmentID := c.MustGet(assignmentIDKey).(uint)

	draft, err := h.assignmentService.GetDraft(c.Request.Context(), assignmentID, candidateID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// candidateID берет идентификатор кандидата, положенный AuthMiddleware
func (h *AssignmentHandler) candidateID(c *gin.Context) (uint, bool) {
	raw, exists := c.Get(middleware.ContextUserID)
	userID, ok := raw.(uint)
	if !exists || !ok || userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperrors.ErrUnauthorized.Error(), "error_type": "token_missing"})
		return 0, false
	}
	return userID, true
}

func (h *AssignmentHandler) fail(c *gin.Context, err error) {
	handleAssignmentError(c, middleware.LoggerFrom(c, h.logger), err)
}
