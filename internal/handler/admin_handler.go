package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/handler/dto"
	"github.com/yourusername/assessment-api/internal/middleware"
	"github.com/yourusername/assessment-api/internal/service"
	"github.com/yourusername/assessment-api/internal/service/scoring"
)

// Ключ контекста для :id теста
const assessmentIDKey = "assessmentID"

// AdminHandler обрабатывает административные запросы: назначение, проверка, выгрузка
type AdminHandler struct {
	assignmentService *service.AssignmentService
	reportService     *service.ReportService
	clock             service.Clock
	logger            *zap.Logger
}

// NewAdminHandler создает обработчик администратора
func NewAdminHandler(assignmentService *service.AssignmentService, reportService *service.ReportService, clock service.Clock, logger *zap.Logger) *AdminHandler {
	if clock == nil {
		clock = service.SystemClock{}
	}
	return &AdminHandler{
		assignmentService: assignmentService,
		reportService:     reportService,
		clock:             clock,
		logger:            logger.Named("AdminHandler"),
	}
}

// Assign назначает тест кандидату
// POST /api/admin/assignments
func (h *AdminHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "invalid_request"})
		return
	}

	assignment, err := h.assignmentService.Assign(c.Request.Context(), req.CandidateID, req.AssessmentID, req.ScheduledFor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewAssignmentResponse(assignment))
}

// GetAssignment возвращает назначение с ответами, правильными ответами и разбивкой
// GET /api/admin/assignments/:id
func (h *AdminHandler) GetAssignment(c *gin.Context) {
	assignmentID := c.MustGet(assignmentIDKey).(uint)

	view, err := h.assignmentService.GetAssignment(c.Request.Context(), assignmentID)
	if err != nil {
		h.fail(c, err)
		return
	}

	var breakdown *scoring.Result
	if !view.Assignment.Responses.IsEmpty() {
		breakdown, err = scoring.Detail(view.Assessment, view.Assignment.Responses)
		if err != nil {
			// Разбивка вспомогательная: ответ отдаем и без нее
			h.logger.Warn("Не удалось построить разбивку баллов", zap.Uint("assignment_id", assignmentID), zap.Error(err))
			breakdown = nil
		}
	}

	c.JSON(http.StatusOK, dto.NewAdminAssignmentResponse(view, breakdown))
}

// ListByAssessment возвращает пагинированный список назначений теста
// GET /api/admin/assessments/:id/assignments?status=&page=&page_size=
func (h *AdminHandler) ListByAssessment(c *gin.Context) {
	assessmentID := c.MustGet(assessmentIDKey).(uint)

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	status := entity.AssignmentStatus(c.Query("status"))

	assignments, total, err := h.assignmentService.ListByAssessment(c.Request.Context(), assessmentID, status, pageSize, (page-1)*pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedAssignmentResponse(assignments, total, page, pageSize))
}

// ExportResults выгружает результаты теста в CSV или Excel
// GET /api/admin/assessments/:id/results/export?format=csv|xlsx
func (h *AdminHandler) ExportResults(c *gin.Context) {
	assessmentID := c.MustGet(assessmentIDKey).(uint)
	format := c.DefaultQuery("format", service.ExportFormatCSV)

	// Пишем в буфер: при ошибке посреди выгрузки клиент получит JSON, а не обрезанный файл
	var buf bytes.Buffer
	if err := h.reportService.ExportAssessmentResults(c.Request.Context(), assessmentID, format, &buf); err != nil {
		h.fail(c, err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == service.ExportFormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	filename := service.ExportFilename(assessmentID, h.clock.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.%s\"", filename, format))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// Review завершает проверку назначения
// POST /api/admin/assignments/:id/review
func (h *AdminHandler) Review(c *gin.Context) {
	assignmentID := c.MustGet(assignmentIDKey).(uint)
	reviewerID := c.GetUint(middleware.ContextUserID)

	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "invalid_request"})
		return
	}

	assignment, err := h.assignmentService.Review(c.Request.Context(), assignmentID, reviewerID, req.Feedback, req.Score)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAssignmentResponse(assignment))
}

// AmendFeedback исправляет отзыв проверенного назначения
// PUT /api/admin/assignments/:id/feedback
func (h *AdminHandler) AmendFeedback(c *gin.Context) {
	assignmentID := c.MustGet(assignmentIDKey).(uint)
	reviewerID := c.GetUint(middleware.ContextUserID)

	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "invalid_request"})
		return
	}

	assignment, err := h.assignmentService.AmendFeedback(c.Request.Context(), assignmentID, reviewerID, req.Feedback, req.Score)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAssignmentResponse(assignment))
}

func (h *AdminHandler) fail(c *gin.Context, err error) {
	handleAssignmentError(c, middleware.LoggerFrom(c, h.logger), err)
}
