package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// Форматы экспорта
const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

var exportHeaders = []string{"ID назначения", "Кандидат", "Статус", "Начато", "Сдано", "Балл", "Отзыв"}

// ReportService выгружает результаты теста
type ReportService struct {
	assignmentRepo repository.AssignmentRepository
	assessmentRepo repository.AssessmentRepository
	logger         *zap.Logger
}

// NewReportService создает сервис отчетов
func NewReportService(assignmentRepo repository.AssignmentRepository, assessmentRepo repository.AssessmentRepository, logger *zap.Logger) *ReportService {
	return &ReportService{
		assignmentRepo: assignmentRepo,
		assessmentRepo: assessmentRepo,
		logger:         logger.Named("ReportService"),
	}
}

// ExportFilename возвращает имя файла выгрузки без расширения
func ExportFilename(assessmentID uint, now time.Time) string {
	return fmt.Sprintf("assessment_%d_results_%s", assessmentID, now.Format("2006-01-02"))
}

// ExportAssessmentResults пишет все назначения теста в w в формате csv или xlsx
func (s *ReportService) ExportAssessmentResults(ctx context.Context, assessmentID uint, format string, w io.Writer) error {
	if format != ExportFormatCSV && format != ExportFormatXLSX {
		return fmt.Errorf("%w: unsupported export format %q", apperrors.ErrValidation, format)
	}
	if _, err := s.assessmentRepo.GetByID(ctx, assessmentID); err != nil {
		return err
	}

	// Без пагинации: выгружаются все назначения
	assignments, _, err := s.assignmentRepo.List(ctx, repository.AssignmentFilters{AssessmentID: assessmentID}, 0, 0)
	if err != nil {
		return err
	}

	s.logger.Info("Экспорт результатов",
		zap.Uint("assessment_id", assessmentID),
		zap.String("format", format),
		zap.Int("rows", len(assignments)))

	if format == ExportFormatXLSX {
		return writeXLSX(w, assignments)
	}
	return writeCSV(w, assignments)
}

func exportRow(a entity.Assignment) []string {
	score := ""
	if a.Score != nil {
		score = strconv.Itoa(*a.Score)
	}
	feedback := ""
	if a.Feedback != nil {
		feedback = sanitizeForExcel(*a.Feedback)
	}
	return []string{
		strconv.FormatUint(uint64(a.ID), 10),
		strconv.FormatUint(uint64(a.CandidateID), 10),
		string(a.Status),
		formatTime(a.StartedAt),
		formatTime(a.CompletedAt),
		score,
		feedback,
	}
}

// writeCSV пишет CSV с BOM, чтобы Excel корректно открыл UTF-8
func writeCSV(w io.Writer, assignments []entity.Assignment) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeaders); err != nil {
		return err
	}
	for _, a := range assignments {
		if err := writer.Write(exportRow(a)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// writeXLSX пишет книгу через StreamWriter
func writeXLSX(w io.Writer, assignments []entity.Assignment) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Результаты"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	headers := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		headers[i] = h
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return err
	}

	for i, a := range assignments {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := exportRow(a)
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		// Балл пишем числом, чтобы по нему работали формулы
		if a.Score != nil {
			row[5] = *a.Score
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
