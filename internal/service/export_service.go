package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-console-api/internal/models"
	appErrors "github.com/noah-isme/exam-console-api/pkg/errors"
	"github.com/noah-isme/exam-console-api/pkg/export"
)

type examLister interface {
	Exams(ctx context.Context, auth, timetableID string) ([]models.FlatExam, error)
}

// ExportService renders the scheduled timetable and the room occupancy view
// as downloadable CSV or PDF files.
type ExportService struct {
	exams     examLister
	occupancy *OccupancyService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	enabled   bool
	logger    *zap.Logger
}

// ExportFile is a rendered document plus its download metadata.
type ExportFile struct {
	Name        string
	ContentType string
	Content     []byte
}

func NewExportService(exams examLister, occupancy *OccupancyService, enabled bool, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		exams:     exams,
		occupancy: occupancy,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		enabled:   enabled,
		logger:    logger,
	}
}

func (s *ExportService) Enabled() bool {
	return s.enabled
}

// Timetable exports the scheduled exams of one timetable ordered by date,
// slot and course code.
func (s *ExportService) Timetable(ctx context.Context, auth, timetableID, format string) (*ExportFile, error) {
	exams, err := s.exams.Exams(ctx, auth, timetableID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(exams, func(i, j int) bool {
		if exams[i].Date != exams[j].Date {
			return exams[i].Date < exams[j].Date
		}
		if exams[i].StartTime != exams[j].StartTime {
			return exams[i].StartTime < exams[j].StartTime
		}
		return exams[i].CourseCode < exams[j].CourseCode
	})

	headers := []string{"Date", "Slot", "Start", "End", "Course Code", "Course Title", "Department", "Group"}
	rows := make([]map[string]string, 0, len(exams))
	for _, exam := range exams {
		slot := "Unclassified"
		if name, ok := models.ClassifySlot(exam.StartTime, exam.EndTime); ok {
			slot = string(name)
		}
		rows = append(rows, map[string]string{
			"Date":         exam.Date,
			"Slot":         slot,
			"Start":        exam.StartTime,
			"End":          exam.EndTime,
			"Course Code":  exam.CourseCode,
			"Course Title": exam.CourseTitle,
			"Department":   exam.CourseDepartment,
			"Group":        exam.GroupName,
		})
	}

	return s.render(format, "timetable", "Exam Timetable", export.Dataset{Headers: headers, Rows: rows})
}

// Occupancy exports the grouped room occupancy view, one row per room/time
// slot with its courses joined into a single cell.
func (s *ExportService) Occupancy(ctx context.Context, auth, location, format string) (*ExportFile, error) {
	slots, err := s.occupancy.Grouped(ctx, auth, location)
	if err != nil {
		return nil, err
	}

	headers := []string{"Room", "Capacity", "Date", "Start", "End", "Duration", "Courses", "Students", "Overcapacity"}
	rows := make([]map[string]string, 0, len(slots))
	for _, slot := range slots {
		codes := make([]string, 0, len(slot.Courses))
		for _, course := range slot.Courses {
			codes = append(codes, course.CourseCode)
		}
		over := "no"
		if slot.IsOvercapacity {
			over = "yes"
		}
		rows = append(rows, map[string]string{
			"Room":         slot.RoomName,
			"Capacity":     strconv.Itoa(slot.RoomCapacity),
			"Date":         slot.Date,
			"Start":        slot.StartTime,
			"End":          slot.EndTime,
			"Duration":     slot.Duration,
			"Courses":      strings.Join(codes, ", "),
			"Students":     strconv.Itoa(slot.TotalStudents),
			"Overcapacity": over,
		})
	}

	return s.render(format, "occupancy", "Room Occupancy", export.Dataset{Headers: headers, Rows: rows})
}

func (s *ExportService) render(format, name, title string, data export.Dataset) (*ExportFile, error) {
	switch strings.ToLower(format) {
	case "", "csv":
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render csv")
		}
		return &ExportFile{Name: name + ".csv", ContentType: "text/csv", Content: content}, nil
	case "pdf":
		content, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render pdf")
		}
		return &ExportFile{Name: name + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
