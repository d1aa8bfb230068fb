package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/models"
	"github.com/noah-isme/exam-console-api/pkg/cache"
	appErrors "github.com/noah-isme/exam-console-api/pkg/errors"
)

type roomsClient interface {
	Occupancies(ctx context.Context, auth, location string) ([]models.RoomOccupancyRecord, error)
	ChangeRoom(ctx context.Context, auth string, target models.RoomTarget, group models.DraggedCourseGroup) error
	Students(ctx context.Context, auth string, group models.DraggedCourseGroup) ([]models.Student, error)
}

// OccupancyService aggregates flat room/time/exam records into per-slot
// summaries for the calendar and table views, and relays room reassignments.
type OccupancyService struct {
	client    roomsClient
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOccupancyService wires the aggregator.
func NewOccupancyService(client roomsClient, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *OccupancyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OccupancyService{client: client, cache: cache, validator: validate, logger: logger}
}

// Records returns the flat occupancy rows, served from cache when possible.
func (s *OccupancyService) Records(ctx context.Context, auth, location string) ([]models.RoomOccupancyRecord, error) {
	key := cache.OccupancyKey(location)
	var cached []models.RoomOccupancyRecord
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	records, err := s.client.Occupancies(ctx, auth, location)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, records, 0); err != nil {
		s.logger.Warn("failed to cache occupancies", zap.Error(err))
	}
	return records, nil
}

// Grouped returns the per-slot aggregation for the given location.
func (s *OccupancyService) Grouped(ctx context.Context, auth, location string) ([]models.GroupedOccupancySlot, error) {
	records, err := s.Records(ctx, auth, location)
	if err != nil {
		return nil, err
	}
	return GroupByRoomAndSlot(records), nil
}

// ChangeRoom moves a course group to another room/time cell and refetches
// the full record set. Occupancy views are read-heavy, so a full refetch is
// preferred over a partial optimistic update.
func (s *OccupancyService) ChangeRoom(ctx context.Context, auth string, req dto.ChangeRoomRequest) ([]models.GroupedOccupancySlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change-room payload")
	}
	if err := s.client.ChangeRoom(ctx, auth, req.Target, req.CourseGroup); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, cache.OccupancyPattern); err != nil {
		s.logger.Warn("failed to invalidate occupancy cache", zap.Error(err))
	}
	return s.Grouped(ctx, auth, "")
}

// Students lists the students sitting a course group's exam.
func (s *OccupancyService) Students(ctx context.Context, auth string, req dto.StudentsRequest) ([]models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid students payload")
	}
	return s.client.Students(ctx, auth, req.CourseGroup)
}

// GroupByRoomAndSlot folds flat records into one summary per room and exact
// time range. Two exam sets in the same room at different times stay
// distinct slots, which is why the key combines room and both timestamps.
// Output is sorted by room name, then start time (zero-padded HH:MM makes
// lexical comparison sufficient).
func GroupByRoomAndSlot(records []models.RoomOccupancyRecord) []models.GroupedOccupancySlot {
	grouped := make(map[string]*models.GroupedOccupancySlot)
	order := make([]string, 0)

	for _, record := range records {
		key := record.RoomName + "_" + record.StartTime + "-" + record.EndTime
		slot, ok := grouped[key]
		if !ok {
			slot = &models.GroupedOccupancySlot{
				Key:          key,
				RoomID:       record.RoomID,
				RoomName:     record.RoomName,
				RoomCapacity: record.RoomCapacity,
				Date:         record.Date,
				StartTime:    record.StartTime,
				EndTime:      record.EndTime,
				Duration:     ComputeDuration(record.StartTime, record.EndTime),
			}
			grouped[key] = slot
			order = append(order, key)
		}
		slot.Courses = append(slot.Courses, models.OccupiedCourse{
			ExamID:           record.ExamID,
			CourseCode:       record.CourseCode,
			CourseTitle:      record.CourseTitle,
			CourseDepartment: record.CourseDepartment,
			CourseSemester:   record.CourseSemester,
			CourseGroup:      record.CourseGroup,
			StudentCount:     record.StudentCount,
		})
		slot.TotalStudents += record.StudentCount
		slot.IsOvercapacity = slot.TotalStudents > slot.RoomCapacity
	}

	out := make([]models.GroupedOccupancySlot, 0, len(order))
	for _, key := range order {
		out = append(out, *grouped[key])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoomName == out[j].RoomName {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].RoomName < out[j].RoomName
	})
	return out
}

// ComputeDuration renders the end−start span as "Xh Ymin", omitting the hour
// part when zero and the minutes when zero with hours present.
func ComputeDuration(start, end string) string {
	startMin, okStart := parseClock(start)
	endMin, okEnd := parseClock(end)
	if !okStart || !okEnd || endMin < startMin {
		return ""
	}
	span := endMin - startMin
	hours := span / 60
	minutes := span % 60
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dmin", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dmin", minutes)
	}
}

func parseClock(raw string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}
