package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/models"
)

type schedulingLister interface {
	UnscheduledExams(ctx context.Context, auth string) ([]models.UnscheduledCourseEntry, error)
	Exams(ctx context.Context, auth, timetableID string) ([]models.FlatExam, error)
}

// DashboardService assembles the landing-page summary from the scheduling and
// occupancy views.
type DashboardService struct {
	scheduling schedulingLister
	occupancy  *OccupancyService
	logger     *zap.Logger
}

func NewDashboardService(scheduling schedulingLister, occupancy *OccupancyService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{scheduling: scheduling, occupancy: occupancy, logger: logger}
}

// Summary counts unscheduled work, placed exams and room pressure for one
// timetable.
func (s *DashboardService) Summary(ctx context.Context, auth, timetableID string) (*dto.DashboardSummary, error) {
	unscheduled, err := s.scheduling.UnscheduledExams(ctx, auth)
	if err != nil {
		return nil, err
	}
	exams, err := s.scheduling.Exams(ctx, auth, timetableID)
	if err != nil {
		return nil, err
	}
	slots, err := s.occupancy.Grouped(ctx, auth, "")
	if err != nil {
		return nil, err
	}

	summary := &dto.DashboardSummary{
		UnscheduledCourses: len(unscheduled),
		ScheduledExams:     len(exams),
		OccupiedSlots:      len(slots),
	}
	for _, entry := range unscheduled {
		summary.UnscheduledGroups += len(entry.Groups)
	}
	days := make(map[string]struct{})
	for _, exam := range exams {
		days[exam.Date] = struct{}{}
	}
	summary.DaysUsed = len(days)
	for _, slot := range slots {
		if slot.IsOvercapacity {
			summary.OvercapacitySlots++
		}
	}
	return summary, nil
}
