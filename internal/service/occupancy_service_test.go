package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/models"
	appErrors "github.com/noah-isme/exam-console-api/pkg/errors"
)

type fakeRooms struct {
	records       []models.RoomOccupancyRecord
	occupancyErr  error
	occupancyHits int

	changeErr   error
	changeCalls int
	lastTarget  models.RoomTarget
	lastGroup   models.DraggedCourseGroup

	students []models.Student
}

func (f *fakeRooms) Occupancies(context.Context, string, string) ([]models.RoomOccupancyRecord, error) {
	f.occupancyHits++
	return f.records, f.occupancyErr
}

func (f *fakeRooms) ChangeRoom(_ context.Context, _ string, target models.RoomTarget, group models.DraggedCourseGroup) error {
	f.changeCalls++
	f.lastTarget = target
	f.lastGroup = group
	return f.changeErr
}

func (f *fakeRooms) Students(context.Context, string, models.DraggedCourseGroup) ([]models.Student, error) {
	return f.students, nil
}

type memoryCacheRepo struct {
	values  map[string][]byte
	deletes []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.deletes = append(m.deletes, pattern)
	m.values = make(map[string][]byte)
	return nil
}

func sampleOccupancies() []models.RoomOccupancyRecord {
	return []models.RoomOccupancyRecord{
		{RoomID: "r2", RoomName: "B101", RoomCapacity: 40, Date: "2026-06-01",
			StartTime: "08:00", EndTime: "11:00", ExamID: "e3", CourseCode: "PHYS101", StudentCount: 35},
		{RoomID: "r1", RoomName: "A100", RoomCapacity: 50, Date: "2026-06-01",
			StartTime: "08:00", EndTime: "11:00", ExamID: "e1", CourseCode: "CS301", StudentCount: 30},
		{RoomID: "r1", RoomName: "A100", RoomCapacity: 50, Date: "2026-06-01",
			StartTime: "08:00", EndTime: "11:00", ExamID: "e2", CourseCode: "MATH210", StudentCount: 25},
		{RoomID: "r1", RoomName: "A100", RoomCapacity: 50, Date: "2026-06-01",
			StartTime: "13:00", EndTime: "16:00", ExamID: "e4", CourseCode: "CS240", StudentCount: 20},
	}
}

func TestGroupByRoomAndSlotAggregates(t *testing.T) {
	slots := GroupByRoomAndSlot(sampleOccupancies())
	require.Len(t, slots, 3)

	// Sorted by room name, then start time.
	assert.Equal(t, "A100", slots[0].RoomName)
	assert.Equal(t, "08:00", slots[0].StartTime)
	assert.Equal(t, "A100", slots[1].RoomName)
	assert.Equal(t, "13:00", slots[1].StartTime)
	assert.Equal(t, "B101", slots[2].RoomName)

	morning := slots[0]
	assert.Equal(t, "A100_08:00-11:00", morning.Key)
	require.Len(t, morning.Courses, 2)
	assert.Equal(t, 55, morning.TotalStudents)
	assert.True(t, morning.IsOvercapacity, "55 students exceed capacity 50")
	assert.Equal(t, "3h", morning.Duration)

	afternoon := slots[1]
	assert.Equal(t, 20, afternoon.TotalStudents)
	assert.False(t, afternoon.IsOvercapacity)

	assert.False(t, slots[2].IsOvercapacity)
}

func TestGroupByRoomAndSlotSeparatesTimeRanges(t *testing.T) {
	records := []models.RoomOccupancyRecord{
		{RoomName: "A100", RoomCapacity: 50, StartTime: "08:00", EndTime: "11:00", ExamID: "e1", StudentCount: 10},
		{RoomName: "A100", RoomCapacity: 50, StartTime: "08:00", EndTime: "10:00", ExamID: "e2", StudentCount: 10},
	}
	slots := GroupByRoomAndSlot(records)
	assert.Len(t, slots, 2, "same room with different end times stays two slots")
}

func TestGroupByRoomAndSlotEmpty(t *testing.T) {
	assert.Empty(t, GroupByRoomAndSlot(nil))
}

func TestComputeDuration(t *testing.T) {
	assert.Equal(t, "3h", ComputeDuration("08:00", "11:00"))
	assert.Equal(t, "45min", ComputeDuration("09:15", "10:00"))
	assert.Equal(t, "1h 30min", ComputeDuration("13:00", "14:30"))
	assert.Equal(t, "0min", ComputeDuration("10:00", "10:00"))
	assert.Equal(t, "", ComputeDuration("11:00", "08:00"))
	assert.Equal(t, "", ComputeDuration("bogus", "10:00"))
}

func TestRecordsServedFromCache(t *testing.T) {
	fake := &fakeRooms{records: sampleOccupancies()}
	repo := newMemoryCacheRepo()
	cacheSvc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	svc := NewOccupancyService(fake, cacheSvc, nil, zap.NewNop())

	first, err := svc.Records(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, first, 4)
	assert.Equal(t, 1, fake.occupancyHits)

	second, err := svc.Records(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, second, 4)
	assert.Equal(t, 1, fake.occupancyHits, "second read comes from cache")
}

func TestRecordsWithoutCache(t *testing.T) {
	fake := &fakeRooms{records: sampleOccupancies()}
	svc := NewOccupancyService(fake, nil, nil, zap.NewNop())

	_, err := svc.Records(context.Background(), "", "")
	require.NoError(t, err)
	_, err = svc.Records(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.occupancyHits)
}

func TestChangeRoomInvalidatesAndRefetches(t *testing.T) {
	fake := &fakeRooms{records: sampleOccupancies()}
	repo := newMemoryCacheRepo()
	cacheSvc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	svc := NewOccupancyService(fake, cacheSvc, nil, zap.NewNop())

	_, err := svc.Records(context.Background(), "", "")
	require.NoError(t, err)

	slots, err := svc.ChangeRoom(context.Background(), "", dto.ChangeRoomRequest{
		CourseGroup: models.DraggedCourseGroup{CourseID: "c1", CourseCode: "CS301", CourseTitle: "Algorithms", RoomName: "A100"},
		Target:      models.RoomTarget{RoomName: "B101", Date: "2026-06-01", StartTime: "08:00", EndTime: "11:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.changeCalls)
	assert.Equal(t, "B101", fake.lastTarget.RoomName)
	assert.Contains(t, repo.deletes, "occupancy:*")
	assert.NotEmpty(t, slots)
	assert.Equal(t, 2, fake.occupancyHits, "refetch bypasses the invalidated cache")
}

func TestChangeRoomUpstreamFailure(t *testing.T) {
	fake := &fakeRooms{changeErr: appErrors.Clone(appErrors.ErrUpstreamReject, "room occupied")}
	svc := NewOccupancyService(fake, nil, nil, zap.NewNop())

	_, err := svc.ChangeRoom(context.Background(), "", dto.ChangeRoomRequest{
		CourseGroup: models.DraggedCourseGroup{CourseID: "c1", RoomName: "A100"},
		Target:      models.RoomTarget{RoomName: "B101"},
	})
	require.Error(t, err)
	assert.Equal(t, "room occupied", appErrors.FromError(err).Message)
}

func TestStudents(t *testing.T) {
	fake := &fakeRooms{students: []models.Student{{ID: "s1", FirstName: "Ada"}}}
	svc := NewOccupancyService(fake, nil, nil, zap.NewNop())

	students, err := svc.Students(context.Background(), "", dto.StudentsRequest{
		CourseGroup: models.DraggedCourseGroup{CourseID: "c1", RoomName: "A100"},
	})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ada", students[0].FirstName)
}
