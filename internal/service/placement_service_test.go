package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/models"
	"github.com/noah-isme/exam-console-api/internal/upstream"
	"github.com/noah-isme/exam-console-api/pkg/config"
	appErrors "github.com/noah-isme/exam-console-api/pkg/errors"
)

type fakeScheduler struct {
	unscheduled    []models.UnscheduledCourseEntry
	exams          []models.FlatExam
	unscheduledErr error
	examsErr       error

	addResult  *upstream.PlacementResult
	addErr     error
	addCalls   int
	lastTarget models.SlotRef

	confirmErr         error
	courseGroupCalls   int
	singleGroupCalls   int
	existingGroupCalls int
	lastConfirmTarget  models.SlotRef
	lastSuggested      *models.SlotRef

	removeErr   error
	removeCalls int
}

func (f *fakeScheduler) UnscheduledExams(context.Context, string) ([]models.UnscheduledCourseEntry, error) {
	return f.unscheduled, f.unscheduledErr
}

func (f *fakeScheduler) Exams(context.Context, string, string) ([]models.FlatExam, error) {
	return f.exams, f.examsErr
}

func (f *fakeScheduler) AddExamToSlot(_ context.Context, _ string, target models.SlotRef, _ interface{}) (*upstream.PlacementResult, error) {
	f.addCalls++
	f.lastTarget = target
	if f.addErr != nil {
		return nil, f.addErr
	}
	if f.addResult != nil {
		return f.addResult, nil
	}
	return &upstream.PlacementResult{}, nil
}

func (f *fakeScheduler) ScheduleCourseGroup(_ context.Context, _ string, target models.SlotRef, _ interface{}, suggested *models.SlotRef) error {
	f.courseGroupCalls++
	f.lastConfirmTarget = target
	f.lastSuggested = suggested
	return f.confirmErr
}

func (f *fakeScheduler) ScheduleSingleGroup(_ context.Context, _ string, target models.SlotRef, _ interface{}) error {
	f.singleGroupCalls++
	f.lastConfirmTarget = target
	return f.confirmErr
}

func (f *fakeScheduler) ScheduleExistingGroup(_ context.Context, _ string, target models.SlotRef, _ interface{}) error {
	f.existingGroupCalls++
	f.lastConfirmTarget = target
	return f.confirmErr
}

func (f *fakeScheduler) RemoveScheduledExam(_ context.Context, _ string, _ string, _ models.SlotName, _, _ string) error {
	f.removeCalls++
	return f.removeErr
}

func newTestPlacement(t *testing.T, fake *fakeScheduler) (*PlacementService, *dto.SessionView) {
	t.Helper()
	svc := NewPlacementService(fake, config.SessionConfig{}, nil, zap.NewNop(), nil)
	view, err := svc.CreateSession(context.Background(), "Bearer token", dto.CreateSessionRequest{TimetableID: "tt1"})
	require.NoError(t, err)
	return svc, view
}

// assertPartition checks that every known group sits in exactly one of the
// pool and the grid.
func assertPartition(t *testing.T, svc *PlacementService, sessionID string, groupIDs ...string) {
	t.Helper()
	session, err := svc.get(sessionID)
	require.NoError(t, err)
	session.mu.Lock()
	defer session.mu.Unlock()
	for _, id := range groupIDs {
		pooled := session.pool.ContainsGroup(id)
		placed := session.grid.ContainsGroup(id)
		assert.NotEqual(t, pooled, placed, "group %s must be in exactly one of pool and grid", id)
	}
}

func TestCreateSessionBuildsPoolAndGrid(t *testing.T) {
	fake := &fakeScheduler{
		unscheduled: samplePoolEntries(),
		exams: []models.FlatExam{
			{ExamID: "e1", Date: "2026-06-01", StartTime: "08:00", EndTime: "11:00", GroupID: "g7", CourseID: "c7"},
			{ExamID: "e2", Date: "2026-06-01", StartTime: "10:15", EndTime: "12:45", GroupID: "g8", CourseID: "c8"},
		},
	}
	svc, view := newTestPlacement(t, fake)

	assert.Equal(t, models.StateIdle, view.State)
	assert.Len(t, view.Pool, 2)
	require.Len(t, view.Days, 1)
	require.Len(t, view.Unclassified, 1)
	assert.Equal(t, "e2", view.Unclassified[0].ExamID)

	assertPartition(t, svc, view.ID, "g1", "g2", "g3", "g7")
}

func TestCreateSessionUpstreamFailure(t *testing.T) {
	fake := &fakeScheduler{unscheduledErr: appErrors.ErrUpstream}
	svc := NewPlacementService(fake, config.SessionConfig{}, nil, zap.NewNop(), nil)

	_, err := svc.CreateSession(context.Background(), "", dto.CreateSessionRequest{})
	assert.Error(t, err)
}

func TestDropSingleGroupPlacedOutright(t *testing.T) {
	fake := &fakeScheduler{unscheduled: samplePoolEntries()}
	svc, view := newTestPlacement(t, fake)

	outcome, err := svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     "2026-06-01",
		Slot:    models.SlotMorning,
		Payload: dto.DragPayloadRequest{Kind: models.DragNewGroup, GroupID: "g3"},
	})
	require.NoError(t, err)
	assert.True(t, outcome.Placed)
	assert.False(t, outcome.Conflict)
	assert.Equal(t, models.StateIdle, outcome.Session.State)
	assert.False(t, outcome.Session.Busy)
	assert.Equal(t, models.SlotRef{Date: "2026-06-01", Slot: models.SlotMorning}, fake.lastTarget)

	// c2's only group left the pool, the entry goes with it.
	assert.Len(t, outcome.Session.Pool, 1)
	assertPartition(t, svc, view.ID, "g1", "g2", "g3")
}

func TestDropWholeCoursePlacesAllGroups(t *testing.T) {
	fake := &fakeScheduler{unscheduled: samplePoolEntries()}
	svc, view := newTestPlacement(t, fake)

	outcome, err := svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     "2026-06-02",
		Slot:    models.SlotAfternoon,
		Payload: dto.DragPayloadRequest{Kind: models.DragNewCourse, CourseID: "c1"},
	})
	require.NoError(t, err)
	require.True(t, outcome.Placed)

	session, err := svc.get(view.ID)
	require.NoError(t, err)
	session.mu.Lock()
	assert.Equal(t, 2, session.grid.CountExams())
	session.mu.Unlock()
	assertPartition(t, svc, view.ID, "g1", "g2", "g3")
}

func TestDropConflictDefersMutation(t *testing.T) {
	best := models.SlotRef{Date: "2026-06-03", Slot: models.SlotEvening}
	fake := &fakeScheduler{
		unscheduled: samplePoolEntries(),
		addResult: &upstream.PlacementResult{
			Conflict: true,
			Pairs: []models.ConflictPair{{
				First:  models.ConflictGroup{ID: "g1", GroupName: "A"},
				Second: models.ConflictGroup{ID: "g9", GroupName: "C"},
				Reason: "student overlap",
			}},
			Suggestions:    []models.SlotRef{best, {Date: "2026-06-04", Slot: models.SlotMorning}},
			BestSuggestion: &best,
		},
	}
	svc, view := newTestPlacement(t, fake)

	outcome, err := svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     "2026-06-01",
		Slot:    models.SlotMorning,
		Payload: dto.DragPayloadRequest{Kind: models.DragNewCourse, CourseID: "c1"},
	})
	require.NoError(t, err)
	assert.False(t, outcome.Placed)
	assert.True(t, outcome.Conflict)
	assert.Equal(t, models.StateConflictShown, outcome.Session.State)

	require.NotNil(t, outcome.Session.Conflict)
	require.NotNil(t, outcome.Session.Conflict.ChosenSlot)
	assert.Equal(t, best, *outcome.Session.Conflict.ChosenSlot, "chosen slot defaults to the best suggestion")

	// Nothing moved while the conflict is open.
	assert.Len(t, outcome.Session.Pool, 2)
	session, err := svc.get(view.ID)
	require.NoError(t, err)
	session.mu.Lock()
	assert.Equal(t, 0, session.grid.CountExams())
	session.mu.Unlock()
}

func TestChooseSlotThenConfirm(t *testing.T) {
	best := models.SlotRef{Date: "2026-06-03", Slot: models.SlotEvening}
	fake := &fakeScheduler{
		unscheduled: samplePoolEntries(),
		addResult:   &upstream.PlacementResult{Conflict: true, BestSuggestion: &best, Suggestions: []models.SlotRef{best}},
	}
	svc, view := newTestPlacement(t, fake)

	_, err := svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     "2026-06-01",
		Slot:    models.SlotMorning,
		Payload: dto.DragPayloadRequest{Kind: models.DragNewCourse, CourseID: "c1"},
	})
	require.NoError(t, err)

	chosen := models.SlotRef{Date: "2026-06-05", Slot: models.SlotAfternoon}
	updated, err := svc.ChooseSlot(view.ID, dto.ChooseSlotRequest{Date: chosen.Date, Slot: chosen.Slot})
	require.NoError(t, err)
	assert.Equal(t, models.StateConflictShown, updated.State)
	require.NotNil(t, updated.Conflict.ChosenSlot)
	assert.Equal(t, chosen, *updated.Conflict.ChosenSlot)

	confirmed, err := svc.Confirm(context.Background(), "", view.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.courseGroupCalls)
	require.NotNil(t, fake.lastSuggested)
	assert.Equal(t, chosen, *fake.lastSuggested)
	assert.Equal(t, models.SlotRef{Date: "2026-06-01", Slot: models.SlotMorning}, fake.lastConfirmTarget,
		"whole-course confirms carry the original drop target alongside the suggestion")

	assert.Equal(t, models.StateIdle, confirmed.State)
	assert.Nil(t, confirmed.Conflict)
	assert.Len(t, confirmed.Pool, 1)

	// Groups landed in the chosen slot, not the original one.
	session, err := svc.get(view.ID)
	require.NoError(t, err)
	session.mu.Lock()
	_, ref, ok := session.grid.Find("g1")
	session.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, chosen, ref)
	assertPartition(t, svc, view.ID, "g1", "g2", "g3")
}

func TestConfirmSingleGroupUsesResolvedSlot(t *testing.T) {
	best := models.SlotRef{Date: "2026-06-03", Slot: models.SlotEvening}
	fake := &fakeScheduler{
		unscheduled: samplePoolEntries(),
		addResult:   &upstream.PlacementResult{Conflict: true, BestSuggestion: &best},
	}
	svc, view := newTestPlacement(t, fake)

	_, err := svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     "2026-06-01",
		Slot:    models.SlotMorning,
		Payload: dto.DragPayloadRequest{Kind: models.DragNewGroup, GroupID: "g3"},
	})
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), "", view.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.singleGroupCalls)
	assert.Equal(t, best, fake.lastConfirmTarget, "single-group confirms aim straight at the chosen slot")
}

func TestConfirmWithoutConflict(t *testing.T) {
	fake := &fakeScheduler{unscheduled: samplePoolEntries()}
	svc, view := newTestPlacement(t, fake)

	_, err := svc.Confirm(context.Background(), "", view.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNoConflict) || appErrors.FromError(err).Code == appErrors.ErrNoConflict.Code)
}

func TestConfirmFailureKeepsConflict(t *testing.T) {
	best := models.SlotRef{Date: "2026-06-03", Slot: models.SlotEvening}
	fake := &fakeScheduler{
		unscheduled: samplePoolEntries(),
		addResult:   &upstream.PlacementResult{Conflict: true, BestSuggestion: &best},
		confirmErr:  appErrors.Clone(appErrors.ErrUpstreamReject, "slot is full"),
	}
	svc, view := newTestPlacement(t, fake)

	_, err := svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     "2026-06-01",
		Slot:    models.SlotMorning,
		Payload: dto.DragPayloadRequest{Kind: models.DragNewGroup, GroupID: "g3"},
	})
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), "", view.ID)
	require.Error(t, err)

	// Conflict state survives the failure so the user can retry or cancel.
	updated, err := svc.View(view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateConflictShown, updated.State)
	assert.NotNil(t, updated.Conflict)
	assert.False(t, updated.Busy)
	assert.Len(t, updated.Pool, 2)

	// A retry after the backend recovers goes through.
	fake.confirmErr = nil
	confirmed, err := svc.Confirm(context.Background(), "", view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateIdle, confirmed.State)
}

func TestCancelDiscardsConflictWithoutMutation(t *testing.T) {
	best := models.SlotRef{Date: "2026-06-03", Slot: models.SlotEvening}
	fake := &fakeScheduler{
		unscheduled: samplePoolEntries(),
		addResult:   &upstream.PlacementResult{Conflict: true, BestSuggestion: &best},
	}
	svc, view := newTestPlacement(t, fake)

	_, err := svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     "2026-06-01",
		Slot:    models.SlotMorning,
		Payload: dto.DragPayloadRequest{Kind: models.DragNewCourse, CourseID: "c1"},
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateIdle, cancelled.State)
	assert.Nil(t, cancelled.Conflict)
	assert.Len(t, cancelled.Pool, 2)

	session, err := svc.get(view.ID)
	require.NoError(t, err)
	session.mu.Lock()
	assert.Equal(t, 0, session.grid.CountExams())
	session.mu.Unlock()
}

func TestDropWhileConflictPending(t *testing.T) {
	best := models.SlotRef{Date: "2026-06-03", Slot: models.SlotEvening}
	fake := &fakeScheduler{
		unscheduled: samplePoolEntries(),
		addResult:   &upstream.PlacementResult{Conflict: true, BestSuggestion: &best},
	}
	svc, view := newTestPlacement(t, fake)

	_, err := svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     "2026-06-01",
		Slot:    models.SlotMorning,
		Payload: dto.DragPayloadRequest{Kind: models.DragNewCourse, CourseID: "c1"},
	})
	require.NoError(t, err)

	_, err = svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     "2026-06-01",
		Slot:    models.SlotAfternoon,
		Payload: dto.DragPayloadRequest{Kind: models.DragNewGroup, GroupID: "g3"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSessionBusy.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1, fake.addCalls, "the second drop never reaches the backend")
}

func TestDropWhileRequestInFlight(t *testing.T) {
	fake := &fakeScheduler{unscheduled: samplePoolEntries()}
	svc, view := newTestPlacement(t, fake)

	session, err := svc.get(view.ID)
	require.NoError(t, err)
	session.mu.Lock()
	session.busy = true
	session.mu.Unlock()

	_, err = svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     "2026-06-01",
		Slot:    models.SlotMorning,
		Payload: dto.DragPayloadRequest{Kind: models.DragNewGroup, GroupID: "g3"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSessionBusy.Code, appErrors.FromError(err).Code)
}

func TestDropUpstreamFailureReturnsToIdle(t *testing.T) {
	fake := &fakeScheduler{
		unscheduled: samplePoolEntries(),
		addErr:      appErrors.Clone(appErrors.ErrUpstreamReject, "group already scheduled"),
	}
	svc, view := newTestPlacement(t, fake)

	_, err := svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     "2026-06-01",
		Slot:    models.SlotMorning,
		Payload: dto.DragPayloadRequest{Kind: models.DragNewGroup, GroupID: "g3"},
	})
	require.Error(t, err)
	assert.Equal(t, "group already scheduled", appErrors.FromError(err).Message)

	updated, err := svc.View(view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateIdle, updated.State)
	assert.False(t, updated.Busy)
	assert.Len(t, updated.Pool, 2)
}

func TestDropUnknownEntities(t *testing.T) {
	fake := &fakeScheduler{unscheduled: samplePoolEntries()}
	svc, view := newTestPlacement(t, fake)

	cases := []dto.DragPayloadRequest{
		{Kind: models.DragNewCourse, CourseID: "missing"},
		{Kind: models.DragNewGroup, GroupID: "missing"},
		{Kind: models.DragExistingGroup, GroupID: "g1"}, // pooled, not placed
	}
	for _, payload := range cases {
		_, err := svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
			Day: "2026-06-01", Slot: models.SlotMorning, Payload: payload,
		})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	}

	// Failed resolution leaves the session usable.
	updated, err := svc.View(view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateIdle, updated.State)
	assert.False(t, updated.Busy)
}

func TestDropExistingGroupVacatesOrigin(t *testing.T) {
	fake := &fakeScheduler{
		exams: []models.FlatExam{
			{ExamID: "e1", Date: "2026-06-01", StartTime: "08:00", EndTime: "11:00", GroupID: "g1", CourseID: "c1"},
		},
	}
	svc, view := newTestPlacement(t, fake)

	outcome, err := svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     "2026-06-02",
		Slot:    models.SlotEvening,
		Payload: dto.DragPayloadRequest{Kind: models.DragExistingGroup, GroupID: "g1"},
	})
	require.NoError(t, err)
	require.True(t, outcome.Placed)

	session, err := svc.get(view.ID)
	require.NoError(t, err)
	session.mu.Lock()
	defer session.mu.Unlock()
	assert.Equal(t, 1, session.grid.CountExams())
	_, ref, ok := session.grid.Find("g1")
	require.True(t, ok)
	assert.Equal(t, models.SlotRef{Date: "2026-06-02", Slot: models.SlotEvening}, ref)
}

func TestRemoveExamReturnsGroupToPool(t *testing.T) {
	fake := &fakeScheduler{
		exams: []models.FlatExam{
			{ExamID: "e1", Date: "2026-06-01", StartTime: "08:00", EndTime: "11:00",
				GroupID: "g1", GroupName: "A", CourseID: "c1", CourseTitle: "Algorithms"},
		},
	}
	svc, view := newTestPlacement(t, fake)

	updated, err := svc.RemoveExam(context.Background(), "", view.ID, dto.RemoveExamRequest{
		Day: "2026-06-01", Slot: models.SlotMorning, GroupID: "g1", CourseID: "c1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.removeCalls)
	require.Len(t, updated.Pool, 1)
	assert.Equal(t, "c1", updated.Pool[0].Course.ID)
	assertPartition(t, svc, view.ID, "g1")
}

func TestRemoveExamRollsBackOnUpstreamFailure(t *testing.T) {
	fake := &fakeScheduler{
		exams: []models.FlatExam{
			{ExamID: "e1", Date: "2026-06-01", StartTime: "08:00", EndTime: "11:00",
				GroupID: "g1", GroupName: "A", CourseID: "c1", CourseTitle: "Algorithms"},
		},
		removeErr: appErrors.ErrUpstream,
	}
	svc, view := newTestPlacement(t, fake)

	_, err := svc.RemoveExam(context.Background(), "", view.ID, dto.RemoveExamRequest{
		Day: "2026-06-01", Slot: models.SlotMorning, GroupID: "g1", CourseID: "c1",
	})
	require.Error(t, err)

	// The optimistic local removal was rolled back.
	updated, err := svc.View(view.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.Pool)
	session, err := svc.get(view.ID)
	require.NoError(t, err)
	session.mu.Lock()
	assert.True(t, session.grid.ContainsGroup("g1"))
	session.mu.Unlock()
}

func TestRemoveExamUnknownSlot(t *testing.T) {
	fake := &fakeScheduler{}
	svc, view := newTestPlacement(t, fake)

	_, err := svc.RemoveExam(context.Background(), "", view.ID, dto.RemoveExamRequest{
		Day: "2026-06-01", Slot: models.SlotMorning, GroupID: "g1", CourseID: "c1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, fake.removeCalls)
}

func TestReloadRefreshesAndClearsNegotiation(t *testing.T) {
	best := models.SlotRef{Date: "2026-06-03", Slot: models.SlotEvening}
	fake := &fakeScheduler{
		unscheduled: samplePoolEntries(),
		addResult:   &upstream.PlacementResult{Conflict: true, BestSuggestion: &best},
	}
	svc, view := newTestPlacement(t, fake)

	_, err := svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     "2026-06-01",
		Slot:    models.SlotMorning,
		Payload: dto.DragPayloadRequest{Kind: models.DragNewCourse, CourseID: "c1"},
	})
	require.NoError(t, err)

	fake.exams = []models.FlatExam{
		{ExamID: "e1", Date: "2026-06-01", StartTime: "08:00", EndTime: "11:00", GroupID: "g1", CourseID: "c1"},
	}
	fake.unscheduled = samplePoolEntries()[1:]

	reloaded, err := svc.Reload(context.Background(), "", view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateIdle, reloaded.State)
	assert.Nil(t, reloaded.Conflict)
	assert.Len(t, reloaded.Pool, 1)
	require.Len(t, reloaded.Days, 1)
}

func TestFilterPool(t *testing.T) {
	fake := &fakeScheduler{unscheduled: samplePoolEntries()}
	svc, view := newTestPlacement(t, fake)

	entries, err := svc.FilterPool(view.ID, "math")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c2", entries[0].Course.ID)
}

func TestSessionNotFound(t *testing.T) {
	svc := NewPlacementService(&fakeScheduler{}, config.SessionConfig{}, nil, zap.NewNop(), nil)

	_, err := svc.View("nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSessionNotFound.Code, appErrors.FromError(err).Code)
}

func TestCloseDropsSession(t *testing.T) {
	fake := &fakeScheduler{unscheduled: samplePoolEntries()}
	svc, view := newTestPlacement(t, fake)

	svc.Close(view.ID)
	_, err := svc.View(view.ID)
	assert.Error(t, err)
}

func TestDropValidation(t *testing.T) {
	fake := &fakeScheduler{unscheduled: samplePoolEntries()}
	svc, view := newTestPlacement(t, fake)

	_, err := svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     "June 1st",
		Slot:    models.SlotMorning,
		Payload: dto.DragPayloadRequest{Kind: models.DragNewGroup, GroupID: "g3"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     "2026-06-01",
		Slot:    "Midnight",
		Payload: dto.DragPayloadRequest{Kind: models.DragNewGroup, GroupID: "g3"},
	})
	require.Error(t, err)
	assert.Equal(t, 0, fake.addCalls)
}

func TestConfirmUnknownSuggestedSlotFallsBackToTarget(t *testing.T) {
	bogus := models.SlotRef{Date: "2026-06-03", Slot: "Night"}
	fake := &fakeScheduler{
		unscheduled: samplePoolEntries(),
		addResult:   &upstream.PlacementResult{Conflict: true, BestSuggestion: &bogus, Suggestions: []models.SlotRef{bogus}},
	}
	svc, view := newTestPlacement(t, fake)

	target := models.SlotRef{Date: "2026-06-01", Slot: models.SlotMorning}
	outcome, err := svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     target.Date,
		Slot:    target.Slot,
		Payload: dto.DragPayloadRequest{Kind: models.DragNewGroup, GroupID: "g3"},
	})
	require.NoError(t, err)
	require.True(t, outcome.Conflict)
	require.NotNil(t, outcome.Session.Conflict)
	assert.Nil(t, outcome.Session.Conflict.ChosenSlot,
		"a suggestion outside the canonical slots must not become the default choice")

	confirmed, err := svc.Confirm(context.Background(), "", view.ID)
	require.NoError(t, err)
	assert.Equal(t, target, fake.lastConfirmTarget)
	assert.Equal(t, models.StateIdle, confirmed.State)

	// The group must land on the grid, never fall between pool and grid.
	session, err := svc.get(view.ID)
	require.NoError(t, err)
	session.mu.Lock()
	assert.True(t, session.grid.ContainsGroup("g3"))
	session.mu.Unlock()
	assertPartition(t, svc, view.ID, "g1", "g2", "g3")
}

func TestApplyPlacementUnknownSlotLeavesStateUntouched(t *testing.T) {
	fake := &fakeScheduler{unscheduled: samplePoolEntries()}
	svc, view := newTestPlacement(t, fake)

	session, err := svc.get(view.ID)
	require.NoError(t, err)

	session.mu.Lock()
	group, course, ok := session.pool.FindGroup("g3")
	require.True(t, ok)
	session.drag = models.NewGroupPayload(group)
	session.pending = []models.ScheduledExamEntry{{Group: group, Course: course, CourseID: group.CourseID}}
	svc.applyPlacement(session, models.SlotRef{Date: "2026-06-01", Slot: "Night"})
	stillPooled := session.pool.ContainsGroup("g3")
	placed := session.grid.ContainsGroup("g3")
	session.mu.Unlock()

	assert.True(t, stillPooled, "the pool keeps the group when the grid cannot take it")
	assert.False(t, placed)
}

func TestViewConflictDetachedFromLaterChoices(t *testing.T) {
	best := models.SlotRef{Date: "2026-06-03", Slot: models.SlotEvening}
	fake := &fakeScheduler{
		unscheduled: samplePoolEntries(),
		addResult:   &upstream.PlacementResult{Conflict: true, BestSuggestion: &best, Suggestions: []models.SlotRef{best}},
	}
	svc, view := newTestPlacement(t, fake)

	outcome, err := svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
		Day:     "2026-06-01",
		Slot:    models.SlotMorning,
		Payload: dto.DragPayloadRequest{Kind: models.DragNewCourse, CourseID: "c1"},
	})
	require.NoError(t, err)
	before := outcome.Session.Conflict
	require.NotNil(t, before)
	require.NotNil(t, before.ChosenSlot)

	chosen := models.SlotRef{Date: "2026-06-05", Slot: models.SlotAfternoon}
	_, err = svc.ChooseSlot(view.ID, dto.ChooseSlotRequest{Date: chosen.Date, Slot: chosen.Slot})
	require.NoError(t, err)

	// Views are serialized after the session lock is released, so the copy
	// handed out earlier must not see the later choice.
	assert.Equal(t, best, *before.ChosenSlot)
}

func TestSessionJanitorConcurrentWithEditing(t *testing.T) {
	fake := &fakeScheduler{
		unscheduled: samplePoolEntries(),
		addErr:      appErrors.ErrUpstream,
	}
	svc, view := newTestPlacement(t, fake)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_, _ = svc.Drop(context.Background(), "", view.ID, dto.DropRequest{
				Day:     "2026-06-01",
				Slot:    models.SlotMorning,
				Payload: dto.DragPayloadRequest{Kind: models.DragNewGroup, GroupID: "g3"},
			})
		}
	}()
	for i := 0; i < 50; i++ {
		svc.sessions.purgeExpired()
		svc.sessions.Get(view.ID)
	}
	<-done

	_, err := svc.View(view.ID)
	assert.NoError(t, err, "an active session survives the janitor")
}
