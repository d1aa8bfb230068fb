package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/models"
	"github.com/noah-isme/exam-console-api/internal/upstream"
	"github.com/noah-isme/exam-console-api/pkg/config"
	appErrors "github.com/noah-isme/exam-console-api/pkg/errors"
)

type schedulerClient interface {
	UnscheduledExams(ctx context.Context, auth string) ([]models.UnscheduledCourseEntry, error)
	Exams(ctx context.Context, auth, timetableID string) ([]models.FlatExam, error)
	AddExamToSlot(ctx context.Context, auth string, target models.SlotRef, courseGroup interface{}) (*upstream.PlacementResult, error)
	ScheduleCourseGroup(ctx context.Context, auth string, target models.SlotRef, courseGroup interface{}, suggested *models.SlotRef) error
	ScheduleSingleGroup(ctx context.Context, auth string, target models.SlotRef, courseGroup interface{}) error
	ScheduleExistingGroup(ctx context.Context, auth string, target models.SlotRef, courseGroup interface{}) error
	RemoveScheduledExam(ctx context.Context, auth string, day string, slot models.SlotName, groupID, courseID string) error
}

type sessionGauge interface {
	SetActiveSessions(count int)
}

// PlacementService hosts the manual timetable editing sessions and runs the
// drag-and-drop placement negotiation against the scheduler backend.
type PlacementService struct {
	client    schedulerClient
	sessions  *sessionStore
	cleanup   time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	gauge     sessionGauge
}

// NewPlacementService wires the negotiator's dependencies.
func NewPlacementService(client schedulerClient, cfg config.SessionConfig, validate *validator.Validate, logger *zap.Logger, gauge sessionGauge) *PlacementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cleanup := cfg.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &PlacementService{
		client:    client,
		sessions:  newSessionStore(cfg.TTL),
		cleanup:   cleanup,
		validator: validate,
		logger:    logger,
		gauge:     gauge,
	}
}

// Start launches the session janitor. It returns when ctx is cancelled.
func (s *PlacementService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cleanup)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.sessions.purgeExpired(); removed > 0 {
					s.logger.Info("expired editing sessions purged", zap.Int("count", removed))
				}
				s.reportSessions()
			}
		}
	}()
}

func (s *PlacementService) reportSessions() {
	if s.gauge != nil {
		s.gauge.SetActiveSessions(s.sessions.Len())
	}
}

// CreateSession loads the unscheduled pool and the scheduled grid from the
// backend and opens a fresh editing session around them.
func (s *PlacementService) CreateSession(ctx context.Context, auth string, req dto.CreateSessionRequest) (*dto.SessionView, error) {
	entries, err := s.client.UnscheduledExams(ctx, auth)
	if err != nil {
		return nil, err
	}
	exams, err := s.client.Exams(ctx, auth, req.TimetableID)
	if err != nil {
		return nil, err
	}

	grid := NewGrid()
	unclassified := grid.Load(exams)
	if len(unclassified) > 0 {
		s.logger.Warn("exams outside canonical slot windows",
			zap.Int("count", len(unclassified)), zap.String("timetable_id", req.TimetableID))
	}

	now := time.Now().UTC()
	session := &Session{
		ID:           uuid.NewString(),
		TimetableID:  req.TimetableID,
		state:        models.StateIdle,
		pool:         NewPool(entries),
		grid:         grid,
		unclassified: unclassified,
		createdAt:    now,
		lastUsed:     now,
	}
	s.sessions.Save(session)
	s.reportSessions()

	session.mu.Lock()
	defer session.mu.Unlock()
	return s.viewLocked(session), nil
}

// View returns the current session state.
func (s *PlacementService) View(sessionID string) (*dto.SessionView, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return s.viewLocked(session), nil
}

// FilterPool returns the pool entries matching the search term.
func (s *PlacementService) FilterPool(sessionID, term string) ([]models.UnscheduledCourseEntry, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.pool.Filter(term), nil
}

// Drop runs the tentative placement for a dragged entity. It either places
// the groups outright, or parks the session behind a conflict until the user
// confirms or cancels. No pool or grid mutation happens on the conflict path.
func (s *PlacementService) Drop(ctx context.Context, auth, sessionID string, req dto.DropRequest) (*dto.DropOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drop payload")
	}
	if !models.ValidSlotName(req.Slot) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown slot name "+string(req.Slot))
	}
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	target := models.SlotRef{Date: req.Day, Slot: req.Slot}
	wire, err := s.beginDrop(session, req.Payload, target)
	if err != nil {
		return nil, err
	}

	result, callErr := s.client.AddExamToSlot(ctx, auth, target, wire)

	session.mu.Lock()
	defer session.mu.Unlock()
	session.busy = false
	session.lastUsed = time.Now().UTC()

	if callErr != nil {
		// Transport or business failure: nothing was mutated, back to idle.
		session.clearNegotiation()
		return nil, callErr
	}

	if result.Conflict {
		resolution := &models.ConflictResolution{
			Pairs:          result.Pairs,
			Suggestions:    result.Suggestions,
			BestSuggestion: result.BestSuggestion,
		}
		// A suggestion outside the canonical slots cannot be rendered on the
		// grid; leave ChosenSlot unset so confirm aims at the original drop
		// target instead.
		if result.BestSuggestion != nil {
			if models.ValidSlotName(result.BestSuggestion.Slot) {
				chosen := *result.BestSuggestion
				resolution.ChosenSlot = &chosen
			} else {
				s.logger.Warn("backend suggested an unknown slot",
					zap.String("slot", string(result.BestSuggestion.Slot)),
					zap.String("session_id", session.ID))
			}
		}
		session.conflict = resolution
		session.state = models.StateConflictShown
		return &dto.DropOutcome{Conflict: true, Session: s.viewLocked(session)}, nil
	}

	s.applyPlacement(session, target)
	session.clearNegotiation()
	return &dto.DropOutcome{Placed: true, Session: s.viewLocked(session)}, nil
}

// beginDrop resolves the dragged entity against the session under its lock,
// stashes the drag payload plus the entries a success will insert, and marks
// the session busy for the duration of the upstream call.
func (s *PlacementService) beginDrop(session *Session, payload dto.DragPayloadRequest, target models.SlotRef) (interface{}, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.busy {
		return nil, appErrors.FromError(appErrors.ErrSessionBusy)
	}
	if session.state != models.StateIdle {
		return nil, appErrors.Clone(appErrors.ErrSessionBusy, "a conflict resolution is pending; confirm or cancel it first")
	}

	var wire interface{}
	switch payload.Kind {
	case models.DragNewCourse:
		entry, ok := session.pool.FindCourse(payload.CourseID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found in unscheduled pool")
		}
		session.drag = models.NewCoursePayload(entry)
		session.pending = entriesForCourse(entry)
		wire = session.drag.Course
	case models.DragNewGroup:
		group, course, ok := session.pool.FindGroup(payload.GroupID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found in unscheduled pool")
		}
		session.drag = models.NewGroupPayload(group)
		session.pending = []models.ScheduledExamEntry{{Group: group, Course: course, CourseID: group.CourseID}}
		wire = session.drag.Group
	case models.DragExistingGroup:
		entry, origin, ok := session.grid.Find(payload.GroupID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found on the timetable")
		}
		session.drag = models.ExistingGroupPayload(entry, origin)
		session.pending = []models.ScheduledExamEntry{entry}
		wire = session.drag.Existing
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown drag payload kind")
	}

	session.target = &target
	session.busy = true
	session.state = models.StateRequesting
	session.lastUsed = time.Now().UTC()
	return wire, nil
}

// ChooseSlot updates the slot a pending conflict will be confirmed against.
func (s *PlacementService) ChooseSlot(sessionID string, req dto.ChooseSlotRequest) (*dto.SessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot choice")
	}
	if !models.ValidSlotName(req.Slot) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown slot name "+string(req.Slot))
	}
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.state != models.StateConflictShown || session.conflict == nil {
		return nil, appErrors.FromError(appErrors.ErrNoConflict)
	}
	session.conflict.ChosenSlot = &models.SlotRef{Date: req.Date, Slot: req.Slot}
	session.lastUsed = time.Now().UTC()
	return s.viewLocked(session), nil
}

// Confirm re-issues the scheduling request against the chosen slot (or the
// original drop target) and applies the mutation that was deferred while the
// conflict was shown. On failure the conflict state is kept so the user can
// retry instead of redoing the whole drag.
func (s *PlacementService) Confirm(ctx context.Context, auth, sessionID string) (*dto.SessionView, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	if session.busy {
		session.mu.Unlock()
		return nil, appErrors.FromError(appErrors.ErrSessionBusy)
	}
	if session.state != models.StateConflictShown || session.conflict == nil || session.drag == nil || session.target == nil {
		session.mu.Unlock()
		return nil, appErrors.FromError(appErrors.ErrNoConflict)
	}
	kind := session.drag.Kind
	original := *session.target
	resolved := session.conflict.Target(original)
	chosen := session.conflict.ChosenSlot
	wire := wirePayload(session.drag)
	session.busy = true
	session.state = models.StateConfirming
	session.mu.Unlock()

	var callErr error
	switch kind {
	case models.DragNewCourse:
		callErr = s.client.ScheduleCourseGroup(ctx, auth, original, wire, chosen)
	case models.DragNewGroup:
		callErr = s.client.ScheduleSingleGroup(ctx, auth, resolved, wire)
	case models.DragExistingGroup:
		callErr = s.client.ScheduleExistingGroup(ctx, auth, resolved, wire)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.busy = false
	session.lastUsed = time.Now().UTC()

	if callErr != nil {
		session.state = models.StateConflictShown
		return nil, callErr
	}

	s.applyPlacement(session, resolved)
	session.clearNegotiation()
	return s.viewLocked(session), nil
}

// Cancel discards the pending conflict and drag state without mutating the
// pool or grid.
func (s *PlacementService) Cancel(sessionID string) (*dto.SessionView, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.busy {
		return nil, appErrors.FromError(appErrors.ErrSessionBusy)
	}
	session.clearNegotiation()
	session.lastUsed = time.Now().UTC()
	return s.viewLocked(session), nil
}

// RemoveExam takes a placed group off the grid and returns it to the pool.
// The local mutation is optimistic; a failed upstream call rolls it back.
func (s *PlacementService) RemoveExam(ctx context.Context, auth, sessionID string, req dto.RemoveExamRequest) (*dto.SessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid remove payload")
	}
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	if session.busy {
		session.mu.Unlock()
		return nil, appErrors.FromError(appErrors.ErrSessionBusy)
	}
	if session.state != models.StateIdle {
		session.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrSessionBusy, "a conflict resolution is pending; confirm or cancel it first")
	}
	removed := session.grid.Remove(req.Day, req.Slot, req.GroupID)
	if removed == nil {
		session.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found in that slot")
	}
	session.pool.AddBack(removed.Group, removed.Course)
	session.busy = true
	session.mu.Unlock()

	callErr := s.client.RemoveScheduledExam(ctx, auth, req.Day, req.Slot, req.GroupID, req.CourseID)

	session.mu.Lock()
	defer session.mu.Unlock()
	session.busy = false
	session.lastUsed = time.Now().UTC()

	if callErr != nil {
		// Roll the optimistic removal back so pool and grid stay in step
		// with the backend.
		session.pool.Remove(removed.Group.ID, removed.Course.ID)
		_ = session.grid.Insert(req.Day, req.Slot, *removed)
		return nil, callErr
	}

	return s.viewLocked(session), nil
}

// Reload replaces the session's pool and grid from the backend.
func (s *PlacementService) Reload(ctx context.Context, auth, sessionID string) (*dto.SessionView, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	if session.busy {
		session.mu.Unlock()
		return nil, appErrors.FromError(appErrors.ErrSessionBusy)
	}
	session.busy = true
	timetableID := session.TimetableID
	session.mu.Unlock()

	entries, fetchErr := s.client.UnscheduledExams(ctx, auth)
	var exams []models.FlatExam
	if fetchErr == nil {
		exams, fetchErr = s.client.Exams(ctx, auth, timetableID)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.busy = false
	session.lastUsed = time.Now().UTC()
	if fetchErr != nil {
		return nil, fetchErr
	}

	session.pool = NewPool(entries)
	session.unclassified = session.grid.Load(exams)
	session.clearNegotiation()
	return s.viewLocked(session), nil
}

// Close drops the session.
func (s *PlacementService) Close(sessionID string) {
	s.sessions.Delete(sessionID)
	s.reportSessions()
}

func (s *PlacementService) get(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, appErrors.FromError(appErrors.ErrSessionNotFound)
	}
	return session, nil
}

// applyPlacement performs the pool/grid mutation for a successful placement.
// Callers hold the session lock. The slot is validated before anything moves:
// a placement the grid cannot render must leave pool and grid untouched, or a
// group would end up in neither.
func (s *PlacementService) applyPlacement(session *Session, target models.SlotRef) {
	drag := session.drag
	if drag == nil {
		return
	}
	if !models.ValidSlotName(target.Slot) {
		s.logger.Error("placement accepted upstream on an unknown slot, local state unchanged",
			zap.String("slot", string(target.Slot)), zap.String("session_id", session.ID))
		return
	}
	switch drag.Kind {
	case models.DragNewCourse:
		if drag.Course != nil {
			session.pool.RemoveCourse(drag.Course.Course.ID)
		}
	case models.DragNewGroup:
		if drag.Group != nil {
			session.pool.Remove(drag.Group.ID, drag.Group.CourseID)
		}
	case models.DragExistingGroup:
		if drag.Existing != nil && drag.Origin != nil {
			session.grid.Remove(drag.Origin.Date, drag.Origin.Slot, drag.Existing.Group.ID)
		}
	}
	for _, entry := range session.pending {
		if err := session.grid.Insert(target.Date, target.Slot, entry); err != nil {
			s.logger.Error("failed to insert placed entry", zap.Error(err))
		}
	}
}

func (s *PlacementService) viewLocked(session *Session) *dto.SessionView {
	return &dto.SessionView{
		ID:           session.ID,
		TimetableID:  session.TimetableID,
		State:        session.state,
		Busy:         session.busy,
		Pool:         session.pool.Entries(),
		Days:         session.grid.Days(),
		Conflict:     session.conflict.Clone(),
		Unclassified: session.unclassified,
	}
}

func entriesForCourse(entry models.UnscheduledCourseEntry) []models.ScheduledExamEntry {
	out := make([]models.ScheduledExamEntry, 0, len(entry.Groups))
	for _, group := range entry.Groups {
		out = append(out, models.ScheduledExamEntry{
			Group:    group,
			Course:   entry.Course,
			CourseID: entry.Course.ID,
		})
	}
	return out
}

func wirePayload(p *models.DragPayload) interface{} {
	switch p.Kind {
	case models.DragNewCourse:
		return p.Course
	case models.DragNewGroup:
		return p.Group
	case models.DragExistingGroup:
		return p.Existing
	}
	return nil
}
