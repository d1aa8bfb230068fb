package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/noah-isme/exam-console-api/internal/models"
)

// suggestionWire is the backend's alternate-slot shape.
type suggestionWire struct {
	Date string `json:"date"`
	Slot string `json:"slot"`
}

func (s suggestionWire) toRef() models.SlotRef {
	return models.SlotRef{Date: s.Date, Slot: models.SlotName(s.Slot)}
}

// PlacementResult is the decoded outcome of a tentative placement. Conflict
// is a negotiable outcome, not an error: the caller decides whether to
// confirm against a suggested slot or cancel.
type PlacementResult struct {
	Conflict       bool
	Pairs          []models.ConflictPair
	Suggestions    []models.SlotRef
	BestSuggestion *models.SlotRef
	Message        string
}

// UnscheduledExams fetches courses that still have unplaced groups.
func (c *Client) UnscheduledExams(ctx context.Context, auth string) ([]models.UnscheduledCourseEntry, error) {
	env, err := c.do(ctx, http.MethodGet, "/exams/unscheduled_exams", auth, nil)
	if err != nil {
		return nil, err
	}
	var entries []models.UnscheduledCourseEntry
	if err := decodeData(env, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Exams fetches the flat list of scheduled exams, optionally scoped to one
// timetable.
func (c *Client) Exams(ctx context.Context, auth, timetableID string) ([]models.FlatExam, error) {
	path := "/exams/exams"
	if timetableID != "" {
		path += "?id=" + url.QueryEscape(timetableID)
	}
	env, err := c.do(ctx, http.MethodGet, path, auth, nil)
	if err != nil {
		return nil, err
	}
	var exams []models.FlatExam
	if err := decodeData(env, &exams); err != nil {
		return nil, err
	}
	return exams, nil
}

type placementBody struct {
	Day         string          `json:"day"`
	Slot        models.SlotName `json:"slot"`
	CourseGroup interface{}     `json:"course_group"`
}

type confirmBody struct {
	Day           string          `json:"day"`
	Slot          models.SlotName `json:"slot"`
	CourseGroup   interface{}     `json:"course_group"`
	SuggestedSlot *models.SlotRef `json:"suggestedSlot,omitempty"`
}

// AddExamToSlot posts a tentative placement. The backend either accepts it
// outright or answers with conflict details and ranked suggestions.
func (c *Client) AddExamToSlot(ctx context.Context, auth string, target models.SlotRef, courseGroup interface{}) (*PlacementResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/exams/add-exam-to-slot/", auth, placementBody{
		Day:         target.Date,
		Slot:        target.Slot,
		CourseGroup: courseGroup,
	})
	if err != nil {
		return nil, err
	}
	return decodePlacement(env)
}

// ScheduleCourseGroup confirms placement of a whole course's group set,
// optionally against a suggested alternate slot.
func (c *Client) ScheduleCourseGroup(ctx context.Context, auth string, target models.SlotRef, courseGroup interface{}, suggested *models.SlotRef) error {
	_, err := c.do(ctx, http.MethodPost, "/exams/schedule-course-group/", auth, confirmBody{
		Day:           target.Date,
		Slot:          target.Slot,
		CourseGroup:   courseGroup,
		SuggestedSlot: suggested,
	})
	return err
}

// ScheduleSingleGroup confirms placement of one unscheduled group.
func (c *Client) ScheduleSingleGroup(ctx context.Context, auth string, target models.SlotRef, courseGroup interface{}) error {
	_, err := c.do(ctx, http.MethodPost, "/exams/schedule-course-single-group/", auth, confirmBody{
		Day:         target.Date,
		Slot:        target.Slot,
		CourseGroup: courseGroup,
	})
	return err
}

// ScheduleExistingGroup reschedules a group that is already placed. The
// backend vacates the prior slot as part of the move, which is why this is a
// distinct endpoint from the fresh-placement confirms.
func (c *Client) ScheduleExistingGroup(ctx context.Context, auth string, target models.SlotRef, courseGroup interface{}) error {
	_, err := c.do(ctx, http.MethodPost, "/exams/schedule-existing-course-single-group/", auth, confirmBody{
		Day:         target.Date,
		Slot:        target.Slot,
		CourseGroup: courseGroup,
	})
	return err
}

type removeBody struct {
	Day      string          `json:"day"`
	Name     models.SlotName `json:"name"`
	GroupID  string          `json:"group_id"`
	CourseID string          `json:"courseId"`
}

// RemoveScheduledExam takes a placed group off the timetable.
func (c *Client) RemoveScheduledExam(ctx context.Context, auth string, day string, slot models.SlotName, groupID, courseID string) error {
	_, err := c.do(ctx, http.MethodPatch, "/exams/remove-scheduled-exam/", auth, removeBody{
		Day:      day,
		Name:     slot,
		GroupID:  groupID,
		CourseID: courseID,
	})
	return err
}

// decodePlacement interprets the conflict payload: data holds triples of
// [groupA, groupB, reasonLabel].
func decodePlacement(env *envelope) (*PlacementResult, error) {
	result := &PlacementResult{
		Conflict: env.Conflict,
		Message:  env.Message,
	}
	if !env.Conflict {
		return result, nil
	}

	var triples [][]json.RawMessage
	if err := decodeData(env, &triples); err != nil {
		return nil, err
	}
	for _, triple := range triples {
		if len(triple) < 3 {
			continue
		}
		var pair models.ConflictPair
		if err := json.Unmarshal(triple[0], &pair.First); err != nil {
			continue
		}
		if err := json.Unmarshal(triple[1], &pair.Second); err != nil {
			continue
		}
		_ = json.Unmarshal(triple[2], &pair.Reason)
		result.Pairs = append(result.Pairs, pair)
	}

	// Suggestions keep the server's ranking order; the gateway never re-sorts.
	for _, s := range env.AllSuggestions {
		result.Suggestions = append(result.Suggestions, s.toRef())
	}
	if env.BestSuggestion != nil {
		ref := env.BestSuggestion.toRef()
		result.BestSuggestion = &ref
	}
	return result, nil
}
