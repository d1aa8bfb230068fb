package dto

import "github.com/noah-isme/exam-console-api/internal/models"

// CreateSessionRequest opens a timetable editing session.
type CreateSessionRequest struct {
	TimetableID string `json:"timetableId"`
}

// DragPayloadRequest identifies the dragged entity by kind and id; the
// gateway resolves it against the session's pool or grid so a stale client
// cannot smuggle in objects the session no longer owns.
type DragPayloadRequest struct {
	Kind     models.DragKind `json:"kind" validate:"required,oneof=new_course new_group existing_group"`
	CourseID string          `json:"courseId" validate:"required_if=Kind new_course"`
	GroupID  string          `json:"groupId" validate:"required_if=Kind new_group,required_if=Kind existing_group"`
}

// DropRequest places the dragged entity onto a day/slot cell.
type DropRequest struct {
	Day     string             `json:"day" validate:"required,datetime=2006-01-02"`
	Slot    models.SlotName    `json:"slot" validate:"required"`
	Payload DragPayloadRequest `json:"payload" validate:"required"`
}

// ChooseSlotRequest changes the slot a pending conflict will be confirmed
// against.
type ChooseSlotRequest struct {
	Date string          `json:"date" validate:"required,datetime=2006-01-02"`
	Slot models.SlotName `json:"slot" validate:"required"`
}

// RemoveExamRequest takes a placed group off the timetable.
type RemoveExamRequest struct {
	Day      string          `json:"day" validate:"required,datetime=2006-01-02"`
	Slot     models.SlotName `json:"slot" validate:"required"`
	GroupID  string          `json:"groupId" validate:"required"`
	CourseID string          `json:"courseId" validate:"required"`
}

// SessionView is the full session state returned after every operation.
type SessionView struct {
	ID           string                          `json:"id"`
	TimetableID  string                          `json:"timetable_id,omitempty"`
	State        models.NegotiationState         `json:"state"`
	Busy         bool                            `json:"busy"`
	Pool         []models.UnscheduledCourseEntry `json:"pool"`
	Days         []models.ScheduledDay           `json:"days"`
	Conflict     *models.ConflictResolution      `json:"conflict,omitempty"`
	Unclassified []models.FlatExam               `json:"unclassified,omitempty"`
}

// DropOutcome reports how a drop ended: placed outright, or parked behind a
// conflict awaiting the user's decision.
type DropOutcome struct {
	Placed   bool         `json:"placed"`
	Conflict bool         `json:"conflict"`
	Session  *SessionView `json:"session"`
}
