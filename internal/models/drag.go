package models

// DragKind tags the active variant of a drag payload.
type DragKind string

const (
	// DragNewCourse drags a whole unscheduled course with all its groups.
	DragNewCourse DragKind = "new_course"
	// DragNewGroup drags a single unscheduled group.
	DragNewGroup DragKind = "new_group"
	// DragExistingGroup moves a group that is already placed on the grid.
	DragExistingGroup DragKind = "existing_group"
)

// DragPayload is a tagged union: exactly one variant is populated, selected
// by Kind. Constructing payloads through the New* helpers keeps the other
// variants nil.
type DragPayload struct {
	Kind DragKind

	Course   *UnscheduledCourseEntry
	Group    *CourseGroup
	Existing *ScheduledExamEntry

	// Origin locates the prior cell for DragExistingGroup moves.
	Origin *SlotRef
}

// NewCoursePayload wraps a whole unscheduled course entry.
func NewCoursePayload(entry UnscheduledCourseEntry) *DragPayload {
	return &DragPayload{Kind: DragNewCourse, Course: &entry}
}

// NewGroupPayload wraps a single unscheduled group.
func NewGroupPayload(group CourseGroup) *DragPayload {
	return &DragPayload{Kind: DragNewGroup, Group: &group}
}

// ExistingGroupPayload wraps an already-scheduled entry together with its
// origin cell, which the move has to vacate.
func ExistingGroupPayload(entry ScheduledExamEntry, origin SlotRef) *DragPayload {
	return &DragPayload{Kind: DragExistingGroup, Existing: &entry, Origin: &origin}
}

// Groups returns the course groups carried by the payload.
func (p *DragPayload) Groups() []CourseGroup {
	if p == nil {
		return nil
	}
	switch p.Kind {
	case DragNewCourse:
		if p.Course == nil {
			return nil
		}
		return p.Course.Groups
	case DragNewGroup:
		if p.Group == nil {
			return nil
		}
		return []CourseGroup{*p.Group}
	case DragExistingGroup:
		if p.Existing == nil {
			return nil
		}
		return []CourseGroup{p.Existing.Group}
	}
	return nil
}
