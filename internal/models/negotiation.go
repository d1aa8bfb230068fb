package models

// NegotiationState tracks where a drag-and-drop placement cycle stands.
// The cycle always returns to IDLE once the drag payload and any conflict
// state have been cleared.
type NegotiationState string

const (
	StateIdle          NegotiationState = "IDLE"
	StateRequesting    NegotiationState = "REQUESTING"
	StateConflictShown NegotiationState = "CONFLICT_SHOWN"
	StateConfirming    NegotiationState = "CONFIRMING"
)

// ConflictGroup is the upstream's description of one party in a clash.
type ConflictGroup struct {
	ID         string `json:"id"`
	GroupName  string `json:"group_name"`
	CourseID   string `json:"course_id,omitempty"`
	CourseCode string `json:"course_code,omitempty"`
}

// ConflictPair names two clashing groups and the reason label reported by
// the scheduler (room, student overlap, rule violation, ...).
type ConflictPair struct {
	First  ConflictGroup `json:"first"`
	Second ConflictGroup `json:"second"`
	Reason string        `json:"reason"`
}

// ConflictResolution holds everything the user needs to settle a conflict:
// the clashing pairs, alternate slots in the server's ranking order, and the
// currently chosen slot. ChosenSlot starts out as BestSuggestion.
type ConflictResolution struct {
	Pairs          []ConflictPair `json:"pairs"`
	Suggestions    []SlotRef      `json:"suggestions"`
	BestSuggestion *SlotRef       `json:"best_suggestion"`
	ChosenSlot     *SlotRef       `json:"chosen_slot"`
}

// Clone returns an independent copy. Rendered session views serialize after
// the session lock is released, so they must not share the live resolution
// that a concurrent ChooseSlot can update.
func (r *ConflictResolution) Clone() *ConflictResolution {
	if r == nil {
		return nil
	}
	clone := &ConflictResolution{
		Pairs:       append([]ConflictPair(nil), r.Pairs...),
		Suggestions: append([]SlotRef(nil), r.Suggestions...),
	}
	if r.BestSuggestion != nil {
		best := *r.BestSuggestion
		clone.BestSuggestion = &best
	}
	if r.ChosenSlot != nil {
		chosen := *r.ChosenSlot
		clone.ChosenSlot = &chosen
	}
	return clone
}

// Target returns the slot the confirm request should aim at, falling back
// to the original drop target when the user picked nothing.
func (r *ConflictResolution) Target(original SlotRef) SlotRef {
	if r != nil && r.ChosenSlot != nil {
		return *r.ChosenSlot
	}
	return original
}
