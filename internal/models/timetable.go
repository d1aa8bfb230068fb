package models

// SlotName is one of the three fixed daily exam windows.
type SlotName string

const (
	SlotMorning   SlotName = "Morning"
	SlotAfternoon SlotName = "Afternoon"
	SlotEvening   SlotName = "Evening"
)

// SlotNames lists the canonical slots in display order.
var SlotNames = []SlotName{SlotMorning, SlotAfternoon, SlotEvening}

// SlotWindow is the canonical start/end time of a named slot.
type SlotWindow struct {
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

var canonicalWindows = map[SlotName]SlotWindow{
	SlotMorning:   {Start: "08:00", End: "11:00"},
	SlotAfternoon: {Start: "13:00", End: "16:00"},
	SlotEvening:   {Start: "18:00", End: "20:00"},
}

// WindowFor returns the canonical time window for a slot name.
func WindowFor(name SlotName) (SlotWindow, bool) {
	w, ok := canonicalWindows[name]
	return w, ok
}

// ClassifySlot maps a raw start/end time pair onto a canonical slot name.
// Windows that match none of the three slots are reported to the caller
// instead of being dropped.
func ClassifySlot(start, end string) (SlotName, bool) {
	for name, window := range canonicalWindows {
		if window.Start == start && window.End == end {
			return name, true
		}
	}
	return "", false
}

// ValidSlotName reports whether name is one of the canonical slots.
func ValidSlotName(name SlotName) bool {
	_, ok := canonicalWindows[name]
	return ok
}

// ScheduledExamEntry is the unit placed into a timetable slot.
type ScheduledExamEntry struct {
	Group    CourseGroup `json:"group"`
	Course   CourseRef   `json:"course"`
	CourseID string      `json:"course_id"`
}

// ScheduledSlot holds the exams booked into one named window of a day.
// The slot keeps its name even when no exams remain, so the day always
// exposes all three drop targets.
type ScheduledSlot struct {
	Name  SlotName             `json:"name"`
	Exams []ScheduledExamEntry `json:"exams"`
}

// ScheduledDay is the view shape for one timetable day.
type ScheduledDay struct {
	Day   string          `json:"day"`
	Slots []ScheduledSlot `json:"slots"`
}

// FlatExam is the upstream's flat representation of one scheduled exam.
type FlatExam struct {
	ExamID           string `json:"exam_id"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	GroupID          string `json:"group_id"`
	GroupName        string `json:"group_name"`
	CourseID         string `json:"course_id"`
	CourseTitle      string `json:"course_title"`
	CourseCode       string `json:"course_code"`
	CourseDepartment string `json:"course_department"`
}

// SlotRef addresses one day/slot cell of the grid.
type SlotRef struct {
	Date string   `json:"date"`
	Slot SlotName `json:"slot"`
}
