package service

import (
	"sort"

	"github.com/noah-isme/exam-console-api/internal/models"
	appErrors "github.com/noah-isme/exam-console-api/pkg/errors"
)

// Grid is the day/slot/exam structure behind the manual timetable. Days are
// stored normalized in a map keyed by date; each day provisions the three
// canonical slots on creation, and a slot keeps its name even when its last
// exam is removed so it stays a valid drop target.
type Grid struct {
	days map[string]map[models.SlotName][]models.ScheduledExamEntry
}

// NewGrid returns an empty grid.
func NewGrid() *Grid {
	return &Grid{days: make(map[string]map[models.SlotName][]models.ScheduledExamEntry)}
}

func (g *Grid) day(date string) map[models.SlotName][]models.ScheduledExamEntry {
	if existing, ok := g.days[date]; ok {
		return existing
	}
	slots := make(map[models.SlotName][]models.ScheduledExamEntry, len(models.SlotNames))
	for _, name := range models.SlotNames {
		slots[name] = nil
	}
	g.days[date] = slots
	return slots
}

// Insert appends an exam entry to the named slot, creating the day on first
// reference.
func (g *Grid) Insert(date string, slot models.SlotName, entry models.ScheduledExamEntry) error {
	if !models.ValidSlotName(slot) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown slot name "+string(slot))
	}
	slots := g.day(date)
	slots[slot] = append(slots[slot], entry)
	return nil
}

// Remove splices the matching exam entry out of the slot and returns it, or
// nil when the group is not there. The emptied slot keeps its name.
func (g *Grid) Remove(date string, slot models.SlotName, groupID string) *models.ScheduledExamEntry {
	slots, ok := g.days[date]
	if !ok {
		return nil
	}
	exams := slots[slot]
	for i, exam := range exams {
		if exam.Group.ID == groupID {
			slots[slot] = append(exams[:i], exams[i+1:]...)
			removed := exam
			return &removed
		}
	}
	return nil
}

// Find locates a scheduled group anywhere on the grid.
func (g *Grid) Find(groupID string) (models.ScheduledExamEntry, models.SlotRef, bool) {
	for date, slots := range g.days {
		for name, exams := range slots {
			for _, exam := range exams {
				if exam.Group.ID == groupID {
					return exam, models.SlotRef{Date: date, Slot: name}, true
				}
			}
		}
	}
	return models.ScheduledExamEntry{}, models.SlotRef{}, false
}

// ContainsGroup reports whether the group is placed somewhere on the grid.
func (g *Grid) ContainsGroup(groupID string) bool {
	_, _, ok := g.Find(groupID)
	return ok
}

// CountExams returns the total number of placed entries.
func (g *Grid) CountExams() int {
	total := 0
	for _, slots := range g.days {
		for _, exams := range slots {
			total += len(exams)
		}
	}
	return total
}

// Days renders the grid as a date-sorted day list with slots in canonical
// order. The returned structure is a copy.
func (g *Grid) Days() []models.ScheduledDay {
	dates := make([]string, 0, len(g.days))
	for date := range g.days {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	out := make([]models.ScheduledDay, 0, len(dates))
	for _, date := range dates {
		day := models.ScheduledDay{Day: date}
		for _, name := range models.SlotNames {
			day.Slots = append(day.Slots, models.ScheduledSlot{
				Name:  name,
				Exams: append([]models.ScheduledExamEntry(nil), g.days[date][name]...),
			})
		}
		out = append(out, day)
	}
	return out
}

// Load replaces the grid content from the upstream's flat exam list. Exams
// whose time window matches no canonical slot are returned to the caller
// instead of being dropped on the floor.
func (g *Grid) Load(flat []models.FlatExam) []models.FlatExam {
	g.days = make(map[string]map[models.SlotName][]models.ScheduledExamEntry)

	var unclassified []models.FlatExam
	for _, exam := range flat {
		slot, ok := models.ClassifySlot(exam.StartTime, exam.EndTime)
		if !ok {
			unclassified = append(unclassified, exam)
			continue
		}
		entry := models.ScheduledExamEntry{
			Group: models.CourseGroup{
				ID:        exam.GroupID,
				GroupName: exam.GroupName,
				CourseID:  exam.CourseID,
			},
			Course: models.CourseRef{
				ID:         exam.CourseID,
				Title:      exam.CourseTitle,
				Code:       exam.CourseCode,
				Department: exam.CourseDepartment,
			},
			CourseID: exam.CourseID,
		}
		slots := g.day(exam.Date)
		slots[slot] = append(slots[slot], entry)
	}
	return unclassified
}
