package service

import (
	"strings"

	"github.com/noah-isme/exam-console-api/internal/models"
)

// Pool holds the courses that still have unplaced groups. Together with the
// grid it forms a disjoint partition of all course groups: a group leaves the
// pool exactly when it lands on the grid, and comes back when it is removed.
type Pool struct {
	entries []models.UnscheduledCourseEntry
}

// NewPool builds a pool from the upstream's unscheduled course list.
func NewPool(entries []models.UnscheduledCourseEntry) *Pool {
	copied := make([]models.UnscheduledCourseEntry, len(entries))
	for i, entry := range entries {
		copied[i] = entry
		copied[i].Groups = append([]models.CourseGroup(nil), entry.Groups...)
	}
	return &Pool{entries: copied}
}

// Entries returns a copy of the current pool contents.
func (p *Pool) Entries() []models.UnscheduledCourseEntry {
	out := make([]models.UnscheduledCourseEntry, len(p.entries))
	for i, entry := range p.entries {
		out[i] = entry
		out[i].Groups = append([]models.CourseGroup(nil), entry.Groups...)
	}
	return out
}

// Remove takes one group out of its course entry. When the group was the
// entry's last, the whole entry disappears.
func (p *Pool) Remove(groupID, courseID string) (models.CourseGroup, bool) {
	for i := range p.entries {
		if p.entries[i].Course.ID != courseID {
			continue
		}
		for j, group := range p.entries[i].Groups {
			if group.ID != groupID {
				continue
			}
			p.entries[i].Groups = append(p.entries[i].Groups[:j], p.entries[i].Groups[j+1:]...)
			if len(p.entries[i].Groups) == 0 {
				p.entries = append(p.entries[:i], p.entries[i+1:]...)
			}
			return group, true
		}
	}
	return models.CourseGroup{}, false
}

// RemoveCourse drops a whole course entry, returning it for placement.
func (p *Pool) RemoveCourse(courseID string) (models.UnscheduledCourseEntry, bool) {
	for i := range p.entries {
		if p.entries[i].Course.ID == courseID {
			entry := p.entries[i]
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return entry, true
		}
	}
	return models.UnscheduledCourseEntry{}, false
}

// AddBack returns a group to the pool, creating the course entry on demand.
func (p *Pool) AddBack(group models.CourseGroup, course models.CourseRef) {
	for i := range p.entries {
		if p.entries[i].Course.ID == course.ID {
			p.entries[i].Groups = append(p.entries[i].Groups, group)
			return
		}
	}
	p.entries = append(p.entries, models.UnscheduledCourseEntry{
		ID:     course.ID,
		Course: course,
		Groups: []models.CourseGroup{group},
	})
}

// Filter returns entries whose course title, department or code contains the
// term, case-insensitively. The pool itself is not mutated.
func (p *Pool) Filter(term string) []models.UnscheduledCourseEntry {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return p.Entries()
	}
	var out []models.UnscheduledCourseEntry
	for _, entry := range p.entries {
		if strings.Contains(strings.ToLower(entry.Course.Title), term) ||
			strings.Contains(strings.ToLower(entry.Course.Department), term) ||
			strings.Contains(strings.ToLower(entry.Course.Code), term) {
			matched := entry
			matched.Groups = append([]models.CourseGroup(nil), entry.Groups...)
			out = append(out, matched)
		}
	}
	return out
}

// FindCourse looks a course entry up without removing it.
func (p *Pool) FindCourse(courseID string) (models.UnscheduledCourseEntry, bool) {
	for _, entry := range p.entries {
		if entry.Course.ID == courseID {
			found := entry
			found.Groups = append([]models.CourseGroup(nil), entry.Groups...)
			return found, true
		}
	}
	return models.UnscheduledCourseEntry{}, false
}

// FindGroup locates a group and its owning course without removing it.
func (p *Pool) FindGroup(groupID string) (models.CourseGroup, models.CourseRef, bool) {
	for _, entry := range p.entries {
		for _, group := range entry.Groups {
			if group.ID == groupID {
				return group, entry.Course, true
			}
		}
	}
	return models.CourseGroup{}, models.CourseRef{}, false
}

// ContainsGroup reports whether the group is currently pooled.
func (p *Pool) ContainsGroup(groupID string) bool {
	_, _, ok := p.FindGroup(groupID)
	return ok
}
