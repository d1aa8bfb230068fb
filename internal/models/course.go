package models

// CourseRef identifies a course as shown in scheduling views.
type CourseRef struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Code       string `json:"code"`
	Department string `json:"department"`
}

// CourseGroup is one teaching section of a course. Groups are scheduled as
// atomic exam units and live in exactly one of the unscheduled pool or the
// timetable grid at any time.
type CourseGroup struct {
	ID        string `json:"id"`
	GroupName string `json:"group_name"`
	CourseID  string `json:"course_id"`
}

// UnscheduledCourseEntry bundles a course with its not-yet-placed groups.
// An entry exists only while it has at least one group.
type UnscheduledCourseEntry struct {
	ID     string        `json:"id"`
	Course CourseRef     `json:"course"`
	Groups []CourseGroup `json:"groups"`
}
