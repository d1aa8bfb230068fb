package dto

// DashboardSummary is the landing-page snapshot of scheduling progress.
type DashboardSummary struct {
	UnscheduledCourses int `json:"unscheduled_courses"`
	UnscheduledGroups  int `json:"unscheduled_groups"`
	ScheduledExams     int `json:"scheduled_exams"`
	DaysUsed           int `json:"days_used"`
	OccupiedSlots      int `json:"occupied_slots"`
	OvercapacitySlots  int `json:"overcapacity_slots"`
}
