package models

// RoomOccupancyRecord is one flat room/time/exam row as reported upstream.
type RoomOccupancyRecord struct {
	RoomID           string `json:"room_id"`
	RoomName         string `json:"room_name"`
	RoomCapacity     int    `json:"room_capacity"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	ExamID           string `json:"exam_id"`
	CourseCode       string `json:"course_code"`
	CourseTitle      string `json:"course_title"`
	StudentCount     int    `json:"student_count"`
	CourseDepartment string `json:"course_department,omitempty"`
	CourseSemester   string `json:"course_semester,omitempty"`
	CourseGroup      string `json:"course_group,omitempty"`
}

// OccupiedCourse is one course sitting in a grouped occupancy slot.
type OccupiedCourse struct {
	ExamID           string `json:"exam_id"`
	CourseCode       string `json:"course_code"`
	CourseTitle      string `json:"course_title"`
	CourseDepartment string `json:"course_department,omitempty"`
	CourseSemester   string `json:"course_semester,omitempty"`
	CourseGroup      string `json:"course_group,omitempty"`
	StudentCount     int    `json:"student_count"`
}

// GroupedOccupancySlot aggregates all exams sharing one room and exact time
// range. TotalStudents and IsOvercapacity are derived on every regroup, never
// stored.
type GroupedOccupancySlot struct {
	Key            string           `json:"key"`
	RoomID         string           `json:"room_id"`
	RoomName       string           `json:"room_name"`
	RoomCapacity   int              `json:"room_capacity"`
	Date           string           `json:"date"`
	StartTime      string           `json:"start_time"`
	EndTime        string           `json:"end_time"`
	Duration       string           `json:"duration"`
	Courses        []OccupiedCourse `json:"courses"`
	TotalStudents  int              `json:"total_students"`
	IsOvercapacity bool             `json:"is_overcapacity"`
}

// DraggedCourseGroup describes the course group being reassigned to another
// room. RoomName is the origin room.
type DraggedCourseGroup struct {
	CourseID         string `json:"courseId"`
	CourseCode       string `json:"courseCode"`
	CourseTitle      string `json:"courseTitle"`
	CourseSemester   string `json:"courseSemester,omitempty"`
	CourseDepartment string `json:"courseDepartment,omitempty"`
	CourseGroup      string `json:"courseGroup,omitempty"`
	RoomName         string `json:"roomName"`
}

// RoomTarget is the destination room/time cell of a reassignment.
type RoomTarget struct {
	RoomName  string `json:"roomName"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Student is one enrolled student of a course group.
type Student struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}
