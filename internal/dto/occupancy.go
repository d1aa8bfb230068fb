package dto

import "github.com/noah-isme/exam-console-api/internal/models"

// OccupancyQuery filters the occupancy views.
type OccupancyQuery struct {
	Location string `form:"location" json:"location"`
}

// ChangeRoomRequest moves a course group to another room/time cell.
type ChangeRoomRequest struct {
	CourseGroup models.DraggedCourseGroup `json:"courseGroup" validate:"required"`
	Target      models.RoomTarget         `json:"room" validate:"required"`
}

// StudentsRequest asks for the students sitting a course group's exam.
type StudentsRequest struct {
	CourseGroup models.DraggedCourseGroup `json:"courseGroup" validate:"required"`
}
