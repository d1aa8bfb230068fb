package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/noah-isme/exam-console-api/internal/models"
)

// occupancy wire shapes: the backend nests exams under schedules under rooms;
// the gateway flattens them into RoomOccupancyRecord rows for aggregation.
type roomWire struct {
	RoomID    string         `json:"room_id"`
	RoomName  string         `json:"room_name"`
	Capacity  int            `json:"capacity"`
	Schedules []scheduleWire `json:"schedules"`
}

type scheduleWire struct {
	Date      string         `json:"date"`
	StartTime string         `json:"start_time"`
	EndTime   string         `json:"end_time"`
	Exams     []examSlotWire `json:"exams"`
}

type examSlotWire struct {
	ExamID           string `json:"exam_id"`
	CourseCode       string `json:"course_code"`
	CourseTitle      string `json:"course_title"`
	StudentCount     int    `json:"student_count"`
	CourseDepartment string `json:"course_department"`
	CourseSemester   string `json:"course_semester"`
	CourseGroup      string `json:"course_group"`
}

// Occupancies fetches room occupancies, optionally filtered by location, and
// flattens the nested room/schedule/exam tree into per-exam records.
func (c *Client) Occupancies(ctx context.Context, auth, location string) ([]models.RoomOccupancyRecord, error) {
	path := "/rooms/occupancies/"
	if location != "" {
		path += "?location=" + url.QueryEscape(location)
	}
	env, err := c.do(ctx, http.MethodGet, path, auth, nil)
	if err != nil {
		return nil, err
	}

	var rooms []roomWire
	if err := decodeData(env, &rooms); err != nil {
		return nil, err
	}

	var records []models.RoomOccupancyRecord
	for _, room := range rooms {
		for _, schedule := range room.Schedules {
			for _, exam := range schedule.Exams {
				records = append(records, models.RoomOccupancyRecord{
					RoomID:           room.RoomID,
					RoomName:         room.RoomName,
					RoomCapacity:     room.Capacity,
					Date:             schedule.Date,
					StartTime:        schedule.StartTime,
					EndTime:          schedule.EndTime,
					ExamID:           exam.ExamID,
					CourseCode:       exam.CourseCode,
					CourseTitle:      exam.CourseTitle,
					StudentCount:     exam.StudentCount,
					CourseDepartment: exam.CourseDepartment,
					CourseSemester:   exam.CourseSemester,
					CourseGroup:      exam.CourseGroup,
				})
			}
		}
	}
	return records, nil
}

type changeRoomBody struct {
	Room        models.RoomTarget         `json:"room"`
	CourseGroup models.DraggedCourseGroup `json:"courseGroup"`
}

// ChangeRoom moves a course group to another room/time cell. The descriptor
// carries the origin room so the backend can vacate it.
func (c *Client) ChangeRoom(ctx context.Context, auth string, target models.RoomTarget, group models.DraggedCourseGroup) error {
	_, err := c.do(ctx, http.MethodPatch, "/rooms/change_room/", auth, changeRoomBody{
		Room:        target,
		CourseGroup: group,
	})
	return err
}

type studentsBody struct {
	CourseGroup models.DraggedCourseGroup `json:"courseGroup"`
}

// Students lists the students sitting an exam for the given course group.
func (c *Client) Students(ctx context.Context, auth string, group models.DraggedCourseGroup) ([]models.Student, error) {
	env, err := c.do(ctx, http.MethodPost, "/rooms/students/", auth, studentsBody{CourseGroup: group})
	if err != nil {
		return nil, err
	}
	var students []models.Student
	if len(env.Students) > 0 {
		if err := json.Unmarshal(env.Students, &students); err != nil {
			return nil, err
		}
		return students, nil
	}
	if err := decodeData(env, &students); err != nil {
		return nil, err
	}
	return students, nil
}
