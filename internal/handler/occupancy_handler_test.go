package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/models"
	appErrors "github.com/noah-isme/exam-console-api/pkg/errors"
)

type fakeOccupancySrv struct {
	slots        []models.GroupedOccupancySlot
	records      []models.RoomOccupancyRecord
	students     []models.Student
	err          error
	lastLocation string
	lastChange   dto.ChangeRoomRequest
}

func (f *fakeOccupancySrv) Records(_ context.Context, _, location string) ([]models.RoomOccupancyRecord, error) {
	f.lastLocation = location
	return f.records, f.err
}

func (f *fakeOccupancySrv) Grouped(_ context.Context, _, location string) ([]models.GroupedOccupancySlot, error) {
	f.lastLocation = location
	return f.slots, f.err
}

func (f *fakeOccupancySrv) ChangeRoom(_ context.Context, _ string, req dto.ChangeRoomRequest) ([]models.GroupedOccupancySlot, error) {
	f.lastChange = req
	return f.slots, f.err
}

func (f *fakeOccupancySrv) Students(context.Context, string, dto.StudentsRequest) ([]models.Student, error) {
	return f.students, f.err
}

func occupancyRouter(fake *fakeOccupancySrv) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewOccupancyHandler(fake)
	r := gin.New()
	r.GET("/occupancy", h.Grouped)
	r.GET("/occupancy/records", h.Records)
	r.PATCH("/occupancy/change-room", h.ChangeRoom)
	r.POST("/occupancy/students", h.Students)
	return r
}

func TestOccupancyGroupedPassesLocation(t *testing.T) {
	fake := &fakeOccupancySrv{slots: []models.GroupedOccupancySlot{{Key: "A100_08:00-11:00"}}}
	router := occupancyRouter(fake)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/occupancy?location=north", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "north", fake.lastLocation)
	assert.Contains(t, rec.Body.String(), "A100_08:00-11:00")
}

func TestOccupancyChangeRoom(t *testing.T) {
	fake := &fakeOccupancySrv{}
	router := occupancyRouter(fake)

	body := `{"courseGroup":{"courseId":"c1","roomName":"A100"},"room":{"roomName":"B101","date":"2026-06-01"}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/occupancy/change-room", strings.NewReader(body))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "B101", fake.lastChange.Target.RoomName)
	assert.Equal(t, "A100", fake.lastChange.CourseGroup.RoomName)
}

func TestOccupancyChangeRoomRejectMapsTo422(t *testing.T) {
	fake := &fakeOccupancySrv{err: appErrors.Clone(appErrors.ErrUpstreamReject, "room occupied")}
	router := occupancyRouter(fake)

	body := `{"courseGroup":{"courseId":"c1"},"room":{"roomName":"B101"}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/occupancy/change-room", strings.NewReader(body))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "room occupied")
}

func TestOccupancyStudents(t *testing.T) {
	fake := &fakeOccupancySrv{students: []models.Student{{ID: "s1", FirstName: "Ada"}}}
	router := occupancyRouter(fake)

	body := `{"courseGroup":{"courseId":"c1"}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/occupancy/students", strings.NewReader(body))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ada")
}
