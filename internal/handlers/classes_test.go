package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tutoring-service/internal/classes"
	"tutoring-service/internal/mocks"
	"tutoring-service/internal/models"
	"tutoring-service/internal/repositories"
	"tutoring-service/internal/rooms"
	"tutoring-service/internal/video"
)

const newClassBody = `{
	"title": "Grade 11 Maths Mastery",
	"subject": "Mathematics",
	"grade": 11,
	"monthly_price": 450,
	"schedule_days": ["Mon", "Wed"],
	"start_time": "16:00"
}`

type classFixture struct {
	classes     *mocks.ClassRepositoryMock
	enrollments *mocks.EnrollmentRepositoryMock
	provisioner *mocks.ProvisionerMock
}

func setupClassRouter(t *testing.T, profile *models.Profile) (*gin.Engine, classFixture) {
	t.Helper()
	require.NoError(t, RegisterValidators())

	fx := classFixture{
		classes:     new(mocks.ClassRepositoryMock),
		enrollments: new(mocks.EnrollmentRepositoryMock),
		provisioner: new(mocks.ProvisionerMock),
	}
	handler := NewClassHandler(classes.NewService(fx.classes, fx.enrollments, fx.provisioner), video.NewRegistry(), nil)

	r := newRouter(profile)
	r.POST("/classes", handler.CreateClass)
	r.GET("/classes", handler.Browse)
	r.GET("/classes/mine", handler.Mine)
	r.POST("/classes/:class_id/subscribe", handler.Subscribe)
	r.GET("/classes/:class_id/students", handler.Students)
	r.GET("/classes/:class_id/join", handler.Join)
	r.GET("/classes/:class_id/call", handler.CallState)
	r.POST("/classes/:class_id/call/events", handler.CallEvent)
	return r, fx
}

func TestCreateClassSuccess(t *testing.T) {
	router, fx := setupClassRouter(t, &tutor)
	url := "https://tutor.daily.co/class-1770134400000-k3x9q"

	fx.provisioner.On("CreateRoom", mock.Anything, "Grade 11 Maths Mastery").
		Return(rooms.Room{Name: "class-1770134400000-k3x9q", URL: url}, nil).Once()
	fx.classes.On("CreateClass", mock.Anything, tutor.ID, mock.AnythingOfType("models.NewClass"), url).
		Return(models.TutorClass{ID: "class-1", TutorID: tutor.ID, Title: "Grade 11 Maths Mastery", MeetingLink: strPtr(url), IsActive: true}, nil).Once()

	rec := doRequest(router, http.MethodPost, "/classes", newClassBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	class := decode[models.TutorClass](t, rec)
	assert.Equal(t, "class-1", class.ID)
	assert.Equal(t, url, *class.MeetingLink)
	fx.provisioner.AssertExpectations(t)
	fx.classes.AssertExpectations(t)
}

func TestCreateClassBindingErrors(t *testing.T) {
	cases := map[string]string{
		"bad day":   `{"title":"Algebra","subject":"Maths","grade":10,"schedule_days":["Monday"],"start_time":"16:00"}`,
		"bad clock": `{"title":"Algebra","subject":"Maths","grade":10,"schedule_days":["Mon"],"start_time":"4pm"}`,
		"grade 9":   `{"title":"Algebra","subject":"Maths","grade":9,"schedule_days":["Mon"],"start_time":"16:00"}`,
		"not json":  `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			router, fx := setupClassRouter(t, &tutor)
			rec := doRequest(router, http.MethodPost, "/classes", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			fx.provisioner.AssertNotCalled(t, "CreateRoom", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateClassErrorMapping(t *testing.T) {
	t.Run("student", func(t *testing.T) {
		router, _ := setupClassRouter(t, &student)
		rec := doRequest(router, http.MethodPost, "/classes", newClassBody)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("rooms not configured", func(t *testing.T) {
		router, fx := setupClassRouter(t, &tutor)
		fx.provisioner.On("CreateRoom", mock.Anything, mock.Anything).Return(nil, rooms.ErrNotConfigured).Once()

		rec := doRequest(router, http.MethodPost, "/classes", newClassBody)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		fx.classes.AssertNotCalled(t, "CreateClass", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provider error", func(t *testing.T) {
		router, fx := setupClassRouter(t, &tutor)
		fx.provisioner.On("CreateRoom", mock.Anything, mock.Anything).Return(nil, &rooms.APIError{Status: 400, Body: "bad name"}).Once()

		rec := doRequest(router, http.MethodPost, "/classes", newClassBody)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestBrowseClassesFilters(t *testing.T) {
	router, fx := setupClassRouter(t, &student)
	fx.classes.On("ListActiveClasses", mock.Anything).Return([]models.TutorClass{
		{ID: "a", Title: "Algebra", Subject: "Mathematics", Grade: 10, MonthlyPrice: 250},
		{ID: "b", Title: "Calculus", Subject: "Mathematics", Grade: 12, MonthlyPrice: 900},
		{ID: "c", Title: "Cells", Subject: "Life Sciences", Grade: 10, MonthlyPrice: 300},
	}, nil).Once()
	fx.classes.On("EnrollmentCounts", mock.Anything, []string{"a", "b", "c"}).Return(map[string]int{}, nil).Once()

	rec := doRequest(router, http.MethodGet, "/classes?grade=10&price=under_300", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[struct {
		Classes []models.TutorClass `json:"classes"`
	}](t, rec)
	require.Len(t, resp.Classes, 1)
	assert.Equal(t, "a", resp.Classes[0].ID)
}

func TestBrowseClassesBadQuery(t *testing.T) {
	for _, path := range []string{"/classes?grade=ten", "/classes?price=cheap"} {
		router, fx := setupClassRouter(t, &student)
		rec := doRequest(router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		fx.classes.AssertNotCalled(t, "ListActiveClasses", mock.Anything)
	}
}

func TestMineClasses(t *testing.T) {
	router, fx := setupClassRouter(t, &student)
	fx.enrollments.On("ListForStudent", mock.Anything, student.ID).
		Return([]models.Enrollment{{ID: "e1", ClassID: "a", Class: &models.TutorClass{ID: "a"}}}, nil).Once()

	rec := doRequest(router, http.MethodGet, "/classes/mine", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"a"`)
}

func TestSubscribeClass(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		router, fx := setupClassRouter(t, &student)
		fx.classes.On("GetClass", mock.Anything, "a").Return(models.TutorClass{ID: "a", IsActive: true}, nil).Once()
		fx.enrollments.On("Enroll", mock.Anything, student.ID, "a").
			Return(models.Enrollment{ID: "e1", StudentID: student.ID, ClassID: "a", IsActive: true}, nil).Once()

		rec := doRequest(router, http.MethodPost, "/classes/a/subscribe", "")
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "e1", decode[models.Enrollment](t, rec).ID)
	})

	t.Run("duplicate", func(t *testing.T) {
		router, fx := setupClassRouter(t, &student)
		fx.classes.On("GetClass", mock.Anything, "a").Return(models.TutorClass{ID: "a", IsActive: true}, nil).Once()
		fx.enrollments.On("Enroll", mock.Anything, student.ID, "a").Return(nil, repositories.ErrAlreadySubscribed).Once()

		rec := doRequest(router, http.MethodPost, "/classes/a/subscribe", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing class", func(t *testing.T) {
		router, fx := setupClassRouter(t, &student)
		fx.classes.On("GetClass", mock.Anything, "zzz").Return(nil, repositories.ErrClassNotFound).Once()

		rec := doRequest(router, http.MethodPost, "/classes/zzz/subscribe", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestClassStudents(t *testing.T) {
	t.Run("owner", func(t *testing.T) {
		router, fx := setupClassRouter(t, &tutor)
		fx.classes.On("GetClass", mock.Anything, "a").Return(models.TutorClass{ID: "a", TutorID: tutor.ID}, nil).Once()
		fx.enrollments.On("ListStudents", mock.Anything, "a").Return(nil, nil).Once()

		rec := doRequest(router, http.MethodGet, "/classes/a/students", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"students":[]}`, rec.Body.String())
	})

	t.Run("other tutor", func(t *testing.T) {
		router, fx := setupClassRouter(t, &tutor)
		fx.classes.On("GetClass", mock.Anything, "a").Return(models.TutorClass{ID: "a", TutorID: "tutor-2"}, nil).Once()

		rec := doRequest(router, http.MethodGet, "/classes/a/students", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestJoinClass(t *testing.T) {
	t.Run("enrolled student", func(t *testing.T) {
		router, fx := setupClassRouter(t, &student)
		link := "https://tutor.daily.co/class-1"
		fx.classes.On("GetClass", mock.Anything, "a").Return(models.TutorClass{ID: "a", TutorID: tutor.ID, MeetingLink: strPtr(link)}, nil).Once()
		fx.enrollments.On("IsEnrolled", mock.Anything, "a", student.ID).Return(true, nil).Once()

		rec := doRequest(router, http.MethodGet, "/classes/a/join?title=Maths", "")
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[struct {
			URL  string         `json:"url"`
			Call video.Snapshot `json:"call"`
		}](t, rec)
		assert.Equal(t, link, resp.URL)
		assert.Equal(t, video.StateJoining, resp.Call.State)
		assert.Equal(t, "Maths", resp.Call.Title)
		require.Len(t, resp.Call.Participants, 1)
		assert.Equal(t, video.Participant{ID: student.ID, Name: student.FullName, Local: true, Video: true, Audio: true}, resp.Call.Participants[0])
	})

	t.Run("no meeting link", func(t *testing.T) {
		router, fx := setupClassRouter(t, &tutor)
		fx.classes.On("GetClass", mock.Anything, "a").Return(models.TutorClass{ID: "a", TutorID: tutor.ID}, nil).Once()

		rec := doRequest(router, http.MethodGet, "/classes/a/join", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("not a member", func(t *testing.T) {
		router, fx := setupClassRouter(t, &student)
		fx.classes.On("GetClass", mock.Anything, "a").Return(models.TutorClass{ID: "a", TutorID: tutor.ID}, nil).Once()
		fx.enrollments.On("IsEnrolled", mock.Anything, "a", student.ID).Return(false, nil).Once()

		rec := doRequest(router, http.MethodGet, "/classes/a/join", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestCallEvents(t *testing.T) {
	router, fx := setupClassRouter(t, &student)
	link := "https://tutor.daily.co/class-1"
	fx.classes.On("GetClass", mock.Anything, "a").Return(models.TutorClass{ID: "a", TutorID: tutor.ID, MeetingLink: strPtr(link)}, nil).Once()
	fx.enrollments.On("IsEnrolled", mock.Anything, "a", student.ID).Return(true, nil).Once()

	rec := doRequest(router, http.MethodGet, "/classes/a/call", "")
	require.Equal(t, http.StatusNotFound, rec.Code, "no call before joining")

	require.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/classes/a/join", "").Code)

	rec = doRequest(router, http.MethodPost, "/classes/a/call/events", `{"type":"toggle-audio"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	rejected := decode[struct {
		Error string         `json:"error"`
		Call  video.Snapshot `json:"call"`
	}](t, rec)
	assert.Equal(t, video.StateJoining, rejected.Call.State)

	rec = doRequest(router, http.MethodPost, "/classes/a/call/events", `{"type":"joined"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, video.StateJoined, decode[video.Snapshot](t, rec).State)

	rec = doRequest(router, http.MethodPost, "/classes/a/call/events", `{"type":"participant-joined","participant":{"id":"tutor-1","name":"Sipho Dlamini","video":true}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(router, http.MethodGet, "/classes/a/call", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[video.Snapshot](t, rec)
	require.Len(t, snap.Participants, 2)
	assert.Equal(t, student.ID, snap.Participants[0].ID)
	assert.Equal(t, "tutor-1", snap.Participants[1].ID)

	rec = doRequest(router, http.MethodPost, "/classes/a/call/events", `{"type":"left"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, video.StateLeft, decode[video.Snapshot](t, rec).State)

	rec = doRequest(router, http.MethodGet, "/classes/a/call", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "ended calls are dropped")
}

func TestCallEventBadRequests(t *testing.T) {
	router, fx := setupClassRouter(t, &student)
	fx.classes.On("GetClass", mock.Anything, "a").Return(models.TutorClass{ID: "a", TutorID: tutor.ID, MeetingLink: strPtr("https://tutor.daily.co/class-1")}, nil).Once()
	fx.enrollments.On("IsEnrolled", mock.Anything, "a", student.ID).Return(true, nil).Once()

	rec := doRequest(router, http.MethodPost, "/classes/a/call/events", `{"type":"joined"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/classes/a/join", "").Code)

	cases := map[string]string{
		"missing type": `{}`,
		"not json":     `{`,
		"unknown":      `{"type":"wave"}`,
		"no body":      `{"type":"participant-left"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(router, http.MethodPost, "/classes/a/call/events", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
