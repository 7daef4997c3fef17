package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tutoring-service/internal/mocks"
	"tutoring-service/internal/rooms"
	"tutoring-service/internal/telemetry"
)

type activeStub int

func (a activeStub) Active() int { return int(a) }

func TestCreateRoom(t *testing.T) {
	provisioner := new(mocks.ProvisionerMock)
	r := newRouter(&tutor)
	r.POST("/rooms", NewRoomHandler(provisioner, nil).CreateRoom)

	provisioner.On("CreateRoom", mock.Anything, "Physics Revision").
		Return(rooms.Room{Name: "class-1-abc123", URL: "https://tutor.daily.co/class-1-abc123"}, nil).Once()

	rec := doRequest(r, http.MethodPost, "/rooms", `{"className":"Physics Revision"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"url":"https://tutor.daily.co/class-1-abc123"}`, rec.Body.String())
	provisioner.AssertExpectations(t)
}

func TestCreateRoomFailure(t *testing.T) {
	provisioner := new(mocks.ProvisionerMock)
	r := newRouter(&tutor)
	r.POST("/rooms", NewRoomHandler(provisioner, nil).CreateRoom)

	provisioner.On("CreateRoom", mock.Anything, "").Return(nil, rooms.ErrNotConfigured).Once()

	rec := doRequest(r, http.MethodPost, "/rooms", `{}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"DAILY_API_KEY not configured"}`, rec.Body.String())
}

func TestDebugRoutes(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		r := newRouter(nil)
		RegisterDebugRoutes(r, nil, activeStub(2), false)
		assert.Equal(t, http.StatusNotFound, doRequest(r, http.MethodGet, "/debug/feed", "").Code)
	})

	t.Run("enabled", func(t *testing.T) {
		pub := new(mocks.PublisherMock)
		pub.On("Publish", mock.Anything, "audit.tutoring", mock.Anything).Return(nil).Once()
		r := newRouter(&tutor)
		RegisterDebugRoutes(r, telemetry.NewAuditEmitter(pub, "audit.tutoring", "tutoring-service", "test"), activeStub(2), true)

		rec := doRequest(r, http.MethodGet, "/debug/feed", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"active_subscriptions":2}`, rec.Body.String())

		rec = doRequest(r, http.MethodGet, "/debug/audit-test", "")
		require.Equal(t, http.StatusOK, rec.Code)
		pub.AssertExpectations(t)
	})
}
