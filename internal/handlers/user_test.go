package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hushgram-service/internal/mocks"
	"hushgram-service/internal/models"
	"hushgram-service/internal/repositories"
	"hushgram-service/internal/tasks"
)

func asUser(userID int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

func newUserRouter(userRepo *mocks.UserRepositoryMock, queue *mocks.QueueMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewUserHandler(userRepo, queue, nil)

	router := gin.New()
	router.POST("/users", h.CreateOrResume)
	router.GET("/users/me", h.GetCurrentUser)
	router.GET("/users/online", h.ListOnlineUsers)
	router.POST("/users/me/status", asUser(1), h.SetOnlineStatus)
	router.POST("/users/me/logout", asUser(1), h.Logout)
	return router
}

func TestCreateOrResumeSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := newUserRouter(userRepo, new(mocks.QueueMock))

	userRepo.On("CreateOrResume", mock.Anything, "alice", "sess-1").
		Return(models.User{ID: 5, Username: "alice"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(`{"username":"alice"}`))
	req.Header.Set("X-Session-Id", "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"user_id":5}`, rec.Body.String())
	userRepo.AssertExpectations(t)
}

func TestCreateOrResumeUsernameTaken(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := newUserRouter(userRepo, new(mocks.QueueMock))

	userRepo.On("CreateOrResume", mock.Anything, "alice", "sess-2").
		Return(models.User{}, repositories.ErrUsernameTaken).Once()

	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(`{"username":"alice"}`))
	req.Header.Set("X-Session-Id", "sess-2")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateOrResumeMissingSession(t *testing.T) {
	router := newUserRouter(new(mocks.UserRepositoryMock), new(mocks.QueueMock))

	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(`{"username":"alice"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrResumeInvalidBody(t *testing.T) {
	router := newUserRouter(new(mocks.UserRepositoryMock), new(mocks.QueueMock))

	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(`{}`))
	req.Header.Set("X-Session-Id", "sess-3")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCurrentUserUnknownSessionReturnsNull(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := newUserRouter(userRepo, new(mocks.QueueMock))

	userRepo.On("FindBySession", mock.Anything, "gone").
		Return(models.User{}, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("X-Session-Id", "gone")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":null}`, rec.Body.String())
}

func TestListOnlineUsers(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := newUserRouter(userRepo, new(mocks.QueueMock))

	userRepo.On("ListOnline", mock.Anything).
		Return([]models.User{{ID: 1, Username: "alice", IsOnline: true}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/online", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alice"`)
}

func TestSetOnlineStatusHeartbeat(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := newUserRouter(userRepo, new(mocks.QueueMock))

	userRepo.On("SetOnlineStatus", mock.Anything, 1, true).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/users/me/status", bytes.NewBufferString(`{"is_online":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestSetOnlineStatusInvalidBody(t *testing.T) {
	router := newUserRouter(new(mocks.UserRepositoryMock), new(mocks.QueueMock))

	req := httptest.NewRequest(http.MethodPost, "/users/me/status", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutSchedulesCleanup(t *testing.T) {
	queue := new(mocks.QueueMock)
	router := newUserRouter(new(mocks.UserRepositoryMock), queue)

	queue.On("Enqueue", mock.Anything, mock.MatchedBy(func(task tasks.Task) bool {
		return task.Type == tasks.TaskUserCleanup && task.UserID == 1
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/users/me/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// 202: the cascading delete runs on a worker, never on the request path.
	require.Equal(t, http.StatusAccepted, rec.Code)
	queue.AssertExpectations(t)
}

func TestLogoutEnqueueFailure(t *testing.T) {
	queue := new(mocks.QueueMock)
	router := newUserRouter(new(mocks.UserRepositoryMock), queue)

	queue.On("Enqueue", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	req := httptest.NewRequest(http.MethodPost, "/users/me/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
