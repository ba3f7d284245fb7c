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
	"hushgram-service/internal/ws"
)

func newGroupRouter(groupRepo *mocks.GroupRepositoryMock, messageRepo *mocks.MessageRepositoryMock, userRepo *mocks.UserRepositoryMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewGroupHandler(groupRepo, messageRepo, userRepo, ws.NewHub(), nil)

	router := gin.New()
	router.POST("/groups", asUser(1), h.CreateGroup)
	router.POST("/groups/:group_id/join", asUser(1), h.JoinGroup)
	router.POST("/groups/:group_id/leave", asUser(1), h.LeaveGroup)
	router.GET("/groups/:group_id/members", asUser(1), h.ListMembers)
	router.GET("/groups/:group_id/messages", asUser(1), h.GetGroupMessages)
	router.POST("/groups/:group_id/messages", asUser(1), h.PostGroupMessage)
	return router
}

func TestCreateGroup(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	router := newGroupRouter(groupRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))

	groupRepo.On("CreateGroup", mock.Anything, "gophers").
		Return(models.Group{ID: 4, Name: "gophers"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups", bytes.NewBufferString(`{"name":"gophers"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"group_id":4}`, rec.Body.String())
}

func TestJoinGroupSuccess(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	router := newGroupRouter(groupRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))

	groupRepo.On("GetGroup", mock.Anything, 4).Return(models.Group{ID: 4, Name: "gophers"}, nil).Once()
	groupRepo.On("Join", mock.Anything, 4, 1).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups/4/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	groupRepo.AssertExpectations(t)
}

func TestJoinGroupNotFound(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	router := newGroupRouter(groupRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))

	groupRepo.On("GetGroup", mock.Anything, 99).Return(models.Group{}, repositories.ErrGroupNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups/99/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	groupRepo.AssertNotCalled(t, "Join", mock.Anything, mock.Anything, mock.Anything)
}

func TestLeaveGroup(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	router := newGroupRouter(groupRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))

	groupRepo.On("Leave", mock.Anything, 4, 1).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups/4/leave", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListMembers(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	router := newGroupRouter(groupRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))

	groupRepo.On("GetGroup", mock.Anything, 4).Return(models.Group{ID: 4, Name: "gophers", MemberCount: 2}, nil).Once()
	groupRepo.On("ListMembers", mock.Anything, 4).Return([]models.GroupMembership{
		{ID: 1, GroupID: 4, UserID: 1},
		{ID: 2, GroupID: 4, UserID: 2},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/groups/4/members", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"member_count":2`)
}

func TestGetGroupMessagesNotMember(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	router := newGroupRouter(groupRepo, messageRepo, new(mocks.UserRepositoryMock))

	groupRepo.On("IsMember", mock.Anything, 4, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/groups/4/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messageRepo.AssertNotCalled(t, "ListGroupMessages", mock.Anything, mock.Anything)
}

func TestGetGroupMessagesSuccess(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	router := newGroupRouter(groupRepo, messageRepo, userRepo)

	groupRepo.On("IsMember", mock.Anything, 4, 1).Return(true, nil).Once()
	messageRepo.On("ListGroupMessages", mock.Anything, 4).Return([]models.Message{
		{ID: 1, SenderID: 2, GroupID: intPtr(4), Content: "welcome"},
	}, nil).Once()
	userRepo.On("ListByIDs", mock.Anything, []int{2}).
		Return([]models.User{{ID: 2, Username: "bob"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/groups/4/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sender_username":"bob"`)
}

func TestPostGroupMessageNotMember(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	router := newGroupRouter(groupRepo, messageRepo, new(mocks.UserRepositoryMock))

	groupRepo.On("IsMember", mock.Anything, 4, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups/4/messages", bytes.NewBufferString(`{"content":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messageRepo.AssertNotCalled(t, "CreateGroupMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPostGroupMessageSuccess(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	router := newGroupRouter(groupRepo, messageRepo, new(mocks.UserRepositoryMock))

	groupRepo.On("IsMember", mock.Anything, 4, 1).Return(true, nil).Once()
	messageRepo.On("CreateGroupMessage", mock.Anything, 1, 4, "hi all").
		Return(models.Message{ID: 8, SenderID: 1, GroupID: intPtr(4), Content: "hi all"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups/4/messages", bytes.NewBufferString(`{"content":"hi all"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestParseGroupIDInvalid(t *testing.T) {
	router := newGroupRouter(new(mocks.GroupRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))

	req := httptest.NewRequest(http.MethodPost, "/groups/abc/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
