package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"hushgram-service/internal/models"
	"hushgram-service/internal/repositories"
	"hushgram-service/internal/tasks"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) CreateOrResume(ctx context.Context, username, sessionID string) (models.User, error) {
	args := m.Called(ctx, username, sessionID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) FindBySession(ctx context.Context, sessionID string) (models.User, error) {
	args := m.Called(ctx, sessionID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) FindByID(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ListByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) SetOnlineStatus(ctx context.Context, userID int, isOnline bool) error {
	args := m.Called(ctx, userID, isOnline)
	return args.Error(0)
}

func (m *UserRepositoryMock) ListOnline(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) ListIdle(ctx context.Context, olderThan time.Time) ([]int, error) {
	args := m.Called(ctx, olderThan)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *UserRepositoryMock) Delete(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreatePrivateMessage(ctx context.Context, senderID, recipientID int, content string) (models.Message, error) {
	args := m.Called(ctx, senderID, recipientID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) CreateGroupMessage(ctx context.Context, senderID, groupID int, content string) (models.Message, error) {
	args := m.Called(ctx, senderID, groupID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListConversation(ctx context.Context, userID, otherID int) ([]models.Message, error) {
	args := m.Called(ctx, userID, otherID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) ListGroupMessages(ctx context.Context, groupID int) ([]models.Message, error) {
	args := m.Called(ctx, groupID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkSeen(ctx context.Context, messageID, recipientID int) error {
	args := m.Called(ctx, messageID, recipientID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) DeleteBySender(ctx context.Context, senderID int) (int64, error) {
	args := m.Called(ctx, senderID)
	return args.Get(0).(int64), args.Error(1)
}

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, name string) (models.Group, error) {
	args := m.Called(ctx, name)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) IsMember(ctx context.Context, groupID, userID int) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) Join(ctx context.Context, groupID, userID int) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) Leave(ctx context.Context, groupID, userID int) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) ListMembers(ctx context.Context, groupID int) ([]models.GroupMembership, error) {
	args := m.Called(ctx, groupID)
	var members []models.GroupMembership
	if val := args.Get(0); val != nil {
		members = val.([]models.GroupMembership)
	}
	return members, args.Error(1)
}

func (m *GroupRepositoryMock) ListMembershipsForUser(ctx context.Context, userID int) ([]models.GroupMembership, error) {
	args := m.Called(ctx, userID)
	var members []models.GroupMembership
	if val := args.Get(0); val != nil {
		members = val.([]models.GroupMembership)
	}
	return members, args.Error(1)
}

func (m *GroupRepositoryMock) RemoveMembership(ctx context.Context, membershipID, groupID int) error {
	args := m.Called(ctx, membershipID, groupID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) ReconcileMemberCounts(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type SessionStateRepositoryMock struct {
	mock.Mock
}

func (m *SessionStateRepositoryMock) SetActiveChat(ctx context.Context, userID int, chatKey string) (models.ActiveChat, error) {
	args := m.Called(ctx, userID, chatKey)
	var marker models.ActiveChat
	if val := args.Get(0); val != nil {
		marker = val.(models.ActiveChat)
	}
	return marker, args.Error(1)
}

func (m *SessionStateRepositoryMock) GetActiveChat(ctx context.Context, userID int) (models.ActiveChat, error) {
	args := m.Called(ctx, userID)
	var marker models.ActiveChat
	if val := args.Get(0); val != nil {
		marker = val.(models.ActiveChat)
	}
	return marker, args.Error(1)
}

func (m *SessionStateRepositoryMock) SetTyping(ctx context.Context, userID int, chatKey string, isTyping bool) (models.TypingIndicator, error) {
	args := m.Called(ctx, userID, chatKey, isTyping)
	var indicator models.TypingIndicator
	if val := args.Get(0); val != nil {
		indicator = val.(models.TypingIndicator)
	}
	return indicator, args.Error(1)
}

func (m *SessionStateRepositoryMock) ListTypingForChat(ctx context.Context, chatKey string) ([]models.TypingIndicator, error) {
	args := m.Called(ctx, chatKey)
	var indicators []models.TypingIndicator
	if val := args.Get(0); val != nil {
		indicators = val.([]models.TypingIndicator)
	}
	return indicators, args.Error(1)
}

func (m *SessionStateRepositoryMock) DeleteActiveChatsForUser(ctx context.Context, userID int) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SessionStateRepositoryMock) DeleteTypingForUser(ctx context.Context, userID int) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type QueueMock struct {
	mock.Mock
}

func (m *QueueMock) Enqueue(ctx context.Context, task tasks.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.GroupRepository = (*GroupRepositoryMock)(nil)
var _ repositories.SessionStateRepository = (*SessionStateRepositoryMock)(nil)
var _ tasks.Queue = (*QueueMock)(nil)
