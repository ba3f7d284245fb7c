package cleanup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hushgram-service/internal/mocks"
	"hushgram-service/internal/models"
)

func newMocks() (*mocks.UserRepositoryMock, *mocks.MessageRepositoryMock, *mocks.GroupRepositoryMock, *mocks.SessionStateRepositoryMock) {
	return new(mocks.UserRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.GroupRepositoryMock), new(mocks.SessionStateRepositoryMock)
}

func TestDeleteUserAndDataStageOrder(t *testing.T) {
	users, messages, groups, state := newMocks()

	var order []string
	record := func(stage string) func(mock.Arguments) {
		return func(mock.Arguments) { order = append(order, stage) }
	}

	messages.On("DeleteBySender", mock.Anything, 7).Return(int64(3), nil).Run(record("messages")).Once()
	groups.On("ListMembershipsForUser", mock.Anything, 7).Return([]models.GroupMembership{
		{ID: 1, GroupID: 4, UserID: 7},
		{ID: 2, GroupID: 5, UserID: 7},
	}, nil).Once()
	groups.On("RemoveMembership", mock.Anything, 1, 4).Return(nil).Run(record("membership")).Once()
	groups.On("RemoveMembership", mock.Anything, 2, 5).Return(nil).Run(record("membership")).Once()
	state.On("DeleteActiveChatsForUser", mock.Anything, 7).Return(int64(1), nil).Run(record("active_chats")).Once()
	state.On("DeleteTypingForUser", mock.Anything, 7).Return(int64(2), nil).Run(record("typing")).Once()
	users.On("Delete", mock.Anything, 7).Return(nil).Run(record("user")).Once()

	w := NewWorkflow(users, messages, groups, state)
	require.NoError(t, w.DeleteUserAndData(context.Background(), 7))

	require.Equal(t, []string{"messages", "membership", "membership", "active_chats", "typing", "user"}, order)
	users.AssertExpectations(t)
	messages.AssertExpectations(t)
	groups.AssertExpectations(t)
	state.AssertExpectations(t)
}

func TestDeleteUserAndDataIdempotentWhenNothingLeft(t *testing.T) {
	users, messages, groups, state := newMocks()

	// Second invocation after a completed run: every scan comes back empty
	// and every delete hits nothing. That must not be an error.
	messages.On("DeleteBySender", mock.Anything, 7).Return(int64(0), nil).Once()
	groups.On("ListMembershipsForUser", mock.Anything, 7).Return([]models.GroupMembership(nil), nil).Once()
	state.On("DeleteActiveChatsForUser", mock.Anything, 7).Return(int64(0), nil).Once()
	state.On("DeleteTypingForUser", mock.Anything, 7).Return(int64(0), nil).Once()
	users.On("Delete", mock.Anything, 7).Return(nil).Once()

	w := NewWorkflow(users, messages, groups, state)
	require.NoError(t, w.DeleteUserAndData(context.Background(), 7))

	groups.AssertNotCalled(t, "RemoveMembership", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteUserAndDataAbortsOnMessageError(t *testing.T) {
	users, messages, groups, state := newMocks()

	messages.On("DeleteBySender", mock.Anything, 7).Return(int64(0), assert.AnError).Once()

	w := NewWorkflow(users, messages, groups, state)
	err := w.DeleteUserAndData(context.Background(), 7)
	require.Error(t, err)

	// Later stages stay untouched; the queue's redelivery will rerun the
	// whole workflow from the top.
	groups.AssertNotCalled(t, "ListMembershipsForUser", mock.Anything, mock.Anything)
	state.AssertNotCalled(t, "DeleteActiveChatsForUser", mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteUserAndDataStopsAtFailingMembership(t *testing.T) {
	users, messages, groups, state := newMocks()

	messages.On("DeleteBySender", mock.Anything, 7).Return(int64(1), nil).Once()
	groups.On("ListMembershipsForUser", mock.Anything, 7).Return([]models.GroupMembership{
		{ID: 1, GroupID: 4, UserID: 7},
		{ID: 2, GroupID: 5, UserID: 7},
	}, nil).Once()
	groups.On("RemoveMembership", mock.Anything, 1, 4).Return(assert.AnError).Once()

	w := NewWorkflow(users, messages, groups, state)
	require.Error(t, w.DeleteUserAndData(context.Background(), 7))

	groups.AssertNotCalled(t, "RemoveMembership", mock.Anything, 2, 5)
	users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteUserAndDataUserRowGoesLast(t *testing.T) {
	users, messages, groups, state := newMocks()

	messages.On("DeleteBySender", mock.Anything, 9).Return(int64(0), nil).Once()
	groups.On("ListMembershipsForUser", mock.Anything, 9).Return([]models.GroupMembership(nil), nil).Once()
	state.On("DeleteActiveChatsForUser", mock.Anything, 9).Return(int64(0), nil).Once()
	state.On("DeleteTypingForUser", mock.Anything, 9).Return(int64(0), assert.AnError).Once()

	w := NewWorkflow(users, messages, groups, state)
	require.Error(t, w.DeleteUserAndData(context.Background(), 9))

	// The user stays resolvable until every owned row is gone.
	users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
