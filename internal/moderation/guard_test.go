package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/service"
)

func TestGuard_CanSendAllowed(t *testing.T) {
	blocks := new(mocks.BlockRepositoryMock)
	notifier := new(mocks.NotifierMock)
	guard := NewGuard(blocks, notifier)

	sender := uuid.New()
	other := uuid.New()
	blocks.On("AnyBlocking", mock.Anything, []uuid.UUID{other}, sender).Return(false, nil)

	err := guard.CanSend(context.Background(), sender, []uuid.UUID{sender, other})
	assert.NoError(t, err)
	blocks.AssertExpectations(t)
}

func TestGuard_CanSendBlockedByParticipant(t *testing.T) {
	blocks := new(mocks.BlockRepositoryMock)
	notifier := new(mocks.NotifierMock)
	guard := NewGuard(blocks, notifier)

	sender := uuid.New()
	other := uuid.New()
	blocks.On("AnyBlocking", mock.Anything, []uuid.UUID{other}, sender).Return(true, nil)

	err := guard.CanSend(context.Background(), sender, []uuid.UUID{sender, other})
	require.Error(t, err)
	kind, ok := service.ErrorKind(err)
	require.True(t, ok)
	assert.Equal(t, service.KindBlocked, kind)
}

func TestGuard_CanSendNoOtherParticipants(t *testing.T) {
	blocks := new(mocks.BlockRepositoryMock)
	notifier := new(mocks.NotifierMock)
	guard := NewGuard(blocks, notifier)

	sender := uuid.New()
	err := guard.CanSend(context.Background(), sender, []uuid.UUID{sender})
	assert.NoError(t, err)
	blocks.AssertNotCalled(t, "AnyBlocking", mock.Anything, mock.Anything, mock.Anything)
}

func TestGuard_BlockUserNotifiesOnStateChange(t *testing.T) {
	blocks := new(mocks.BlockRepositoryMock)
	notifier := new(mocks.NotifierMock)
	guard := NewGuard(blocks, notifier)

	blocker := uuid.New()
	blocked := uuid.New()
	blocks.On("Create", mock.Anything, blocker, blocked).Return(true, nil)
	notifier.On("ToUsers", []uuid.UUID{blocker, blocked}, models.UserBlockEvent{
		Type:      models.EventTypeUserBlockUpdate,
		BlockerID: blocker,
		BlockedID: blocked,
		IsBlocked: true,
	}).Return()

	require.NoError(t, guard.BlockUser(context.Background(), blocker, blocked))
	notifier.AssertExpectations(t)
}

func TestGuard_BlockUserIdempotentWithoutNotification(t *testing.T) {
	blocks := new(mocks.BlockRepositoryMock)
	notifier := new(mocks.NotifierMock)
	guard := NewGuard(blocks, notifier)

	blocker := uuid.New()
	blocked := uuid.New()
	blocks.On("Create", mock.Anything, blocker, blocked).Return(false, nil)

	require.NoError(t, guard.BlockUser(context.Background(), blocker, blocked))
	notifier.AssertNotCalled(t, "ToUsers", mock.Anything, mock.Anything)
}

func TestGuard_BlockSelfRejected(t *testing.T) {
	blocks := new(mocks.BlockRepositoryMock)
	notifier := new(mocks.NotifierMock)
	guard := NewGuard(blocks, notifier)

	self := uuid.New()
	err := guard.BlockUser(context.Background(), self, self)
	require.Error(t, err)
	kind, ok := service.ErrorKind(err)
	require.True(t, ok)
	assert.Equal(t, service.KindInvalidArgument, kind)
	blocks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestGuard_UnblockUserIdempotent(t *testing.T) {
	blocks := new(mocks.BlockRepositoryMock)
	notifier := new(mocks.NotifierMock)
	guard := NewGuard(blocks, notifier)

	blocker := uuid.New()
	blocked := uuid.New()
	blocks.On("Delete", mock.Anything, blocker, blocked).Return(false, nil)

	require.NoError(t, guard.UnblockUser(context.Background(), blocker, blocked))
	notifier.AssertNotCalled(t, "ToUsers", mock.Anything, mock.Anything)
}

func TestGuard_UnblockUserNotifiesOnStateChange(t *testing.T) {
	blocks := new(mocks.BlockRepositoryMock)
	notifier := new(mocks.NotifierMock)
	guard := NewGuard(blocks, notifier)

	blocker := uuid.New()
	blocked := uuid.New()
	blocks.On("Delete", mock.Anything, blocker, blocked).Return(true, nil)
	notifier.On("ToUsers", []uuid.UUID{blocker, blocked}, models.UserBlockEvent{
		Type:      models.EventTypeUserBlockUpdate,
		BlockerID: blocker,
		BlockedID: blocked,
		IsBlocked: false,
	}).Return()

	require.NoError(t, guard.UnblockUser(context.Background(), blocker, blocked))
	notifier.AssertExpectations(t)
}

func TestGuard_CanSendRepositoryError(t *testing.T) {
	blocks := new(mocks.BlockRepositoryMock)
	notifier := new(mocks.NotifierMock)
	guard := NewGuard(blocks, notifier)

	sender := uuid.New()
	other := uuid.New()
	blocks.On("AnyBlocking", mock.Anything, []uuid.UUID{other}, sender).Return(false, errors.New("db down"))

	err := guard.CanSend(context.Background(), sender, []uuid.UUID{sender, other})
	require.Error(t, err)
	_, ok := service.ErrorKind(err)
	assert.False(t, ok)
}
