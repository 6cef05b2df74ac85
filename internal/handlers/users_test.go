package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/moderation"
)

func setupUserRouter(t *testing.T, userID uuid.UUID) (*gin.Engine, *mocks.UserRepositoryMock, *mocks.BlockRepositoryMock, *mocks.NotifierMock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := new(mocks.UserRepositoryMock)
	blocks := new(mocks.BlockRepositoryMock)
	notifier := new(mocks.NotifierMock)
	handler := NewUserHandler(users, moderation.NewGuard(blocks, notifier), nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.GET("/users/search", handler.Search)
	r.POST("/users/:user_id/block", handler.Block)
	r.DELETE("/users/:user_id/block", handler.Unblock)
	return r, users, blocks, notifier
}

func TestUserSearch(t *testing.T) {
	userID := uuid.New()
	router, users, _, _ := setupUserRouter(t, userID)
	found := models.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}

	users.On("Search", mock.Anything, userID, "ali", userSearchLimit).
		Return([]models.User{found}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/search?query=ali", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var results []models.UserPublic
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&results))
	require.Len(t, results, 1)
	assert.Equal(t, "alice", results[0].Username)
	assert.NotContains(t, rec.Body.String(), "alice@example.com")
	users.AssertExpectations(t)
}

func TestBlockUser(t *testing.T) {
	userID := uuid.New()
	router, _, blocks, notifier := setupUserRouter(t, userID)
	target := uuid.New()

	blocks.On("Create", mock.Anything, userID, target).Return(true, nil).Once()
	notifier.On("ToUsers", []uuid.UUID{userID, target}, mock.Anything).Return().Once()

	req := httptest.NewRequest(http.MethodPost, "/users/"+target.String()+"/block", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	blocks.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestBlockSelfRejected(t *testing.T) {
	userID := uuid.New()
	router, _, blocks, _ := setupUserRouter(t, userID)

	req := httptest.NewRequest(http.MethodPost, "/users/"+userID.String()+"/block", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	blocks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestUnblockUserIdempotent(t *testing.T) {
	userID := uuid.New()
	router, _, blocks, notifier := setupUserRouter(t, userID)
	target := uuid.New()

	blocks.On("Delete", mock.Anything, userID, target).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/users/"+target.String()+"/block", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	notifier.AssertNotCalled(t, "ToUsers", mock.Anything, mock.Anything)
}

func TestBlockInvalidUserID(t *testing.T) {
	router, _, _, _ := setupUserRouter(t, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/users/nope/block", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
