package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"booklibrary/internal/auth"
	"booklibrary/internal/entity"
	"booklibrary/internal/store/mocks"
	"booklibrary/internal/testutil"
	"booklibrary/internal/usecase"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestUserHandler(t *testing.T) (*UserHandler, *mocks.MockUserRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockRepo := mocks.NewMockUserRepository(ctrl)
	return NewUserHandler(mockRepo, testSecret), mockRepo
}

func TestUserHandler_Register(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler, mockRepo := newTestUserHandler(t)
		mockRepo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, u *entity.User) error {
				u.ID = "user-1"
				return nil
			})

		r := testutil.NewRequest(http.MethodPost, "/users/register", map[string]string{
			"email":    "reader@example.com",
			"username": "reader",
			"password": "correct horse",
		})
		w := httptest.NewRecorder()

		handler.Register(w, r)

		resp := testutil.RecordHTTPResponse(w)
		require.Equal(t, http.StatusCreated, resp.Code)
		data := resp.Body["data"].(map[string]interface{})
		assert.Equal(t, "user-1", data["id"])
	})

	t.Run("duplicate email", func(t *testing.T) {
		handler, mockRepo := newTestUserHandler(t)
		mockRepo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			Return(usecase.ErrAlreadyExists)

		r := testutil.NewRequest(http.MethodPost, "/users/register", map[string]string{
			"email":    "reader@example.com",
			"username": "reader",
			"password": "correct horse",
		})
		w := httptest.NewRecorder()

		handler.Register(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid email is recovered locally", func(t *testing.T) {
		handler, _ := newTestUserHandler(t)

		r := testutil.NewRequest(http.MethodPost, "/users/register", map[string]string{
			"email":    "not-an-email",
			"username": "reader",
			"password": "correct horse",
		})
		w := httptest.NewRecorder()

		handler.Register(w, r)

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "error", resp.Body["status"])
	})
}

func TestUserHandler_Login(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	storedUser := entity.User{ID: "user-1", Email: "reader@example.com", Password: hash}

	t.Run("success returns a token", func(t *testing.T) {
		handler, mockRepo := newTestUserHandler(t)
		mockRepo.EXPECT().
			GetByEmail(gomock.Any(), "reader@example.com").
			Return(storedUser, nil)

		r := testutil.NewRequest(http.MethodPost, "/users/login", map[string]string{
			"email":    "reader@example.com",
			"password": "correct horse",
		})
		w := httptest.NewRecorder()

		handler.Login(w, r)

		resp := testutil.RecordHTTPResponse(w)
		require.Equal(t, http.StatusOK, resp.Code)
		data := resp.Body["data"].(map[string]interface{})
		token := data["access_token"].(string)
		claims, err := auth.ParseToken(testSecret, token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Sub)
	})

	t.Run("wrong password", func(t *testing.T) {
		handler, mockRepo := newTestUserHandler(t)
		mockRepo.EXPECT().
			GetByEmail(gomock.Any(), "reader@example.com").
			Return(storedUser, nil)

		r := testutil.NewRequest(http.MethodPost, "/users/login", map[string]string{
			"email":    "reader@example.com",
			"password": "wrong horse",
		})
		w := httptest.NewRecorder()

		handler.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		handler, mockRepo := newTestUserHandler(t)
		mockRepo.EXPECT().
			GetByEmail(gomock.Any(), "ghost@example.com").
			Return(entity.User{}, usecase.ErrNotFound)

		r := testutil.NewRequest(http.MethodPost, "/users/login", map[string]string{
			"email":    "ghost@example.com",
			"password": "whatever1",
		})
		w := httptest.NewRecorder()

		handler.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUserHandler_DeleteMe(t *testing.T) {
	t.Run("restricted while books exist", func(t *testing.T) {
		handler, mockRepo := newTestUserHandler(t)
		mockRepo.EXPECT().
			Delete(gomock.Any(), testutil.TestOwnerID).
			Return(usecase.ErrHasBooks)

		r := testutil.AsOwner(testutil.NewRequest(http.MethodDelete, "/me", nil), testutil.TestOwnerID)
		w := httptest.NewRecorder()

		handler.DeleteMe(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		handler, mockRepo := newTestUserHandler(t)
		mockRepo.EXPECT().
			Delete(gomock.Any(), testutil.TestOwnerID).
			Return(nil)

		r := testutil.AsOwner(testutil.NewRequest(http.MethodDelete, "/me", nil), testutil.TestOwnerID)
		w := httptest.NewRecorder()

		handler.DeleteMe(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
