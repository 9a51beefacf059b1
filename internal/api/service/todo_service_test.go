package service

import (
	"context"
	"ctchen222/Todo-Tracker/internal/api/errs"
	"ctchen222/Todo-Tracker/internal/api/models"
	"ctchen222/Todo-Tracker/internal/api/repository/mocks"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	alice = &models.Identity{UserID: 1, Email: "alice@x.com"}
	bob   = &models.Identity{UserID: 2, Email: "bob@x.com"}
)

func newTodoService(t *testing.T) (*todoService, *mocks.MockTodoRepository) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockTodoRepository(ctrl)
	svc := NewTodoService(repo).(*todoService)
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }
	return svc, repo
}

func ptr[T any](v T) *T { return &v }

func TestTodoService_Create(t *testing.T) {
	svc, repo := newTodoService(t)

	repo.EXPECT().CreateTodo(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, todo *models.Todo) error {
		todo.ID = 10
		return nil
	})

	todo, err := svc.Create(context.Background(), alice, &models.CreateTodoRequest{Title: "  buy milk "})
	require.NoError(t, err)
	assert.Equal(t, int64(10), todo.ID)
	assert.Equal(t, "buy milk", todo.Title)
	assert.False(t, todo.Completed)
	assert.Equal(t, alice.UserID, todo.UserID)
}

func TestTodoService_CreateRequiresTitle(t *testing.T) {
	svc, _ := newTodoService(t)

	for _, title := range []string{"", "   "} {
		_, err := svc.Create(context.Background(), alice, &models.CreateTodoRequest{Title: title})
		v, ok := errs.AsValidation(err)
		require.True(t, ok, "title %q: got %v", title, err)
		assert.Contains(t, v.Fields, "title")
	}
}

func TestTodoService_UpdatePartial(t *testing.T) {
	svc, repo := newTodoService(t)
	stored := &models.Todo{ID: 5, UserID: alice.UserID, Title: "buy milk"}

	repo.EXPECT().GetTodo(gomock.Any(), int64(5)).Return(stored, nil)
	repo.EXPECT().UpdateTodo(gomock.Any(), gomock.Any()).Return(nil)

	todo, err := svc.Update(context.Background(), alice, 5, &models.UpdateTodoRequest{Completed: ptr(true)})
	require.NoError(t, err)
	assert.True(t, todo.Completed)
	assert.Equal(t, "buy milk", todo.Title, "unspecified fields stay unchanged")
	assert.Equal(t, svc.now(), todo.UpdatedAt)
}

func TestTodoService_UpdateRejectsEmptyTitle(t *testing.T) {
	svc, repo := newTodoService(t)
	repo.EXPECT().GetTodo(gomock.Any(), int64(5)).Return(&models.Todo{ID: 5, UserID: alice.UserID, Title: "x"}, nil)

	_, err := svc.Update(context.Background(), alice, 5, &models.UpdateTodoRequest{Title: ptr(" ")})
	_, ok := errs.AsValidation(err)
	assert.True(t, ok, "got %v", err)
}

func TestTodoService_OwnershipGuard(t *testing.T) {
	svc, repo := newTodoService(t)
	alicesTodo := &models.Todo{ID: 5, UserID: alice.UserID, Title: "secret"}

	repo.EXPECT().GetTodo(gomock.Any(), int64(5)).Return(alicesTodo, nil).Times(2)
	repo.EXPECT().GetTodo(gomock.Any(), int64(99)).Return(nil, nil).Times(2)

	_, err := svc.Update(context.Background(), bob, 5, &models.UpdateTodoRequest{Title: ptr("mine now")})
	assert.ErrorIs(t, err, errs.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(context.Background(), bob, 5), errs.ErrForbidden)

	_, err = svc.Update(context.Background(), bob, 99, &models.UpdateTodoRequest{})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), bob, 99), errs.ErrNotFound)

	assert.Equal(t, "secret", alicesTodo.Title, "a rejected update must not touch the record")
}

func TestTodoService_Get(t *testing.T) {
	svc, repo := newTodoService(t)
	alicesTodo := &models.Todo{ID: 5, UserID: alice.UserID, Title: "secret"}
	repo.EXPECT().GetTodo(gomock.Any(), int64(5)).Return(alicesTodo, nil).Times(2)
	repo.EXPECT().GetTodo(gomock.Any(), int64(99)).Return(nil, nil)

	got, err := svc.Get(context.Background(), alice, 5)
	require.NoError(t, err)
	assert.Same(t, alicesTodo, got)

	_, err = svc.Get(context.Background(), bob, 5)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = svc.Get(context.Background(), alice, 99)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestTodoService_DeleteOwned(t *testing.T) {
	svc, repo := newTodoService(t)

	gomock.InOrder(
		repo.EXPECT().GetTodo(gomock.Any(), int64(5)).Return(&models.Todo{ID: 5, UserID: alice.UserID}, nil),
		repo.EXPECT().DeleteTodo(gomock.Any(), int64(5)).Return(nil),
	)
	assert.NoError(t, svc.Delete(context.Background(), alice, 5))
}

func TestTodoService_ListScopedToOwner(t *testing.T) {
	svc, repo := newTodoService(t)
	repo.EXPECT().ListByUser(gomock.Any(), bob.UserID).Return([]models.Todo{}, nil)

	todos, err := svc.List(context.Background(), bob)
	require.NoError(t, err)
	assert.Empty(t, todos)
}
