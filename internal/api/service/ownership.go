package service

import (
	"context"
	"ctchen222/Todo-Tracker/internal/api/errs"
	"ctchen222/Todo-Tracker/internal/api/models"
	"log/slog"
)

// owned loads the todo and checks it belongs to identity. A missing todo is
// ErrNotFound and someone else's todo is ErrForbidden, so callers can tell them apart.
func (s *todoService) owned(ctx context.Context, identity *models.Identity, id int64) (*models.Todo, error) {
	todo, err := s.todoRepo.GetTodo(ctx, id)
	if err != nil {
		return nil, err
	}
	if todo == nil {
		return nil, errs.ErrNotFound
	}
	if todo.UserID != identity.UserID {
		slog.WarnContext(ctx, "todo access denied", "source", "todos", "user_id", identity.UserID, "todo_id", id, "owner_id", todo.UserID)
		return nil, errs.ErrForbidden
	}
	return todo, nil
}
