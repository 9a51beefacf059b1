package service

import (
	"context"
	"ctchen222/Todo-Tracker/internal/api/errs"
	"ctchen222/Todo-Tracker/internal/api/models"
	"ctchen222/Todo-Tracker/internal/api/repository"
	"ctchen222/Todo-Tracker/internal/validator"
	"log/slog"
	"strings"
	"time"
)

// TodoService implements the owner-scoped todo operations.
type TodoService interface {
	List(ctx context.Context, identity *models.Identity) ([]models.Todo, error)
	Get(ctx context.Context, identity *models.Identity, id int64) (*models.Todo, error)
	Create(ctx context.Context, identity *models.Identity, req *models.CreateTodoRequest) (*models.Todo, error)
	Update(ctx context.Context, identity *models.Identity, id int64, req *models.UpdateTodoRequest) (*models.Todo, error)
	Delete(ctx context.Context, identity *models.Identity, id int64) error
}

type todoService struct {
	todoRepo repository.TodoRepository
	now      func() time.Time
}

// NewTodoService creates a new TodoService.
func NewTodoService(todoRepo repository.TodoRepository) TodoService {
	return &todoService{todoRepo: todoRepo, now: time.Now}
}

func (s *todoService) List(ctx context.Context, identity *models.Identity) ([]models.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoService.List")
	defer span.End()

	return s.todoRepo.ListByUser(ctx, identity.UserID)
}

// Get returns the todo if identity owns it.
func (s *todoService) Get(ctx context.Context, identity *models.Identity, id int64) (*models.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoService.Get")
	defer span.End()

	return s.owned(ctx, identity, id)
}

func (s *todoService) Create(ctx context.Context, identity *models.Identity, req *models.CreateTodoRequest) (*models.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoService.Create")
	defer span.End()

	req.Title = strings.TrimSpace(req.Title)
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	todo := &models.Todo{
		UserID:    identity.UserID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.todoRepo.CreateTodo(ctx, todo); err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "todo created", "source", "todos", "user_id", identity.UserID, "todo_id", todo.ID)
	return todo, nil
}

// Update applies the fields present in req; absent fields keep their value.
func (s *todoService) Update(ctx context.Context, identity *models.Identity, id int64, req *models.UpdateTodoRequest) (*models.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoService.Update")
	defer span.End()

	todo, err := s.owned(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, errs.FieldError("title", "The title field is required.")
		}
		req.Title = &title
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	if req.Title != nil {
		todo.Title = *req.Title
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}
	todo.UpdatedAt = s.now().UTC()

	if err := s.todoRepo.UpdateTodo(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *todoService) Delete(ctx context.Context, identity *models.Identity, id int64) error {
	ctx, span := tracer.Start(ctx, "TodoService.Delete")
	defer span.End()

	if _, err := s.owned(ctx, identity, id); err != nil {
		return err
	}
	if err := s.todoRepo.DeleteTodo(ctx, id); err != nil {
		return err
	}
	slog.DebugContext(ctx, "todo deleted", "source", "todos", "user_id", identity.UserID, "todo_id", id)
	return nil
}
