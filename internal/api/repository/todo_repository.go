package repository

//go:generate mockgen -source=todo_repository.go -destination=mocks/mock_todo_repository.go -package=mocks

import (
	"context"
	"ctchen222/Todo-Tracker/internal/api/models"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TodoRepository defines the interface for todo data operations.
type TodoRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Todo, error)
	GetTodo(ctx context.Context, id int64) (*models.Todo, error)
	CreateTodo(ctx context.Context, todo *models.Todo) error
	UpdateTodo(ctx context.Context, todo *models.Todo) error
	DeleteTodo(ctx context.Context, id int64) error
}

type sqlTodoRepository struct {
	db *sqlx.DB
}

// NewTodoRepository creates a new SQL-backed TodoRepository.
func NewTodoRepository(db *sqlx.DB) TodoRepository {
	return &sqlTodoRepository{db: db}
}

const todoColumns = `id, user_id, title, completed, created_at, updated_at`

// ListByUser returns the user's todos in insertion order.
func (r *sqlTodoRepository) ListByUser(ctx context.Context, userID int64) ([]models.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoRepository.ListByUser")
	defer span.End()

	todos := []models.Todo{}
	query := r.db.Rebind(`SELECT ` + todoColumns + ` FROM todos WHERE user_id = ? ORDER BY id`)
	if err := r.db.SelectContext(ctx, &todos, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// GetTodo returns the todo with id, or nil if there is none.
func (r *sqlTodoRepository) GetTodo(ctx context.Context, id int64) (*models.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoRepository.GetTodo")
	defer span.End()

	var todo models.Todo
	query := r.db.Rebind(`SELECT ` + todoColumns + ` FROM todos WHERE id = ?`)
	if err := r.db.GetContext(ctx, &todo, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return &todo, nil
}

// CreateTodo inserts todo and sets its ID.
func (r *sqlTodoRepository) CreateTodo(ctx context.Context, todo *models.Todo) error {
	ctx, span := tracer.Start(ctx, "TodoRepository.CreateTodo")
	defer span.End()

	query := r.db.Rebind(`INSERT INTO todos (user_id, title, completed, created_at, updated_at) VALUES (?, ?, ?, ?, ?) RETURNING id`)
	err := r.db.GetContext(ctx, &todo.ID, query, todo.UserID, todo.Title, todo.Completed, todo.CreatedAt, todo.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

// UpdateTodo writes title, completed and updated_at. The owner is never changed.
func (r *sqlTodoRepository) UpdateTodo(ctx context.Context, todo *models.Todo) error {
	ctx, span := tracer.Start(ctx, "TodoRepository.UpdateTodo")
	defer span.End()

	query := r.db.Rebind(`UPDATE todos SET title = ?, completed = ?, updated_at = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, todo.Title, todo.Completed, todo.UpdatedAt, todo.ID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update todo: %w", err)
	}
	return nil
}

func (r *sqlTodoRepository) DeleteTodo(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "TodoRepository.DeleteTodo")
	defer span.End()

	query := r.db.Rebind(`DELETE FROM todos WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return nil
}
