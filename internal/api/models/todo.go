package models

import "time"

// Todo is a task owned by exactly one user.
type Todo struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Completed bool      `db:"completed" json:"completed"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateTodoRequest is the body of POST /todos.
type CreateTodoRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

// UpdateTodoRequest is the body of PUT /todos/:id. Nil fields are left unchanged.
type UpdateTodoRequest struct {
	Title     *string `json:"title" validate:"omitnil,max=255"`
	Completed *bool   `json:"completed"`
}
