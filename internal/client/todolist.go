package client

import (
	"context"
	"ctchen222/Todo-Tracker/internal/api/models"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ErrNotInList is returned when an operation names a todo the list does not hold.
var ErrNotInList = errors.New("todo is not in the list")

// TodoList is the local view of the current user's todos. Changes are applied
// locally first and rolled back if the server rejects them. The list empties
// itself when the session ends.
type TodoList struct {
	client *Client

	mu     sync.Mutex
	items  []models.Todo
	nextID int64
}

func NewTodoList(c *Client) *TodoList {
	l := &TodoList{client: c}
	c.OnSessionEnd(l.reset)
	return l
}

// Items returns a copy of the current view.
func (l *TodoList) Items() []models.Todo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Todo{}, l.items...)
}

// Refresh replaces the view with the server's list.
func (l *TodoList) Refresh(ctx context.Context) error {
	todos, err := l.client.ListTodos(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.items = todos
	l.mu.Unlock()
	return nil
}

// Add shows a placeholder with a negative id until the server assigns one.
func (l *TodoList) Add(ctx context.Context, title string) (*models.Todo, error) {
	l.mu.Lock()
	l.nextID--
	now := time.Now().UTC()
	placeholder := models.Todo{ID: l.nextID, Title: title, CreatedAt: now, UpdatedAt: now}
	l.items = append(l.items, placeholder)
	l.mu.Unlock()

	created, err := l.client.CreateTodo(ctx, title)

	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(placeholder.ID)
	if err != nil {
		if i >= 0 {
			l.items = append(l.items[:i], l.items[i+1:]...)
		}
		return nil, err
	}
	if i >= 0 {
		l.items[i] = *created
	} else {
		l.items = append(l.items, *created)
	}
	return created, nil
}

// Toggle flips the completed flag of the todo.
func (l *TodoList) Toggle(ctx context.Context, id int64) (*models.Todo, error) {
	l.mu.Lock()
	i := l.indexOf(id)
	if i < 0 {
		l.mu.Unlock()
		return nil, fmt.Errorf("todo %d: %w", id, ErrNotInList)
	}
	completed := !l.items[i].Completed
	l.mu.Unlock()

	return l.SetCompleted(ctx, id, completed)
}

// SetCompleted marks the todo done or not done.
func (l *TodoList) SetCompleted(ctx context.Context, id int64, completed bool) (*models.Todo, error) {
	return l.update(ctx, id, models.UpdateTodoRequest{Completed: &completed}, func(t *models.Todo) {
		t.Completed = completed
	})
}

// Rename changes the title of the todo.
func (l *TodoList) Rename(ctx context.Context, id int64, title string) (*models.Todo, error) {
	return l.update(ctx, id, models.UpdateTodoRequest{Title: &title}, func(t *models.Todo) {
		t.Title = title
	})
}

func (l *TodoList) update(ctx context.Context, id int64, req models.UpdateTodoRequest, apply func(*models.Todo)) (*models.Todo, error) {
	l.mu.Lock()
	i := l.indexOf(id)
	if i < 0 {
		l.mu.Unlock()
		return nil, fmt.Errorf("todo %d: %w", id, ErrNotInList)
	}
	previous := l.items[i]
	apply(&l.items[i])
	l.mu.Unlock()

	updated, err := l.client.UpdateTodo(ctx, id, req)

	l.mu.Lock()
	defer l.mu.Unlock()
	i = l.indexOf(id)
	if err != nil {
		if i >= 0 {
			l.items[i] = previous
		}
		return nil, err
	}
	if i >= 0 {
		l.items[i] = *updated
	}
	return updated, nil
}

// Remove drops the todo, putting it back in place if the delete fails. A todo
// the server no longer has counts as removed.
func (l *TodoList) Remove(ctx context.Context, id int64) error {
	l.mu.Lock()
	i := l.indexOf(id)
	if i < 0 {
		l.mu.Unlock()
		return fmt.Errorf("todo %d: %w", id, ErrNotInList)
	}
	removed := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.mu.Unlock()

	err := l.client.DeleteTodo(ctx, id)
	if err == nil || StatusOf(err) == http.StatusNotFound {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// A Refresh or session end may have replaced the list meanwhile.
	if l.items != nil && l.indexOf(id) < 0 {
		if i > len(l.items) {
			i = len(l.items)
		}
		l.items = append(l.items[:i], append([]models.Todo{removed}, l.items[i:]...)...)
	}
	return err
}

func (l *TodoList) indexOf(id int64) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *TodoList) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
}
