package client

import (
	"context"
	"ctchen222/Todo-Tracker/internal/api/models"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a minimal stand-in for the todo API used to observe client behaviour.
type fakeAPI struct {
	mu       sync.Mutex
	token    string
	todos    []models.Todo
	nextID   int64
	failNext int
	lastAuth string
	logouts  atomic.Int32
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{token: "good-token", nextID: 1}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret123" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "The provided credentials are incorrect."})
			return
		}
		writeJSON(w, http.StatusOK, models.LoginResponse{Token: api.token, User: models.UserResponse{ID: 1, Email: req.Email}})
	})
	mux.HandleFunc("POST /api/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "The email has already been taken.",
			"errors":  map[string][]string{"email": {"The email has already been taken."}},
		})
	})
	mux.HandleFunc("POST /api/logout", api.authed(func(w http.ResponseWriter, r *http.Request) {
		api.logouts.Add(1)
		api.token = "revoked"
		writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
	}))
	mux.HandleFunc("GET /api/todos", api.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": api.todos})
	}))
	mux.HandleFunc("POST /api/todos", api.authed(func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateTodoRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		todo := models.Todo{ID: api.nextID, UserID: 1, Title: req.Title}
		api.nextID++
		api.todos = append(api.todos, todo)
		writeJSON(w, http.StatusCreated, map[string]any{"data": todo})
	}))
	mux.HandleFunc("PUT /api/todos/{id}", api.authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		for i := range api.todos {
			if r.PathValue("id") == strconv.FormatInt(api.todos[i].ID, 10) {
				if v, ok := body["title"].(string); ok {
					api.todos[i].Title = v
				}
				if v, ok := body["completed"].(bool); ok {
					api.todos[i].Completed = v
				}
				writeJSON(w, http.StatusOK, map[string]any{"data": api.todos[i]})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
	}))
	mux.HandleFunc("DELETE /api/todos/{id}", api.authed(func(w http.ResponseWriter, r *http.Request) {
		for i := range api.todos {
			if r.PathValue("id") == strconv.FormatInt(api.todos[i].ID, 10) {
				api.todos = append(api.todos[:i], api.todos[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeAPI) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.lastAuth = r.Header.Get("Authorization")
		if a.lastAuth != "Bearer "+a.token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthenticated."})
			return
		}
		if a.failNext > 0 {
			a.failNext--
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Server Error"})
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func login(t *testing.T, c *Client) {
	t.Helper()
	_, err := c.Login(context.Background(), models.LoginRequest{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)
}

func TestClient_LoginStoresTokenAndAttachesBearer(t *testing.T) {
	api, srv := newFakeAPI(t)
	store := NewMemoryStore()
	c := New(srv.URL+"/api/", store, nil)

	assert.False(t, c.LoggedIn())
	_, err := c.ListTodos(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn, "no request is sent without a token")

	user, err := c.Login(context.Background(), models.LoginRequest{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)

	token, _ := store.Load()
	assert.Equal(t, "good-token", token)

	todos, err := c.ListTodos(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, todos)
	assert.Empty(t, todos)
	assert.Equal(t, "Bearer good-token", api.lastAuth)
}

func TestClient_LoginFailure(t *testing.T) {
	_, srv := newFakeAPI(t)
	store := NewMemoryStore()
	c := New(srv.URL+"/api", store, nil)

	_, err := c.Login(context.Background(), models.LoginRequest{Email: "a@x.com", Password: "wrong"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "The provided credentials are incorrect.", apiErr.Message)
	assert.False(t, errors.Is(err, ErrSessionExpired), "a failed login is not an expired session")
	assert.False(t, c.LoggedIn())
}

func TestClient_ValidationErrorCarriesFields(t *testing.T) {
	_, srv := newFakeAPI(t)
	c := New(srv.URL+"/api", nil, nil)

	_, err := c.Register(context.Background(), models.RegisterRequest{Name: "A", Email: "a@x.com", Password: "secret123"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(err))
	assert.Equal(t, []string{"The email has already been taken."}, apiErr.Fields["email"])
	assert.Contains(t, apiErr.Error(), "The email has already been taken.")
}

func TestClient_UnauthorizedClearsSession(t *testing.T) {
	api, srv := newFakeAPI(t)
	store := NewMemoryStore()
	c := New(srv.URL+"/api", store, nil)
	login(t, c)

	var ended atomic.Int32
	c.OnSessionEnd(func() { ended.Add(1) })

	api.mu.Lock()
	api.token = "rotated"
	api.mu.Unlock()

	_, err := c.ListTodos(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.False(t, c.LoggedIn(), "the rejected token must be forgotten")
	assert.Equal(t, int32(1), ended.Load())

	// The stale token is not retried.
	_, err = c.ListTodos(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestClient_Logout(t *testing.T) {
	api, srv := newFakeAPI(t)
	store := NewMemoryStore()
	c := New(srv.URL+"/api", store, nil)
	login(t, c)

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, int32(1), api.logouts.Load())
	assert.False(t, c.LoggedIn())

	// Logging out without a session does not call the server.
	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, int32(1), api.logouts.Load())
}

func TestClient_LogoutClearsEvenWhenServerFails(t *testing.T) {
	_, srv := newFakeAPI(t)
	store := NewMemoryStore()
	c := New(srv.URL+"/api", store, nil)
	login(t, c)
	srv.Close()

	err := c.Logout(context.Background())
	assert.Error(t, err)
	assert.False(t, c.LoggedIn())
}

func TestClient_UpdateSendsOnlyGivenFields(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := New(srv.URL+"/api", nil, nil)
	login(t, c)

	created, err := c.CreateTodo(context.Background(), "buy milk")
	require.NoError(t, err)

	done := true
	updated, err := c.UpdateTodo(context.Background(), created.ID, models.UpdateTodoRequest{Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "buy milk", updated.Title, "title untouched")

	require.NoError(t, c.DeleteTodo(context.Background(), created.ID))
	assert.Empty(t, api.todos)

	err = c.DeleteTodo(context.Background(), created.ID)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
}
