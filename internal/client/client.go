// Package client talks to the todo API on behalf of a single user. It caches
// the session token, attaches it to protected requests and forgets it as soon
// as the server stops accepting it.
package client

import (
	"bytes"
	"context"
	"ctchen222/Todo-Tracker/internal/api/models"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNotLoggedIn is returned by protected calls when no token is stored.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrSessionExpired is returned when the server rejected the stored token.
	// The token has already been cleared when this is returned.
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, strings.Join(e.Fields[k], " "))
	}
	return fmt.Sprintf("%s (HTTP %d): %s", e.Message, e.Status, strings.Join(parts, " "))
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type Client struct {
	baseURL string
	http    *http.Client
	store   TokenStore

	mu      sync.Mutex
	onReset []func()
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:8080/api.
// A nil httpClient uses a client with a 10 second timeout.
func New(baseURL string, store TokenStore, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		store:   store,
	}
}

// OnSessionEnd registers fn to run whenever the session is dropped, either by
// Logout or because the server answered 401.
func (c *Client) OnSessionEnd(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReset = append(c.onReset, fn)
}

// LoggedIn reports whether a token is stored.
func (c *Client) LoggedIn() bool {
	token, err := c.store.Load()
	return err == nil && token != ""
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.UserResponse, error) {
	var out struct {
		User models.UserResponse `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/register", req, &out, false); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login exchanges credentials for a token and stores it.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.UserResponse, error) {
	var out models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", req, &out, false); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.New("login response carried no token")
	}
	if err := c.store.Save(out.Token); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout revokes the session on the server and always forgets it locally,
// even when the server could not be reached.
func (c *Client) Logout(ctx context.Context) error {
	var callErr error
	if c.LoggedIn() {
		callErr = c.do(ctx, http.MethodPost, "/logout", nil, nil, true)
		if errors.Is(callErr, ErrSessionExpired) {
			callErr = nil
		}
	}
	return errors.Join(callErr, c.endSession())
}

func (c *Client) Me(ctx context.Context) (*models.UserResponse, error) {
	var out struct {
		User models.UserResponse `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/user", nil, &out, true); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) ListTodos(ctx context.Context) ([]models.Todo, error) {
	var out struct {
		Data []models.Todo `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/todos", nil, &out, true); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []models.Todo{}
	}
	return out.Data, nil
}

func (c *Client) CreateTodo(ctx context.Context, title string) (*models.Todo, error) {
	var out struct {
		Data models.Todo `json:"data"`
	}
	req := models.CreateTodoRequest{Title: title}
	if err := c.do(ctx, http.MethodPost, "/todos", req, &out, true); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// UpdateTodo sends only the non-nil fields of req.
func (c *Client) UpdateTodo(ctx context.Context, id int64, req models.UpdateTodoRequest) (*models.Todo, error) {
	body := map[string]any{}
	if req.Title != nil {
		body["title"] = *req.Title
	}
	if req.Completed != nil {
		body["completed"] = *req.Completed
	}

	var out struct {
		Data models.Todo `json:"data"`
	}
	if err := c.do(ctx, http.MethodPut, todoPath(id), body, &out, true); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) DeleteTodo(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, todoPath(id), nil, nil, true)
}

func todoPath(id int64) string {
	return "/todos/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, auth bool) error {
	var token string
	if auth {
		var err error
		token, err = c.store.Load()
		if err != nil {
			return err
		}
		if token == "" {
			return ErrNotLoggedIn
		}
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if auth && resp.StatusCode == http.StatusUnauthorized {
		if err := c.endSession(); err != nil {
			return errors.Join(ErrSessionExpired, err)
		}
		return ErrSessionExpired
	}
	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Message = body.Message
		apiErr.Fields = body.Errors
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// endSession clears the stored token and notifies every OnSessionEnd hook.
func (c *Client) endSession() error {
	err := c.store.Clear()

	c.mu.Lock()
	hooks := append([]func(){}, c.onReset...)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return err
}
