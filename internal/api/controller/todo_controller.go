package controller

import (
	"ctchen222/Todo-Tracker/internal/api/errs"
	"ctchen222/Todo-Tracker/internal/api/middleware"
	"ctchen222/Todo-Tracker/internal/api/models"
	"ctchen222/Todo-Tracker/internal/api/response"
	"ctchen222/Todo-Tracker/internal/api/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// TodoController handles the /todos endpoints. Every route sits behind RequireAuth.
type TodoController struct {
	todoService service.TodoService
}

// NewTodoController creates a new TodoController.
func NewTodoController(todoService service.TodoService) *TodoController {
	return &TodoController{todoService: todoService}
}

func (tc *TodoController) Index(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		response.Error(c, errs.ErrUnauthorized)
		return
	}

	todos, err := tc.todoService.List(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, todos)
}

func (tc *TodoController) Store(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		response.Error(c, errs.ErrUnauthorized)
		return
	}

	var req models.CreateTodoRequest
	if !bindJSON(c, &req) {
		return
	}

	todo, err := tc.todoService.Create(c.Request.Context(), identity, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusCreated, todo)
}

func (tc *TodoController) Update(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		response.Error(c, errs.ErrUnauthorized)
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}

	// Non-owners are turned away before the body is read.
	if _, err := tc.todoService.Get(c.Request.Context(), identity, id); err != nil {
		response.Error(c, err)
		return
	}

	var req models.UpdateTodoRequest
	if !bindJSON(c, &req) {
		return
	}

	todo, err := tc.todoService.Update(c.Request.Context(), identity, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, todo)
}

func (tc *TodoController) Destroy(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		response.Error(c, errs.ErrUnauthorized)
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}

	if err := tc.todoService.Delete(c.Request.Context(), identity, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// todoID parses the :id parameter; ids that cannot exist are reported as not found.
func todoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, errs.ErrNotFound)
		return 0, false
	}
	return id, true
}
