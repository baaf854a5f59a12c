package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/adamkcs/TaskPlannerAPI/database"
	"github.com/adamkcs/TaskPlannerAPI/services"
)

// TaskItemHandler serves /api/taskitems
type TaskItemHandler struct {
	store   *database.Store
	events  EventPublisher
	indexer TaskIndexer
	now     func() time.Time
}

func NewTaskItemHandler(store *database.Store, events EventPublisher, indexer TaskIndexer) *TaskItemHandler {
	return &TaskItemHandler{store: store, events: events, indexer: indexer, now: time.Now}
}

func (h *TaskItemHandler) List(w http.ResponseWriter, r *http.Request) {
	include, err := parseInclude(r)
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	tasks, err := h.store.ListTaskItems(r.Context(), include)
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	include, err := parseInclude(r)
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	task, err := h.store.GetTaskItem(r.Context(), id, include)
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var task database.TaskItem
	if err := decodeTaskItem(r, &task); err != nil {
		storeError(w, r, err, "task")
		return
	}
	if err := h.store.CreateTaskItem(r.Context(), &task); err != nil {
		storeError(w, r, err, "task")
		return
	}
	h.changed(services.EventTaskCreated, task)
	writeSuccess(w, http.StatusCreated, "Task created", task)
}

func (h *TaskItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	var task database.TaskItem
	if err := decodeTaskItem(r, &task); err != nil {
		storeError(w, r, err, "task")
		return
	}
	if err := h.store.UpdateTaskItem(r.Context(), id, &task); err != nil {
		storeError(w, r, err, "task")
		return
	}
	h.changed(services.EventTaskUpdated, task)
	writeSuccess(w, http.StatusOK, "Task updated", task)
}

func (h *TaskItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	task, err := h.store.GetTaskItem(r.Context(), id, 0)
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	if err := h.store.DeleteTaskItem(r.Context(), id); err != nil {
		storeError(w, r, err, "task")
		return
	}
	if h.indexer != nil {
		h.indexer.TaskDeleted(id)
	}
	publish(h.events, services.EventTaskDeleted, task.BoardID, map[string]int64{"id": id})
	writeSuccess(w, http.StatusOK, "Task deleted", nil)
}

// Move accepts either a bare list id or {"taskListId": n}
func (h *TaskItemHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	raw, err := readBody(r)
	if err != nil {
		storeError(w, r, err, "task")
		return
	}

	var listID int64
	if err := json.Unmarshal(raw, &listID); err != nil {
		var body struct {
			TaskListID int64 `json:"taskListId"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			storeError(w, r, badInput("body must be a list id or {\"taskListId\": n}"), "task")
			return
		}
		listID = body.TaskListID
	}
	if listID <= 0 {
		storeError(w, r, badInput("taskListId must be a positive integer"), "task")
		return
	}
	moveTask(w, r, h.store, h.events, h.indexer, id, listID)
}

// SetStatus accepts either a bare status string or {"status": "..."}
func (h *TaskItemHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	raw, err := readBody(r)
	if err != nil {
		storeError(w, r, err, "task")
		return
	}

	var status string
	if err := json.Unmarshal(raw, &status); err != nil {
		var body struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			storeError(w, r, badInput("body must be a status or {\"status\": \"...\"}"), "task")
			return
		}
		status = body.Status
	}
	status = strings.TrimSpace(status)
	if status == "" {
		storeError(w, r, badInput("status is required"), "task")
		return
	}

	if err := h.store.SetTaskStatus(r.Context(), id, status); err != nil {
		storeError(w, r, err, "task")
		return
	}
	task, err := h.store.GetTaskItem(r.Context(), id, 0)
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	h.changed(services.EventTaskUpdated, *task)
	writeSuccess(w, http.StatusOK, "Task status updated", task)
}

// Filter handles ?status=completed|pending&priority=1..3&dueDate=...
func (h *TaskItemHandler) Filter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := database.TaskFilter{Status: q.Get("status")}

	if filter.Status != "" && filter.Status != database.StatusFilterCompleted && filter.Status != database.StatusFilterPending {
		storeError(w, r, badInput("status must be %q or %q", database.StatusFilterCompleted, database.StatusFilterPending), "task")
		return
	}
	if raw := q.Get("priority"); raw != "" {
		priority, err := strconv.Atoi(raw)
		if err != nil || priority < 0 || priority > database.PriorityLow {
			storeError(w, r, badInput("priority must be 1, 2 or 3"), "task")
			return
		}
		filter.Priority = priority
	}
	if raw := q.Get("dueDate"); raw != "" {
		due, err := parseDate(raw)
		if err != nil {
			storeError(w, r, err, "task")
			return
		}
		filter.DueBefore = &due
	}

	tasks, err := h.store.FilterTasks(r.Context(), filter)
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// BulkUpdateStatus sets ?isCompleted= on every task id in the body
func (h *TaskItemHandler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	isCompleted, err := strconv.ParseBool(r.URL.Query().Get("isCompleted"))
	if err != nil {
		storeError(w, r, badInput("isCompleted must be true or false"), "task")
		return
	}
	var ids []int64
	if err := decodeJSON(r, &ids); err != nil {
		storeError(w, r, err, "task")
		return
	}
	if len(ids) == 0 {
		storeError(w, r, badInput("at least one task id is required"), "task")
		return
	}

	updated, err := h.store.BulkSetCompletion(r.Context(), ids, isCompleted)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No tasks found.")
		return
	}
	if err != nil {
		storeError(w, r, err, "task")
		return
	}

	if h.indexer != nil {
		for _, id := range ids {
			if task, err := h.store.GetTaskItem(r.Context(), id, 0); err == nil {
				h.indexer.TaskChanged(*task)
			}
		}
	}
	writeSuccess(w, http.StatusOK, "Task statuses updated", map[string]int{"updated": updated})
}

// SetDependency makes {taskId} depend on {dependencyId}
func (h *TaskItemHandler) SetDependency(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "taskId")
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	dependencyID, err := pathID(r, "dependencyId")
	if err != nil {
		storeError(w, r, err, "task")
		return
	}

	task, err := h.store.SetDependency(r.Context(), taskID, dependencyID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Task or dependency not found.")
		return
	}
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	h.changed(services.EventTaskUpdated, *task)
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskItemHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.OverdueTasks(r.Context(), h.now())
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskItemHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.TasksByAssignedUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Search runs ?q= against the search index
func (h *TaskItemHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		storeError(w, r, badInput("q is required"), "task")
		return
	}
	if h.indexer == nil {
		writeError(w, http.StatusServiceUnavailable, services.ErrSearchDisabled.Error())
		return
	}

	tasks, err := h.indexer.Search(r.Context(), query)
	if errors.Is(err, services.ErrSearchDisabled) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskItemHandler) changed(eventType string, task database.TaskItem) {
	if h.indexer != nil {
		h.indexer.TaskChanged(task)
	}
	publish(h.events, eventType, task.BoardID, task)
}

func moveTask(w http.ResponseWriter, r *http.Request, store *database.Store, events EventPublisher, indexer TaskIndexer, taskID, listID int64) {
	task, err := store.MoveTaskToList(r.Context(), taskID, listID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Task or list not found.")
		return
	}
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	if indexer != nil {
		indexer.TaskChanged(*task)
	}
	publish(events, services.EventTaskUpdated, task.BoardID, task)
	writeJSON(w, http.StatusOK, task)
}

func readBody(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, badInput("could not read request body")
	}
	return raw, nil
}

func decodeTaskItem(r *http.Request, task *database.TaskItem) error {
	if err := decodeJSON(r, task); err != nil {
		return err
	}
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return badInput("title is required")
	}
	if task.TaskListID <= 0 {
		return badInput("taskListId must be a positive integer")
	}
	if task.BoardID < 0 {
		return badInput("boardId must not be negative")
	}
	if task.Priority < 0 || task.Priority > database.PriorityLow {
		return badInput("priority must be 1 (high), 2 (medium) or 3 (low)")
	}
	if task.DependencyTaskItemID != nil && *task.DependencyTaskItemID <= 0 {
		return badInput("dependencyTaskItemId must be a positive integer")
	}
	return nil
}
