package handlers

import (
	"net/http"
	"strings"

	"github.com/adamkcs/TaskPlannerAPI/database"
	"github.com/adamkcs/TaskPlannerAPI/services"
)

// TaskListHandler serves /api/tasklists
type TaskListHandler struct {
	store   *database.Store
	events  EventPublisher
	indexer TaskIndexer
}

func NewTaskListHandler(store *database.Store, events EventPublisher, indexer TaskIndexer) *TaskListHandler {
	return &TaskListHandler{store: store, events: events, indexer: indexer}
}

func (h *TaskListHandler) List(w http.ResponseWriter, r *http.Request) {
	include, err := parseInclude(r)
	if err != nil {
		storeError(w, r, err, "task list")
		return
	}
	lists, err := h.store.ListTaskLists(r.Context(), include)
	if err != nil {
		storeError(w, r, err, "task list")
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *TaskListHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "task list")
		return
	}
	include, err := parseInclude(r)
	if err != nil {
		storeError(w, r, err, "task list")
		return
	}
	list, err := h.store.GetTaskList(r.Context(), id, include)
	if err != nil {
		storeError(w, r, err, "task list")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *TaskListHandler) Create(w http.ResponseWriter, r *http.Request) {
	var list database.TaskList
	if err := decodeTaskList(r, &list); err != nil {
		storeError(w, r, err, "task list")
		return
	}
	if err := h.store.CreateTaskList(r.Context(), &list); err != nil {
		storeError(w, r, err, "task list")
		return
	}
	publish(h.events, services.EventListCreated, list.BoardID, list)
	writeSuccess(w, http.StatusCreated, "Task list created", list)
}

func (h *TaskListHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "task list")
		return
	}
	var list database.TaskList
	if err := decodeTaskList(r, &list); err != nil {
		storeError(w, r, err, "task list")
		return
	}
	before, err := h.store.GetTaskList(r.Context(), id, 0)
	if err != nil {
		storeError(w, r, err, "task list")
		return
	}
	if err := h.store.UpdateTaskList(r.Context(), id, &list); err != nil {
		storeError(w, r, err, "task list")
		return
	}
	if before.BoardID != list.BoardID {
		h.reindexTasks(r, id)
		publish(h.events, services.EventListDeleted, before.BoardID, map[string]int64{"id": id})
	}
	publish(h.events, services.EventListUpdated, list.BoardID, list)
	writeSuccess(w, http.StatusOK, "Task list updated", list)
}

func (h *TaskListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "task list")
		return
	}
	list, err := h.store.GetTaskList(r.Context(), id, database.IncludeTasks)
	if err != nil {
		storeError(w, r, err, "task list")
		return
	}
	if err := h.store.DeleteTaskList(r.Context(), id); err != nil {
		storeError(w, r, err, "task list")
		return
	}
	if h.indexer != nil {
		for _, task := range list.Tasks {
			h.indexer.TaskDeleted(task.ID)
		}
	}
	publish(h.events, services.EventListDeleted, list.BoardID, map[string]int64{"id": id})
	writeSuccess(w, http.StatusOK, "Task list deleted", nil)
}

// Tasks lists the tasks in one list, optionally filtered by ?status=completed|pending
func (h *TaskListHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "listId")
	if err != nil {
		storeError(w, r, err, "task list")
		return
	}
	tasks, err := h.store.TasksByList(r.Context(), id, r.URL.Query().Get("status"))
	if err != nil {
		storeError(w, r, err, "task list")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// MoveTask moves a task into the list named in the path
func (h *TaskListHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "taskId")
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	listID, err := pathID(r, "newListId")
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	moveTask(w, r, h.store, h.events, h.indexer, taskID, listID)
}

// TaskCount reports how many tasks every list holds
func (h *TaskListHandler) TaskCount(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.TaskCountPerList(r.Context())
	if err != nil {
		storeError(w, r, err, "task list")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// CompletionRatio reports the share of completed tasks in a list
func (h *TaskListHandler) CompletionRatio(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "listId")
	if err != nil {
		storeError(w, r, err, "task list")
		return
	}
	ratio, err := h.store.CompletionRatio(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "task list")
		return
	}
	writeJSON(w, http.StatusOK, ratio)
}

// reindexTasks refreshes the search documents of every task in the list
func (h *TaskListHandler) reindexTasks(r *http.Request, listID int64) {
	if h.indexer == nil {
		return
	}
	tasks, err := h.store.TasksByList(r.Context(), listID, "")
	if err != nil {
		return
	}
	for _, task := range tasks {
		h.indexer.TaskChanged(task)
	}
}

func decodeTaskList(r *http.Request, list *database.TaskList) error {
	if err := decodeJSON(r, list); err != nil {
		return err
	}
	list.Name = strings.TrimSpace(list.Name)
	if list.Name == "" {
		return badInput("name is required")
	}
	if list.BoardID <= 0 {
		return badInput("boardId must be a positive integer")
	}
	return nil
}
