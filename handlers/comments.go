package handlers

import (
	"net/http"
	"strings"

	"github.com/adamkcs/TaskPlannerAPI/database"
	"github.com/adamkcs/TaskPlannerAPI/services"
)

// CommentHandler serves /api/comments
type CommentHandler struct {
	store  *database.Store
	events EventPublisher
}

func NewCommentHandler(store *database.Store, events EventPublisher) *CommentHandler {
	return &CommentHandler{store: store, events: events}
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.store.ListComments(r.Context())
	if err != nil {
		storeError(w, r, err, "comment")
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "comment")
		return
	}
	comment, err := h.store.GetComment(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "comment")
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (h *CommentHandler) ByTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "taskId")
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	comments, err := h.store.CommentsByTask(r.Context(), taskID)
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// Create stores a comment. The author defaults to the caller.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var comment database.Comment
	if err := h.decodeComment(r, &comment); err != nil {
		storeError(w, r, err, "comment")
		return
	}
	if err := h.store.CreateComment(r.Context(), &comment); err != nil {
		storeError(w, r, err, "comment")
		return
	}
	h.announce(r, services.EventCommentCreated, comment.TaskItemID, comment)
	writeSuccess(w, http.StatusCreated, "Comment created", comment)
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "comment")
		return
	}
	var comment database.Comment
	if err := h.decodeComment(r, &comment); err != nil {
		storeError(w, r, err, "comment")
		return
	}
	if err := h.store.UpdateComment(r.Context(), id, &comment); err != nil {
		storeError(w, r, err, "comment")
		return
	}
	h.announce(r, services.EventCommentUpdated, comment.TaskItemID, comment)
	writeSuccess(w, http.StatusOK, "Comment updated", comment)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "comment")
		return
	}
	comment, err := h.store.GetComment(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "comment")
		return
	}
	if err := h.store.DeleteComment(r.Context(), id); err != nil {
		storeError(w, r, err, "comment")
		return
	}
	h.announce(r, services.EventCommentDeleted, comment.TaskItemID, map[string]int64{"id": id})
	writeSuccess(w, http.StatusOK, "Comment deleted", nil)
}

// announce publishes a comment event on the board of the task it belongs to
func (h *CommentHandler) announce(r *http.Request, eventType string, taskID int64, data any) {
	if h.events == nil {
		return
	}
	task, err := h.store.GetTaskItem(r.Context(), taskID, 0)
	if err != nil {
		return
	}
	publish(h.events, eventType, task.BoardID, data)
}

func (h *CommentHandler) decodeComment(r *http.Request, comment *database.Comment) error {
	if err := decodeJSON(r, comment); err != nil {
		return err
	}
	comment.Content = strings.TrimSpace(comment.Content)
	if comment.Content == "" {
		return badInput("content is required")
	}
	if comment.TaskItemID <= 0 {
		return badInput("taskItemId must be a positive integer")
	}
	if comment.UserID == "" {
		if identity, ok := identityFrom(r.Context()); ok {
			comment.UserID = identity.UserID
		}
	}
	return nil
}
