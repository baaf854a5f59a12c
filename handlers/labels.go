package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/adamkcs/TaskPlannerAPI/database"
	"github.com/adamkcs/TaskPlannerAPI/services"
)

// LabelHandler serves /api/labels
type LabelHandler struct {
	store  *database.Store
	events EventPublisher
}

func NewLabelHandler(store *database.Store, events EventPublisher) *LabelHandler {
	return &LabelHandler{store: store, events: events}
}

func (h *LabelHandler) List(w http.ResponseWriter, r *http.Request) {
	labels, err := h.store.ListLabels(r.Context())
	if err != nil {
		storeError(w, r, err, "label")
		return
	}
	writeJSON(w, http.StatusOK, labels)
}

func (h *LabelHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "label")
		return
	}
	label, err := h.store.GetLabel(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "label")
		return
	}
	writeJSON(w, http.StatusOK, label)
}

func (h *LabelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var label database.Label
	if err := decodeLabel(r, &label); err != nil {
		storeError(w, r, err, "label")
		return
	}
	if err := h.store.CreateLabel(r.Context(), &label); err != nil {
		storeError(w, r, err, "label")
		return
	}
	publish(h.events, services.EventLabelCreated, label.BoardID, label)
	writeSuccess(w, http.StatusCreated, "Label created", label)
}

func (h *LabelHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "label")
		return
	}
	var label database.Label
	if err := decodeLabel(r, &label); err != nil {
		storeError(w, r, err, "label")
		return
	}
	if err := h.store.UpdateLabel(r.Context(), id, &label); err != nil {
		storeError(w, r, err, "label")
		return
	}
	publish(h.events, services.EventLabelUpdated, label.BoardID, label)
	writeSuccess(w, http.StatusOK, "Label updated", label)
}

func (h *LabelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "label")
		return
	}
	label, err := h.store.GetLabel(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "label")
		return
	}
	if err := h.store.DeleteLabel(r.Context(), id); err != nil {
		storeError(w, r, err, "label")
		return
	}
	publish(h.events, services.EventLabelDeleted, label.BoardID, map[string]int64{"id": id})
	writeSuccess(w, http.StatusOK, "Label deleted", nil)
}

func (h *LabelHandler) ByBoard(w http.ResponseWriter, r *http.Request) {
	boardID, err := pathID(r, "boardId")
	if err != nil {
		storeError(w, r, err, "board")
		return
	}
	labels, err := h.store.LabelsByBoard(r.Context(), boardID)
	if err != nil {
		storeError(w, r, err, "label")
		return
	}
	writeJSON(w, http.StatusOK, labels)
}

func (h *LabelHandler) ByTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "taskId")
	if err != nil {
		storeError(w, r, err, "task")
		return
	}
	labels, err := h.store.LabelsByTask(r.Context(), taskID)
	if err != nil {
		storeError(w, r, err, "label")
		return
	}
	writeJSON(w, http.StatusOK, labels)
}

// Assign tags a task with a label. Repeating the call changes nothing.
func (h *LabelHandler) Assign(w http.ResponseWriter, r *http.Request) {
	labelID, taskID, ok := labelAndTask(w, r)
	if !ok {
		return
	}
	if err := h.store.AssignLabelToTask(r.Context(), labelID, taskID); err != nil {
		storeError(w, r, err, "label or task")
		return
	}
	writeSuccess(w, http.StatusOK, "Label assigned to task", nil)
}

func (h *LabelHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	labelID, taskID, ok := labelAndTask(w, r)
	if !ok {
		return
	}
	if err := h.store.UnassignLabelFromTask(r.Context(), labelID, taskID); err != nil {
		storeError(w, r, err, "label assignment")
		return
	}
	writeSuccess(w, http.StatusOK, "Label unassigned from task", nil)
}

// MostUsed ranks labels by usage, highest first
func (h *LabelHandler) MostUsed(w http.ResponseWriter, r *http.Request) {
	top, err := strconv.Atoi(mux.Vars(r)["top"])
	if err != nil || top <= 0 {
		storeError(w, r, badInput("top must be a positive integer"), "label")
		return
	}
	usage, err := h.store.MostUsedLabels(r.Context(), top)
	if err != nil {
		storeError(w, r, err, "label")
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

func labelAndTask(w http.ResponseWriter, r *http.Request) (labelID, taskID int64, ok bool) {
	labelID, err := pathID(r, "labelId")
	if err != nil {
		storeError(w, r, err, "label")
		return 0, 0, false
	}
	taskID, err = pathID(r, "taskId")
	if err != nil {
		storeError(w, r, err, "task")
		return 0, 0, false
	}
	return labelID, taskID, true
}

func decodeLabel(r *http.Request, label *database.Label) error {
	if err := decodeJSON(r, label); err != nil {
		return err
	}
	label.Name = strings.TrimSpace(label.Name)
	if label.Name == "" {
		return badInput("name is required")
	}
	if label.BoardID <= 0 {
		return badInput("boardId must be a positive integer")
	}
	return nil
}
