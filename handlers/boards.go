package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/adamkcs/TaskPlannerAPI/database"
	"github.com/adamkcs/TaskPlannerAPI/services"
)

// BoardHandler serves /api/boards
type BoardHandler struct {
	store   *database.Store
	events  EventPublisher
	indexer TaskIndexer
}

func NewBoardHandler(store *database.Store, events EventPublisher, indexer TaskIndexer) *BoardHandler {
	return &BoardHandler{store: store, events: events, indexer: indexer}
}

func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	include, err := parseInclude(r)
	if err != nil {
		storeError(w, r, err, "board")
		return
	}
	boards, err := h.store.ListBoards(r.Context(), include)
	if err != nil {
		storeError(w, r, err, "board")
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "board")
		return
	}
	include, err := parseInclude(r)
	if err != nil {
		storeError(w, r, err, "board")
		return
	}
	board, err := h.store.GetBoard(r.Context(), id, include)
	if err != nil {
		storeError(w, r, err, "board")
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var board database.Board
	if err := decodeBoard(r, &board); err != nil {
		storeError(w, r, err, "board")
		return
	}
	if err := h.store.CreateBoard(r.Context(), &board); err != nil {
		storeError(w, r, err, "board")
		return
	}
	writeSuccess(w, http.StatusCreated, "Board created", board)
}

func (h *BoardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "board")
		return
	}
	var board database.Board
	if err := decodeBoard(r, &board); err != nil {
		storeError(w, r, err, "board")
		return
	}
	if err := h.store.UpdateBoard(r.Context(), id, &board); err != nil {
		storeError(w, r, err, "board")
		return
	}
	publish(h.events, services.EventBoardUpdated, board.ID, board)
	writeSuccess(w, http.StatusOK, "Board updated", board)
}

func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		storeError(w, r, err, "board")
		return
	}
	removed, err := h.store.DeleteBoard(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "board")
		return
	}
	if h.indexer != nil {
		for _, taskID := range removed {
			h.indexer.TaskDeleted(taskID)
		}
	}
	publish(h.events, services.EventBoardDeleted, id, nil)
	writeSuccess(w, http.StatusOK, "Board deleted", nil)
}

// AssignUser adds a user to a board's members
func (h *BoardHandler) AssignUser(w http.ResponseWriter, r *http.Request) {
	boardID, err := pathID(r, "boardId")
	if err != nil {
		storeError(w, r, err, "board")
		return
	}
	userID := mux.Vars(r)["userId"]

	err = h.store.AssignUserToBoard(r.Context(), boardID, userID)
	if errors.Is(err, database.ErrConflict) {
		writeError(w, http.StatusBadRequest, "User is already assigned to this board.")
		return
	}
	if err != nil {
		storeError(w, r, err, "board or user")
		return
	}
	writeSuccess(w, http.StatusOK, "User assigned to board", nil)
}

// UnassignUser removes a user from a board's members
func (h *BoardHandler) UnassignUser(w http.ResponseWriter, r *http.Request) {
	boardID, err := pathID(r, "boardId")
	if err != nil {
		storeError(w, r, err, "board")
		return
	}
	if err := h.store.UnassignUserFromBoard(r.Context(), boardID, mux.Vars(r)["userId"]); err != nil {
		storeError(w, r, err, "board membership")
		return
	}
	writeSuccess(w, http.StatusOK, "User unassigned from board", nil)
}

// ByUser lists the boards a user belongs to
func (h *BoardHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	boards, err := h.store.BoardsByUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		storeError(w, r, err, "board")
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

// Members lists the users assigned to a board
func (h *BoardHandler) Members(w http.ResponseWriter, r *http.Request) {
	boardID, err := pathID(r, "boardId")
	if err != nil {
		storeError(w, r, err, "board")
		return
	}
	users, err := h.store.BoardMembers(r.Context(), boardID)
	if err != nil {
		storeError(w, r, err, "board")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func decodeBoard(r *http.Request, board *database.Board) error {
	if err := decodeJSON(r, board); err != nil {
		return err
	}
	board.Name = strings.TrimSpace(board.Name)
	if board.Name == "" {
		return badInput("name is required")
	}
	return nil
}
