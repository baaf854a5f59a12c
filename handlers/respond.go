package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/adamkcs/TaskPlannerAPI/database"
)

var errBadInput = errors.New("bad input")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"status":  "error",
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	body := map[string]any{
		"status":  "success",
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	writeJSON(w, status, body)
}

// storeError maps a store failure onto a response. Unknown errors are logged and hidden.
func storeError(w http.ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case errors.Is(err, errBadInput), errors.Is(err, database.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, database.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Request failed")
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

func badInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadInput, fmt.Sprintf(format, args...))
}

// pathID reads a positive integer path variable
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badInput("%s must be a positive integer", name)
	}
	return id, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badInput("invalid request format")
	}
	return nil
}

// parseInclude reads ?include=taskLists,tasks,labels,comments
func parseInclude(r *http.Request) (database.Include, error) {
	var include database.Include
	raw := r.URL.Query().Get("include")
	if raw == "" {
		return include, nil
	}
	for _, part := range strings.Split(raw, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "tasklists":
			include |= database.IncludeTaskLists
		case "tasks":
			include |= database.IncludeTasks
		case "labels":
			include |= database.IncludeLabels
		case "comments":
			include |= database.IncludeComments
		case "":
		default:
			return 0, badInput("unknown include %q", part)
		}
	}
	return include, nil
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, badInput("date %q must be RFC 3339 or YYYY-MM-DD", raw)
	}
	return t, nil
}
