package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/adamkcs/TaskPlannerAPI/database"
	"github.com/adamkcs/TaskPlannerAPI/services"
)

// Dependencies is everything the router needs to build its handlers
type Dependencies struct {
	Store          *database.Store
	Auth           *services.AuthService
	Tokens         TokenValidator
	Hub            *services.Hub
	Indexer        TaskIndexer
	AllowedOrigins []string
	Logger         *log.Logger
}

// NewRouter wires every API route
func NewRouter(deps Dependencies) *mux.Router {
	var events EventPublisher
	if deps.Hub != nil {
		events = deps.Hub
	}

	authHandler := NewAuthHandler(deps.Auth)
	boardHandler := NewBoardHandler(deps.Store, events, deps.Indexer)
	listHandler := NewTaskListHandler(deps.Store, events, deps.Indexer)
	taskHandler := NewTaskItemHandler(deps.Store, events, deps.Indexer)
	labelHandler := NewLabelHandler(deps.Store, events)
	commentHandler := NewCommentHandler(deps.Store, events)
	authMiddleware := NewAuthMiddleware(deps.Tokens, deps.Logger)

	r := mux.NewRouter()
	r.Use(RequestLogger(deps.Logger))

	r.HandleFunc("/healthz", Healthz(deps.Store)).Methods(http.MethodGet)

	// Auth routes
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Auth)

	api.HandleFunc("/auth/verify", authHandler.VerifyToken).Methods(http.MethodGet)

	if deps.Hub != nil {
		eventsHandler := NewEventsHandler(deps.Hub, deps.AllowedOrigins)
		api.HandleFunc("/ws", eventsHandler.HandleWebSocket).Methods(http.MethodGet)
	}

	// Boards
	api.HandleFunc("/boards", boardHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/boards", boardHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/boards/user/{userId}", boardHandler.ByUser).Methods(http.MethodGet)
	api.HandleFunc("/boards/{boardId:[0-9]+}/assign/{userId}", boardHandler.AssignUser).Methods(http.MethodPost)
	api.HandleFunc("/boards/{boardId:[0-9]+}/unassign/{userId}", boardHandler.UnassignUser).Methods(http.MethodDelete)
	api.HandleFunc("/boards/{boardId:[0-9]+}/members", boardHandler.Members).Methods(http.MethodGet)
	api.HandleFunc("/boards/{id:[0-9]+}", boardHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/boards/{id:[0-9]+}", boardHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/boards/{id:[0-9]+}", boardHandler.Delete).Methods(http.MethodDelete)

	// Task lists
	api.HandleFunc("/tasklists", listHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/tasklists", listHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/tasklists/task-count", listHandler.TaskCount).Methods(http.MethodGet)
	api.HandleFunc("/tasklists/move-task/{taskId:[0-9]+}/to/{newListId:[0-9]+}", listHandler.MoveTask).Methods(http.MethodPut)
	api.HandleFunc("/tasklists/{listId:[0-9]+}/tasks", listHandler.Tasks).Methods(http.MethodGet)
	api.HandleFunc("/tasklists/{listId:[0-9]+}/completion-ratio", listHandler.CompletionRatio).Methods(http.MethodGet)
	api.HandleFunc("/tasklists/{id:[0-9]+}", listHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/tasklists/{id:[0-9]+}", listHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/tasklists/{id:[0-9]+}", listHandler.Delete).Methods(http.MethodDelete)

	// Task items
	api.HandleFunc("/taskitems", taskHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/taskitems", taskHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/taskitems/filter", taskHandler.Filter).Methods(http.MethodGet)
	api.HandleFunc("/taskitems/overdue", taskHandler.Overdue).Methods(http.MethodGet)
	api.HandleFunc("/taskitems/search", taskHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/taskitems/bulk-update-status", taskHandler.BulkUpdateStatus).Methods(http.MethodPut)
	api.HandleFunc("/taskitems/user/{userId}", taskHandler.ByUser).Methods(http.MethodGet)
	api.HandleFunc("/taskitems/{taskId:[0-9]+}/depends-on/{dependencyId:[0-9]+}", taskHandler.SetDependency).Methods(http.MethodPut)
	api.HandleFunc("/taskitems/{id:[0-9]+}/move", taskHandler.Move).Methods(http.MethodPatch)
	api.HandleFunc("/taskitems/{id:[0-9]+}/status", taskHandler.SetStatus).Methods(http.MethodPatch)
	api.HandleFunc("/taskitems/{id:[0-9]+}", taskHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/taskitems/{id:[0-9]+}", taskHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/taskitems/{id:[0-9]+}", taskHandler.Delete).Methods(http.MethodDelete)

	// Labels
	api.HandleFunc("/labels", labelHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/labels", labelHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/labels/board/{boardId:[0-9]+}", labelHandler.ByBoard).Methods(http.MethodGet)
	api.HandleFunc("/labels/task/{taskId:[0-9]+}", labelHandler.ByTask).Methods(http.MethodGet)
	api.HandleFunc("/labels/most-used/{top}", labelHandler.MostUsed).Methods(http.MethodGet)
	api.HandleFunc("/labels/{labelId:[0-9]+}/assign/{taskId:[0-9]+}", labelHandler.Assign).Methods(http.MethodPost)
	api.HandleFunc("/labels/{labelId:[0-9]+}/unassign/{taskId:[0-9]+}", labelHandler.Unassign).Methods(http.MethodDelete)
	api.HandleFunc("/labels/{id:[0-9]+}", labelHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/labels/{id:[0-9]+}", labelHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/labels/{id:[0-9]+}", labelHandler.Delete).Methods(http.MethodDelete)

	// Comments
	api.HandleFunc("/comments", commentHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/comments", commentHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/comments/task/{taskId:[0-9]+}", commentHandler.ByTask).Methods(http.MethodGet)
	api.HandleFunc("/comments/{id:[0-9]+}", commentHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/comments/{id:[0-9]+}", commentHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/comments/{id:[0-9]+}", commentHandler.Delete).Methods(http.MethodDelete)

	return r
}
