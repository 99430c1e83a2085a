package router

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/jenkass/reddit-parser/internal/api/rest/handler"
	"github.com/jenkass/reddit-parser/internal/api/rest/middleware"
	"github.com/jenkass/reddit-parser/internal/logger"
	"github.com/jenkass/reddit-parser/internal/model"
	"github.com/jenkass/reddit-parser/internal/resource"
)

// Router wires the post endpoints and middleware into one http.Handler.
type Router struct {
	postHandler    *handler.Post
	contextManager model.ContextManager
	logger         *logger.Logger
}

// New creates new Router instance.
func New(
	postHandler *handler.Post,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		postHandler:    postHandler,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register builds the handler tree. Request logging wraps the mux itself
// so unmatched routes are logged too; panics anywhere below are
// recovered and answered with 500.
func (r *Router) Register() http.Handler {
	m := mux.NewRouter()

	m.HandleFunc(resource.CollectionPath, r.postHandler.List).Methods(http.MethodGet)
	m.HandleFunc(resource.CollectionPath, r.postHandler.Create).Methods(http.MethodPost)

	item := resource.ItemRoute()
	m.HandleFunc(item, r.postHandler.Get).Methods(http.MethodGet)
	m.HandleFunc(item, r.postHandler.Update).Methods(http.MethodPut)
	m.HandleFunc(item, r.postHandler.Delete).Methods(http.MethodDelete)

	m.NotFoundHandler = http.HandlerFunc(r.postHandler.NotFound)
	m.MethodNotAllowedHandler = http.HandlerFunc(r.postHandler.MethodNotAllowed)

	logging := middleware.NewLogging(r.contextManager, r.logger)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(r.logger),
		handlers.PrintRecoveryStack(true),
	)

	return recovery(logging.Handle(m))
}
