package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dtroode/noteboard/internal/api/http/handler"
	"github.com/dtroode/noteboard/internal/api/http/middleware"
	"github.com/dtroode/noteboard/internal/api/http/view"
	"github.com/dtroode/noteboard/internal/board"
	"github.com/dtroode/noteboard/internal/logger"
	"github.com/dtroode/noteboard/internal/model"
	"github.com/dtroode/noteboard/internal/service"
)

// Router represents the HTTP router of the board.
// It wires the page, its event stream and the page actions to handlers.
type Router struct {
	registry       *board.Registry
	auth           model.AuthBackend
	docs           model.DocumentStore
	pictures       *service.Picture
	tmpl           *view.Templates
	contextManager model.ContextManager
	opts           handler.Options
	logger         *logger.Logger
}

// New creates new Router instance.
func New(
	registry *board.Registry,
	auth model.AuthBackend,
	docs model.DocumentStore,
	pictures *service.Picture,
	tmpl *view.Templates,
	contextManager model.ContextManager,
	opts handler.Options,
	logger *logger.Logger,
) *Router {
	return &Router{
		registry:       registry,
		auth:           auth,
		docs:           docs,
		pictures:       pictures,
		tmpl:           tmpl,
		contextManager: contextManager,
		opts:           opts,
		logger:         logger,
	}
}

// Register registers all routes and middleware.
//
// Returns the configured handler.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	session := middleware.NewSession(r.contextManager)
	tab := middleware.NewTab(r.contextManager)

	boardHandler := handler.NewBoard(r.registry, r.auth, r.docs, r.pictures, r.tmpl, r.contextManager, r.opts, r.logger)
	messageHandler := handler.NewMessage(r.registry, r.contextManager, r.logger)
	accountHandler := handler.NewAccount(r.registry, r.pictures, r.contextManager, r.opts.SecureCookies, r.logger)
	pictureHandler := handler.NewPicture(r.pictures, r.logger)
	verificationHandler := handler.NewVerification(r.auth, r.tmpl, r.logger)

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(logging.Handle)
	mux.Use(chimw.Recoverer)
	mux.Use(session.Handle)

	mux.Get("/", boardHandler.Page)
	mux.Get("/verify", verificationHandler.Verify)
	mux.Get(service.PicturePath+"{key}", pictureHandler.Get)
	mux.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(view.Static())))

	mux.Route("/t/{tab}", func(t chi.Router) {
		t.Use(tab.Handle)

		t.Get("/stream", boardHandler.Stream)
		t.Post("/notices/{id}/dismiss", boardHandler.Dismiss)

		t.Post("/login", accountHandler.Login)
		t.Post("/signup", accountHandler.Signup)
		t.Post("/logout", accountHandler.Logout)
		t.Post("/profile", accountHandler.Profile)
		t.Post("/profile/picture", accountHandler.UploadPicture)
		t.Post("/password", accountHandler.Password)
		t.Post("/email", accountHandler.Email)
		t.Post("/verification", accountHandler.SendVerification)
		t.Post("/account/delete", accountHandler.Delete)

		t.Post("/messages", messageHandler.Create)
		t.Route("/messages/{id}", func(m chi.Router) {
			m.Delete("/", messageHandler.Delete)
			m.Post("/edit", messageHandler.SaveEdit)
			m.Post("/edit/start", messageHandler.StartEdit)
			m.Post("/edit/cancel", messageHandler.CancelEdit)
			m.Post("/draft", messageHandler.Draft)
			m.Post("/like", messageHandler.Like)
			m.Delete("/like", messageHandler.Unlike)
		})
	})

	return mux
}
