package http

import (
	"net/http"

	"github.com/civicyouth/portal/internal/adapter/http/middleware"
)

// maxFormBytes caps request bodies; entry bodies are plain text.
const maxFormBytes = 1 << 20

type Server struct {
	mux         *http.ServeMux
	handler     http.Handler
	handlers    *Handlers
	authSvc     AuthService
	observer    LoginObserver
	behindProxy bool
}

func NewServer(authSvc AuthService, contentSvc ContentService, observer LoginObserver, csrfSecret string, behindProxy bool) *Server {
	mux := http.NewServeMux()
	csrf := middleware.NewCSRFProtection(csrfSecret, behindProxy)

	s := &Server{
		mux:         mux,
		handlers:    NewHandlers(contentSvc),
		authSvc:     authSvc,
		observer:    observer,
		behindProxy: behindProxy,
	}

	s.registerRoutes()
	s.handler = middleware.SecurityHeaders(behindProxy)(csrf.Middleware(mux))

	return s
}

func (s *Server) registerRoutes() {
	loginHandler := LoginHandler(s.authSvc, s.observer, s.behindProxy)
	s.mux.HandleFunc("GET /login", loginHandler)
	s.mux.HandleFunc("POST /login", loginHandler)

	s.mux.HandleFunc("POST /logout", LogoutHandler(s.behindProxy))

	s.mux.HandleFunc("GET /admin", AuthMiddleware(s.authSvc, s.handlers.Dashboard()))
	s.mux.HandleFunc("POST /admin/password", AuthMiddleware(s.authSvc, ChangePasswordHandler(s.authSvc)))
	s.mux.HandleFunc("GET /admin/{section}/new", AuthMiddleware(s.authSvc, s.handlers.NewEntryPage()))
	s.mux.HandleFunc("POST /admin/{section}", AuthMiddleware(s.authSvc, s.handlers.CreateEntry()))
	s.mux.HandleFunc("GET /admin/entries/{id}/edit", AuthMiddleware(s.authSvc, s.handlers.EditEntryPage()))
	s.mux.HandleFunc("POST /admin/entries/{id}", AuthMiddleware(s.authSvc, s.handlers.UpdateEntry()))
	s.mux.HandleFunc("POST /admin/entries/{id}/delete", AuthMiddleware(s.authSvc, s.handlers.DeleteEntry()))

	s.mux.HandleFunc("GET /{$}", s.handlers.Home())
	s.mux.HandleFunc("GET /{section}", s.handlers.SectionPage())
	s.mux.HandleFunc("GET /{section}/{slug}", s.handlers.EntryPage())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	}
	s.handler.ServeHTTP(w, r)
}
