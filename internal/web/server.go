// Package web exposes the HTTP API.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/musicmate-app/musicmate/internal/auth"
	"github.com/musicmate-app/musicmate/internal/chat"
	"github.com/musicmate-app/musicmate/internal/db"
	"github.com/musicmate-app/musicmate/internal/matching"
	"github.com/musicmate-app/musicmate/internal/playlists"
	"github.com/musicmate-app/musicmate/internal/spotify"
	profilesync "github.com/musicmate-app/musicmate/internal/sync"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8000"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr string
}

// TokenStore persists provider OAuth credentials.
type TokenStore interface {
	Upsert(ctx context.Context, t *db.SpotifyToken) error
	Get(ctx context.Context, userID uuid.UUID) (*db.SpotifyToken, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// ProfileStore loads and deletes stored music profiles.
type ProfileStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*db.MusicProfile, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// Deps are the services and repositories the API is built on.
type Deps struct {
	Auth      *auth.Service
	Sync      *profilesync.Service
	Matching  *matching.Service
	Chat      *chat.Service
	Playlists *playlists.Service
	Users     *db.UserRepository
	Tokens    TokenStore
	Profiles  ProfileStore
	Linker    *spotify.Linker
}

// Server is the HTTP server for the API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
}

// NewServer creates the API server.
func NewServer(cfg ServerConfig, deps Deps) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	router := chi.NewRouter()
	s := &Server{
		router:   router,
		handlers: NewHandlers(deps),
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the API.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.Health)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/sso/initiate", s.handlers.SSOInitiate)
			r.Post("/sso/complete", s.handlers.SSOComplete)
			r.Post("/login", s.handlers.Login)

			r.Group(func(r chi.Router) {
				r.Use(s.handlers.RequireAuth)
				r.Get("/me", s.handlers.Me)
				r.Put("/me", s.handlers.UpdateMe)
			})
		})

		r.Route("/spotify", func(r chi.Router) {
			r.Use(s.handlers.RequireAuth)
			r.Get("/auth-url", s.handlers.SpotifyAuthURL)
			r.Post("/callback", s.handlers.SpotifyCallback)
			r.Get("/status", s.handlers.SpotifyStatus)
			r.Post("/sync", s.handlers.SyncProfile)
			r.Get("/profile", s.handlers.GetProfile)
			r.Delete("/disconnect", s.handlers.SpotifyDisconnect)
		})

		r.Route("/match", func(r chi.Router) {
			r.Use(s.handlers.RequireAuth)
			r.Get("/feed", s.handlers.Feed)
			r.Post("/swipe", s.handlers.Swipe)
			r.Get("/matches", s.handlers.Matches)
			r.Get("/matches/{matchID}", s.handlers.GetMatch)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Use(s.handlers.RequireAuth)
			r.Get("/unread/count", s.handlers.UnreadCount)
			r.Get("/prompts/list", s.handlers.Prompts)
			r.Get("/search-song/results", s.handlers.SearchSongs)
			r.Get("/{matchID}", s.handlers.Conversation)
			r.Post("/{matchID}", s.handlers.SendMessage)
			r.Put("/{matchID}/read", s.handlers.MarkRead)
		})

		r.Route("/playlist", func(r chi.Router) {
			r.Use(s.handlers.RequireAuth)
			r.Get("/", s.handlers.ListPlaylists)
			r.Post("/", s.handlers.CreatePlaylist)
			r.Post("/auto-create/{matchID}", s.handlers.AutoCreatePlaylist)
			r.Get("/{playlistID}", s.handlers.GetPlaylist)
			r.Post("/{playlistID}/tracks", s.handlers.AddTrack)
			r.Delete("/{playlistID}/tracks/{spotifyID}", s.handlers.RemoveTrack)
			r.Post("/{playlistID}/members", s.handlers.AddMember)
			r.Delete("/{playlistID}/members/{userID}", s.handlers.RemoveMember)
			r.Get("/{playlistID}/recap", s.handlers.WeeklyRecap)
		})
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting server at http://%s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt
// signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		log.Println("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}
