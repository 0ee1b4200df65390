package rest

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/archive"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/identity"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/service"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/transport/rest/handler"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/transport/rest/middleware"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	GameService *service.GameService
	Exchanger   handler.CodeExchanger
	AdminGate   *identity.AdminGate
	Counters    archive.Counters
	Sink        archive.Sink
	WSHandler   *ws.Handler
	CORSOrigins string
}

// NewRouter creates the API router. Every endpoint is mounted twice,
// under /api and under /.proxy/api, because clients embedded in the
// identity provider reach the backend through its URL-mapping proxy.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	r.Use(corsMiddleware(c.CORSOrigins))
	r.Use(recoverMiddleware)

	mount(r.PathPrefix("/api").Subrouter(), c)
	mount(r.PathPrefix("/.proxy/api").Subrouter(), c)

	return r
}

func mount(r *mux.Router, c *Container) {
	gameHandler := handler.NewGameHandler(c.GameService)
	adminHandler := handler.NewAdminHandler(c.GameService.Store(), c.Counters, c.Sink)

	r.HandleFunc("/game-event", gameHandler.GameEvent).Methods("POST", "OPTIONS")
	r.HandleFunc("/game-state/{roomId}", gameHandler.GameState).Methods("GET", "OPTIONS")

	if c.Exchanger != nil {
		authHandler := handler.NewAuthHandler(c.Exchanger)
		r.HandleFunc("/token", authHandler.Token).Methods("POST", "OPTIONS")
	}

	if c.WSHandler != nil {
		r.HandleFunc("/ws", c.WSHandler.ServeWS).Methods("GET")
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	adminRoutes := r.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(middleware.NewAdminMiddleware(c.AdminGate).RequireAdmin)
	adminRoutes.HandleFunc("/stats", adminHandler.Stats).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/leaderboard/{date}", adminHandler.Leaderboard).Methods("GET", "OPTIONS")
}

func corsMiddleware(origins string) mux.MiddlewareFunc {
	if origins == "" {
		origins = os.Getenv("CORS_ALLOWED_ORIGINS")
	}
	if origins == "" {
		origins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// recoverMiddleware converts request-path panics into a generic
// failure so a single bad request cannot take the process down.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("rest: panic serving %s %s: %v", r.Method, r.URL.Path, err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"success":false,"error":"internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
