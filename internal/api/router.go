package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/uniwork-be/internal/api/handlers"
	"github.com/isdelr/uniwork-be/internal/auth"
	"github.com/isdelr/uniwork-be/internal/services"
	"github.com/isdelr/uniwork-be/internal/uploads"
	"github.com/isdelr/uniwork-be/internal/websocket"
)

// Dependencies holds everything the router wires into handlers.
type Dependencies struct {
	Hub             *websocket.Hub
	Verifier        auth.TokenVerifier
	UserService     services.UserServiceProvider
	PostService     services.PostServiceProvider
	CalendarService services.CalendarServiceProvider
	TodoService     services.TodoServiceProvider

	UploadDir      string
	MaxUploadBytes int64
	AllowedOrigins []string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(deps.UserService)
	postHandler := handlers.NewPostHandler(deps.PostService, deps.MaxUploadBytes)
	calendarHandler := handlers.NewCalendarHandler(deps.CalendarService)
	todoHandler := handlers.NewTodoHandler(deps.TodoService)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, deps.Verifier, deps.AllowedOrigins)

	requireAuth := auth.JWTMiddleware(deps.Verifier, handlers.WriteError)

	r.Handle("/"+uploads.PublicPrefix+"/*", staticImages(deps.UploadDir))

	r.Route("/api", func(r chi.Router) {
		// WebSocket connection endpoint
		r.Get("/ws", wsHandler.Serve)

		r.Route("/users", func(r chi.Router) {
			r.Post("/signup", userHandler.Signup)
			r.Post("/login", userHandler.Login)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/{pid}", postHandler.Get)
			r.Get("/user/{uid}", postHandler.GetByUser)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", postHandler.Create)
				r.Patch("/{pid}", postHandler.Update)
				r.Delete("/{pid}", postHandler.Delete)
			})
		})

		r.Route("/calendar", func(r chi.Router) {
			r.Get("/user/{uid}", calendarHandler.GetByUser)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", calendarHandler.Create)
				r.Delete("/{cid}", calendarHandler.Delete)
			})
		})

		r.Route("/todolist", func(r chi.Router) {
			r.Get("/user/{uid}", todoHandler.GetByUser)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", todoHandler.Create)
				r.Delete("/{lid}", todoHandler.Delete)
			})
		})
	})

	return r
}

// staticImages serves stored images without directory listings.
func staticImages(dir string) http.Handler {
	files := http.StripPrefix("/"+uploads.PublicPrefix+"/", http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			handlers.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
