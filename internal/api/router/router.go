package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/http/handlers"
	httpmiddleware "github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/http/middleware"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/transport/webchat"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Chat               *webchat.Handler
	Calendar           *handlers.CalendarHandler
	Dashboard          *handlers.DashboardHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// ChatRateLimit caps unauthenticated chat fallback requests per
	// second per IP. Zero disables the limiter.
	ChatRateLimit float64
	ChatRateBurst int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Chat != nil {
		r.Get("/ws", cfg.Chat.HandleWebSocket)
		r.Route("/chat", func(chat chi.Router) {
			if cfg.ChatRateLimit > 0 {
				chat.Use(httpmiddleware.RateLimit(cfg.ChatRateLimit, cfg.ChatRateBurst))
			}
			chat.Post("/message", cfg.Chat.HandleMessage)
		})
	}

	if cfg.Calendar != nil {
		r.Get("/calendar/{id}.ics", cfg.Calendar.GetEvent)
	}

	if cfg.Dashboard != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Get("/dashboard", cfg.Dashboard.GetDashboard)
		})
	}

	return r
}
