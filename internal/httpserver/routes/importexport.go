package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kazmiyai/favuls/internal/httpserver/deps"
	"github.com/kazmiyai/favuls/internal/httpserver/handlers"
	"github.com/kazmiyai/favuls/internal/httpserver/mw"
)

func init() { Register(registerImportExport) }

func registerImportExport(r chi.Router, d deps.Deps) {
	heavy := mw.RateLimit(mw.RateLimitConfig{
		Burst:             5,
		RefillPerIPPerMin: 10,
		MaxEntries:        1024,
		SweepInterval:     time.Minute,
		IdleTTL:           15 * time.Minute,
	})

	r.With(heavy).Post("/api/import", handlers.Import(d))
	r.With(heavy).Get("/api/export", handlers.Export(d))
	r.Get("/api/stats", handlers.Stats(d))
	r.Get("/api/preferences", handlers.GetPreferences(d))
	r.Put("/api/preferences", handlers.PutPreferences(d))
	r.Get("/api/theme", handlers.GetTheme(d))
	r.Put("/api/theme", handlers.PutTheme(d))
}
