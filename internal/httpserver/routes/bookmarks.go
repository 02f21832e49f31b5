package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/kazmiyai/favuls/internal/httpserver/deps"
	"github.com/kazmiyai/favuls/internal/httpserver/handlers"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Route("/api/bookmarks", func(r chi.Router) {
		r.Get("/", handlers.ListBookmarks(d))
		r.Post("/", handlers.AddBookmark(d))
		r.Post("/capture", handlers.Capture(d))
		r.Get("/search", handlers.SearchBookmarks(d))
		r.Put("/{id}", handlers.UpdateBookmark(d))
		r.Delete("/{id}", handlers.DeleteBookmark(d))
		r.Post("/{id}/move", handlers.MoveBookmark(d))
		r.Post("/{id}/reorder", handlers.ReorderBookmark(d))
		r.Post("/{id}/swap", handlers.SwapBookmark(d))
	})
}
