package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/kazmiyai/favuls/internal/httpserver/deps"
	"github.com/kazmiyai/favuls/internal/httpserver/handlers"
)

func init() { Register(registerGroups) }

func registerGroups(r chi.Router, d deps.Deps) {
	r.Route("/api/groups", func(r chi.Router) {
		r.Get("/", handlers.ListGroups(d))
		r.Post("/", handlers.CreateGroup(d))
		r.Put("/{id}", handlers.UpdateGroup(d))
		r.Delete("/{id}", handlers.DeleteGroup(d))
		r.Post("/{id}/reorder", handlers.ReorderGroup(d))
		r.Post("/{id}/swap", handlers.SwapGroup(d))
	})
}
