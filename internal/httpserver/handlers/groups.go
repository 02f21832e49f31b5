package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kazmiyai/favuls/internal/httpserver/deps"
)

// ListGroups returns all groups in display order.
func ListGroups(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := d.Session.State(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, state.Groups)
	}
}

type groupRequest struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

func CreateGroup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req groupRequest
		if !decodeBody(w, r, &req) {
			return
		}
		g, err := d.Session.CreateGroup(r.Context(), req.Name, req.Color, req.Description)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, g)
	}
}

func UpdateGroup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req groupRequest
		if !decodeBody(w, r, &req) {
			return
		}
		g, err := d.Session.UpdateGroup(r.Context(), chi.URLParam(r, "id"), req.Name, req.Color, req.Description)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

// DeleteGroup removes a group. Its bookmarks move to the default group
// unless ?purge=true explicitly asks for them to be deleted too.
func DeleteGroup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		purge := r.URL.Query().Get("purge") == "true"
		if err := d.Session.DeleteGroup(r.Context(), chi.URLParam(r, "id"), purge); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ReorderGroup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := d.Session.ReorderGroup(r.Context(), chi.URLParam(r, "id"), req.TargetID, req.Above); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func SwapGroup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req swapRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := d.Session.SwapGroup(r.Context(), chi.URLParam(r, "id"), req.Up); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
