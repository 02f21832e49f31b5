package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kazmiyai/favuls/internal/httpserver/deps"
	"github.com/kazmiyai/favuls/internal/session"
)

// ListBookmarks returns the full display-ordered state: all groups and
// all bookmarks.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := d.Session.State(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

type addBookmarkRequest struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	GroupID string `json:"groupId"`
}

func AddBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addBookmarkRequest
		if !decodeBody(w, r, &req) {
			return
		}
		u, err := d.Session.AddURL(r.Context(), req.URL, req.Title, req.GroupID)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

type captureRequest struct {
	Tab     session.Tab `json:"tab"`
	GroupID string      `json:"groupId"`
}

// Capture saves the active tab reported by the capture collaborator.
func Capture(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req captureRequest
		if !decodeBody(w, r, &req) {
			return
		}
		u, err := d.Session.CaptureTab(r.Context(), req.Tab, req.GroupID)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

type updateBookmarkRequest struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateBookmarkRequest
		if !decodeBody(w, r, &req) {
			return
		}
		u, err := d.Session.UpdateURL(r.Context(), chi.URLParam(r, "id"), req.Title, req.Tags)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Session.DeleteURL(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type moveBookmarkRequest struct {
	GroupID string `json:"groupId"`
}

// MoveBookmark reassigns a bookmark to another group (a drop on a group
// header).
func MoveBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req moveBookmarkRequest
		if !decodeBody(w, r, &req) {
			return
		}
		u, err := d.Session.MoveURL(r.Context(), chi.URLParam(r, "id"), req.GroupID)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

type reorderRequest struct {
	TargetID string `json:"targetId"`
	Above    bool   `json:"above"`
}

// ReorderBookmark places a bookmark relative to a sibling row (a drop on
// another row of the same group).
func ReorderBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := d.Session.ReorderURL(r.Context(), chi.URLParam(r, "id"), req.TargetID, req.Above); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type swapRequest struct {
	Up bool `json:"up"`
}

// SwapBookmark is the keyboard move: exchange position with the adjacent
// sibling.
func SwapBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req swapRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := d.Session.SwapURL(r.Context(), chi.URLParam(r, "id"), req.Up); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func SearchBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := d.Session.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	}
}
