package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/folio/internal/profile"
	"github.com/kalambet/folio/internal/storage"
)

func decodeInput(w http.ResponseWriter, r *http.Request) (profile.Input, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var in profile.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return profile.Input{}, false
	}
	return in, true
}

// writeProfileError maps manager and store errors onto HTTP responses.
// fallback is the message used for unexpected failures.
func writeProfileError(w http.ResponseWriter, deps Deps, err error, fallback string) {
	switch {
	case errors.Is(err, profile.ErrInvalidInput):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "Name and email are required")
	case errors.Is(err, storage.ErrDuplicateEmail):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "Email already exists")
	case errors.Is(err, storage.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "Profile not found")
	default:
		deps.Logger.Error(fallback, "error", err)
		httpError(w, http.StatusInternalServerError, "api_error", "%s", fallback)
	}
}

func handleCreateProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeInput(w, r)
		if !ok {
			return
		}

		p, err := deps.Profiles.Create(in)
		if err != nil {
			writeProfileError(w, deps, err, "Failed to create profile")
			return
		}

		writeJSON(w, http.StatusCreated, p)
	}
}

func handleListProfiles(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profiles, err := deps.Profiles.List()
		if err != nil {
			writeProfileError(w, deps, err, "Failed to fetch profiles")
			return
		}

		writeJSON(w, http.StatusOK, profiles)
	}
}

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Profiles.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeProfileError(w, deps, err, "Failed to fetch profile")
			return
		}

		writeJSON(w, http.StatusOK, p)
	}
}

func handleUpdateProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeInput(w, r)
		if !ok {
			return
		}

		p, err := deps.Profiles.Update(chi.URLParam(r, "id"), in)
		if err != nil {
			writeProfileError(w, deps, err, "Failed to update profile")
			return
		}

		writeJSON(w, http.StatusOK, p)
	}
}

func handleDeleteProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Profiles.Delete(chi.URLParam(r, "id")); err != nil {
			writeProfileError(w, deps, err, "Failed to delete profile")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
