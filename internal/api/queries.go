package api

import (
	"errors"
	"net/http"

	"github.com/kalambet/folio/internal/query"
)

func handleProjectsBySkill(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skill := r.URL.Query().Get("skill")
		if skill == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "Skill parameter is required")
			return
		}

		profiles, err := deps.Profiles.List()
		if err != nil {
			deps.Logger.Error("projects by skill: listing profiles", "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "Failed to fetch projects by skill")
			return
		}

		projects, err := query.FilterProjectsBySkill(profiles, skill)
		if err != nil {
			writeQueryError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, projects)
	}
}

func handleTopSkills(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profiles, err := deps.Profiles.List()
		if err != nil {
			deps.Logger.Error("top skills: listing profiles", "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "Failed to fetch top skills")
			return
		}

		writeJSON(w, http.StatusOK, query.TopSkills(profiles))
	}
}

func handleSearch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "Query parameter (q) is required")
			return
		}

		profiles, err := deps.Profiles.List()
		if err != nil {
			deps.Logger.Error("search: listing profiles", "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "Failed to perform search")
			return
		}

		results, err := query.Search(profiles, q)
		if err != nil {
			writeQueryError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, results)
	}
}

func writeQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, query.ErrInvalidArgument) {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
		return
	}
	httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
}
