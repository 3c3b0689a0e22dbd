package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kalambet/folio/internal/profile"
	"github.com/kalambet/folio/internal/query"
	"github.com/kalambet/folio/internal/storage"
)

func setupHandler(t *testing.T) (http.Handler, *profile.Manager) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mgr := profile.NewManager(store)
	return NewHandler(Deps{Profiles: mgr, CORSOrigin: "http://localhost:3000"}), mgr
}

func do(t *testing.T, h http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response %q: %v", rr.Body.String(), err)
	}
	return v
}

func wantStatus(t *testing.T, rr *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rr.Code != code {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, code, rr.Body.String())
	}
}

func wantError(t *testing.T, rr *httptest.ResponseRecorder, code int, msg string) {
	t.Helper()
	wantStatus(t, rr, code)
	resp := decodeBody[map[string]string](t, rr)
	if resp["error"] != msg {
		t.Errorf("error = %q, want %q", resp["error"], msg)
	}
	if resp["type"] == "" {
		t.Error("error response missing type")
	}
}

func seedProfiles(t *testing.T, mgr *profile.Manager) (alice, bob profile.Profile) {
	t.Helper()
	var err error
	alice, err = mgr.Create(profile.Input{
		Name:   "Alice",
		Email:  "alice@example.com",
		Skills: []string{"React", "Go"},
		Projects: []profile.ProjectInput{
			{Title: "Shop", Description: "An e-commerce site"},
		},
	})
	if err != nil {
		t.Fatalf("creating alice: %v", err)
	}
	bob, err = mgr.Create(profile.Input{
		Name:   "Bob",
		Email:  "bob@example.com",
		Skills: []string{"Go"},
		Projects: []profile.ProjectInput{
			{Title: "CLI", Description: "terminal tool"},
		},
		Work: []profile.WorkInput{
			{Company: "Acme", Role: "Engineer", Description: "Built payment systems"},
		},
	})
	if err != nil {
		t.Fatalf("creating bob: %v", err)
	}
	return alice, bob
}

func TestHealth(t *testing.T) {
	h, _ := setupHandler(t)

	rr := do(t, h, http.MethodGet, "/health", "")
	wantStatus(t, rr, http.StatusOK)
	if got := strings.TrimSpace(rr.Body.String()); got != `{"status":"ok"}` {
		t.Errorf("body = %s", got)
	}
}

func TestHealth_StorageDown(t *testing.T) {
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	h := NewHandler(Deps{Profiles: profile.NewManager(store), Ping: store.Ping})

	store.Close()
	rr := do(t, h, http.MethodGet, "/health", "")
	wantStatus(t, rr, http.StatusServiceUnavailable)
	if got := decodeBody[map[string]string](t, rr); got["status"] != "unavailable" {
		t.Errorf("status = %q, want unavailable", got["status"])
	}
}

func TestCreateProfile(t *testing.T) {
	h, _ := setupHandler(t)

	body := `{"name":"Alice","email":"alice@example.com","skills":["Go"],"links":{"github":"https://github.com/alice"},
		"projects":[{"title":"Folio","description":"directory","links":["https://folio.dev"]}],
		"work":[{"company":"Acme","role":"Dev","duration":"2020 - 2022"}]}`
	rr := do(t, h, http.MethodPost, "/api/profile", body)
	wantStatus(t, rr, http.StatusCreated)

	p := decodeBody[profile.Profile](t, rr)
	if p.ID == "" {
		t.Fatal("response missing id")
	}
	if p.Name != "Alice" || p.Email != "alice@example.com" {
		t.Errorf("profile = %+v", p)
	}
	if len(p.Projects) != 1 || p.Projects[0].ProfileID != p.ID {
		t.Errorf("projects = %+v, want one owned by %s", p.Projects, p.ID)
	}
	if len(p.Work) != 1 || p.Work[0].Company != "Acme" {
		t.Errorf("work = %+v", p.Work)
	}
	if p.Links["github"] != "https://github.com/alice" {
		t.Errorf("links = %v", p.Links)
	}
}

func TestCreateProfile_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
		msg  string
	}{
		{"missing email", `{"name":"Alice"}`, http.StatusBadRequest, "Name and email are required"},
		{"missing name", `{"email":"a@example.com"}`, http.StatusBadRequest, "Name and email are required"},
		{"duplicate email", `{"name":"Again","email":"alice@example.com"}`, http.StatusBadRequest, "Email already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mgr := setupHandler(t)
			seedProfiles(t, mgr)

			rr := do(t, h, http.MethodPost, "/api/profile", tt.body)
			wantError(t, rr, tt.code, tt.msg)
		})
	}
}

func TestCreateProfile_MalformedJSON(t *testing.T) {
	h, _ := setupHandler(t)

	rr := do(t, h, http.MethodPost, "/api/profile", `{"name":`)
	wantStatus(t, rr, http.StatusBadRequest)
}

func TestCreateProfile_BodyTooLarge(t *testing.T) {
	h, _ := setupHandler(t)

	big := `{"name":"A","email":"a@example.com","education":"` + strings.Repeat("x", maxRequestBodySize) + `"}`
	rr := do(t, h, http.MethodPost, "/api/profile", big)
	wantStatus(t, rr, http.StatusBadRequest)
}

func TestListProfiles(t *testing.T) {
	h, mgr := setupHandler(t)

	rr := do(t, h, http.MethodGet, "/api/profile", "")
	wantStatus(t, rr, http.StatusOK)
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Errorf("empty list body = %s, want []", got)
	}

	alice, bob := seedProfiles(t, mgr)
	rr = do(t, h, http.MethodGet, "/api/profile", "")
	wantStatus(t, rr, http.StatusOK)

	list := decodeBody[[]profile.Profile](t, rr)
	var ids []string
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	if diff := cmp.Diff([]string{alice.ID, bob.ID}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestGetProfile(t *testing.T) {
	h, mgr := setupHandler(t)
	_, bob := seedProfiles(t, mgr)

	rr := do(t, h, http.MethodGet, "/api/profile/"+bob.ID, "")
	wantStatus(t, rr, http.StatusOK)
	got := decodeBody[profile.Profile](t, rr)
	if got.Email != "bob@example.com" || len(got.Work) != 1 {
		t.Errorf("profile = %+v", got)
	}

	rr = do(t, h, http.MethodGet, "/api/profile/nope", "")
	wantError(t, rr, http.StatusNotFound, "Profile not found")
}

func TestUpdateProfile(t *testing.T) {
	h, mgr := setupHandler(t)
	alice, _ := seedProfiles(t, mgr)

	body := `{"name":"Alice B","email":"alice@example.com","skills":["Rust"],"projects":[]}`
	rr := do(t, h, http.MethodPut, "/api/profile/"+alice.ID, body)
	wantStatus(t, rr, http.StatusOK)

	got := decodeBody[profile.Profile](t, rr)
	if got.ID != alice.ID {
		t.Errorf("id = %s, want %s", got.ID, alice.ID)
	}
	if got.Name != "Alice B" {
		t.Errorf("name = %q", got.Name)
	}
	if diff := cmp.Diff([]string{"Rust"}, got.Skills); diff != "" {
		t.Errorf("skills mismatch (-want +got):\n%s", diff)
	}
	if len(got.Projects) != 0 {
		t.Errorf("projects = %+v, want replaced with none", got.Projects)
	}
	if !got.CreatedAt.Equal(alice.CreatedAt) {
		t.Errorf("createdAt changed: %v -> %v", alice.CreatedAt, got.CreatedAt)
	}
}

func TestUpdateProfile_Errors(t *testing.T) {
	h, mgr := setupHandler(t)
	alice, _ := seedProfiles(t, mgr)

	rr := do(t, h, http.MethodPut, "/api/profile/missing", `{"name":"X","email":"x@example.com"}`)
	wantError(t, rr, http.StatusNotFound, "Profile not found")

	rr = do(t, h, http.MethodPut, "/api/profile/"+alice.ID, `{"name":"Alice"}`)
	wantError(t, rr, http.StatusBadRequest, "Name and email are required")

	rr = do(t, h, http.MethodPut, "/api/profile/"+alice.ID, `{"name":"Alice","email":"bob@example.com"}`)
	wantError(t, rr, http.StatusBadRequest, "Email already exists")
}

func TestDeleteProfile(t *testing.T) {
	h, mgr := setupHandler(t)
	alice, _ := seedProfiles(t, mgr)

	rr := do(t, h, http.MethodDelete, "/api/profile/"+alice.ID, "")
	wantStatus(t, rr, http.StatusNoContent)
	if rr.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/api/profile/"+alice.ID, "")
	wantStatus(t, rr, http.StatusNotFound)

	rr = do(t, h, http.MethodDelete, "/api/profile/"+alice.ID, "")
	wantError(t, rr, http.StatusNotFound, "Profile not found")
}

func TestProjectsBySkill(t *testing.T) {
	h, mgr := setupHandler(t)
	seedProfiles(t, mgr)

	rr := do(t, h, http.MethodGet, "/api/projects?skill=Go", "")
	wantStatus(t, rr, http.StatusOK)
	got := decodeBody[[]query.AnnotatedProject](t, rr)

	var titles, owners []string
	for _, p := range got {
		titles = append(titles, p.Title)
		owners = append(owners, p.ProfileName)
	}
	if diff := cmp.Diff([]string{"Shop", "CLI"}, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Alice", "Bob"}, owners); diff != "" {
		t.Errorf("owners mismatch (-want +got):\n%s", diff)
	}

	rr = do(t, h, http.MethodGet, "/api/projects?skill=go", "")
	wantStatus(t, rr, http.StatusOK)
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("case-sensitive miss body = %s, want []", body)
	}
}

func TestProjectsBySkill_MissingSkill(t *testing.T) {
	h, _ := setupHandler(t)

	rr := do(t, h, http.MethodGet, "/api/projects", "")
	wantError(t, rr, http.StatusBadRequest, "Skill parameter is required")
}

func TestTopSkills(t *testing.T) {
	h, mgr := setupHandler(t)
	seedProfiles(t, mgr)

	rr := do(t, h, http.MethodGet, "/api/skills/top", "")
	wantStatus(t, rr, http.StatusOK)
	got := decodeBody[[]query.SkillCount](t, rr)

	want := []query.SkillCount{{Skill: "Go", Count: 2}, {Skill: "React", Count: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("top skills mismatch (-want +got):\n%s", diff)
	}
}

func TestTopSkills_Empty(t *testing.T) {
	h, _ := setupHandler(t)

	rr := do(t, h, http.MethodGet, "/api/skills/top", "")
	wantStatus(t, rr, http.StatusOK)
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		q    string
		want []string
	}{
		{"React", []string{"Alice"}},
		{"e-commerce", []string{"Alice"}},
		{"payment", []string{"Bob"}},
		{"Go", []string{"Alice", "Bob"}},
		{"nothing-matches", nil},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			h, mgr := setupHandler(t)
			seedProfiles(t, mgr)

			rr := do(t, h, http.MethodGet, "/api/search?q="+tt.q, "")
			wantStatus(t, rr, http.StatusOK)
			got := decodeBody[[]profile.Profile](t, rr)

			var names []string
			for _, p := range got {
				names = append(names, p.Name)
			}
			if diff := cmp.Diff(tt.want, names); diff != "" {
				t.Errorf("names mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSearch_MissingQuery(t *testing.T) {
	h, _ := setupHandler(t)

	rr := do(t, h, http.MethodGet, "/api/search?q=", "")
	wantError(t, rr, http.StatusBadRequest, "Query parameter (q) is required")
}

func TestUnknownRoute(t *testing.T) {
	h, _ := setupHandler(t)

	rr := do(t, h, http.MethodGet, "/api/nope", "")
	wantError(t, rr, http.StatusNotFound, "Route not found")
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := setupHandler(t)

	rr := do(t, h, http.MethodPatch, "/api/profile", "")
	wantStatus(t, rr, http.StatusMethodNotAllowed)
}

func TestCORS_Preflight(t *testing.T) {
	h, _ := setupHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/profile", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q", got)
	}
}

func TestCORS_OtherOriginRejected(t *testing.T) {
	h, _ := setupHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
	}
}
