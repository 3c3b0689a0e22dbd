package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/folio/internal/profile"
	"github.com/kalambet/folio/internal/query"
)

type failingProfiles struct{ err error }

func (f failingProfiles) List() ([]profile.Profile, error) { return nil, f.err }
func (f failingProfiles) Get(string) (profile.Profile, error) { return profile.Profile{}, f.err }

func newTestMCPDeps(t *testing.T) (MCPDeps, profile.Profile, profile.Profile) {
	t.Helper()
	_, mgr := setupHandler(t)
	alice, bob := seedProfiles(t, mgr)
	return MCPDeps{Profiles: mgr}, alice, bob
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	result, err := handler(context.Background(), makeCallToolRequest(name, args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

func TestMCPTool_ProjectsBySkill(t *testing.T) {
	deps, _, _ := newTestMCPDeps(t)

	result := callTool(t, mcpProjectsBySkill(deps), "projects_by_skill", map[string]interface{}{"skill": "React"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var projects []query.AnnotatedProject
	if err := json.Unmarshal([]byte(toolText(t, result)), &projects); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(projects) != 1 || projects[0].Title != "Shop" || projects[0].ProfileName != "Alice" {
		t.Fatalf("projects = %+v", projects)
	}
}

func TestMCPTool_ProjectsBySkill_MissingSkill(t *testing.T) {
	deps, _, _ := newTestMCPDeps(t)

	result := callTool(t, mcpProjectsBySkill(deps), "projects_by_skill", map[string]interface{}{})
	if !result.IsError {
		t.Fatal("expected error result for missing skill")
	}
}

func TestMCPTool_TopSkills(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want []query.SkillCount
	}{
		{"all", map[string]interface{}{}, []query.SkillCount{{Skill: "Go", Count: 2}, {Skill: "React", Count: 1}}},
		{"limited", map[string]interface{}{"limit": 1}, []query.SkillCount{{Skill: "Go", Count: 2}}},
		{"limit above length", map[string]interface{}{"limit": 10}, []query.SkillCount{{Skill: "Go", Count: 2}, {Skill: "React", Count: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, _, _ := newTestMCPDeps(t)

			result := callTool(t, mcpTopSkills(deps), "top_skills", tt.args)
			if result.IsError {
				t.Fatalf("unexpected error: %s", toolText(t, result))
			}
			var got []query.SkillCount
			if err := json.Unmarshal([]byte(toolText(t, result)), &got); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("top skills mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMCPTool_TopSkills_NegativeLimit(t *testing.T) {
	deps, _, _ := newTestMCPDeps(t)

	result := callTool(t, mcpTopSkills(deps), "top_skills", map[string]interface{}{"limit": -1})
	if !result.IsError {
		t.Fatal("expected error result for negative limit")
	}
}

func TestMCPTool_Search(t *testing.T) {
	deps, _, bob := newTestMCPDeps(t)

	result := callTool(t, mcpSearch(deps), "search", map[string]interface{}{"query": "payment"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var got []profile.Profile
	if err := json.Unmarshal([]byte(toolText(t, result)), &got); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(got) != 1 || got[0].ID != bob.ID {
		t.Fatalf("search results = %+v, want only %s", got, bob.ID)
	}
}

func TestMCPTool_Search_NoMatches(t *testing.T) {
	deps, _, _ := newTestMCPDeps(t)

	result := callTool(t, mcpSearch(deps), "search", map[string]interface{}{"query": "cobol"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	if text := toolText(t, result); text != "[]" {
		t.Errorf("text = %s, want []", text)
	}
}

func TestMCPTool_Search_MissingQuery(t *testing.T) {
	deps, _, _ := newTestMCPDeps(t)

	result := callTool(t, mcpSearch(deps), "search", map[string]interface{}{"query": ""})
	if !result.IsError {
		t.Fatal("expected error result for empty query")
	}
}

func TestMCPTool_GetProfile(t *testing.T) {
	deps, alice, _ := newTestMCPDeps(t)

	result := callTool(t, mcpGetProfile(deps), "get_profile", map[string]interface{}{"id": alice.ID})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	var got profile.Profile
	if err := json.Unmarshal([]byte(toolText(t, result)), &got); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Errorf("email = %q", got.Email)
	}

	result = callTool(t, mcpGetProfile(deps), "get_profile", map[string]interface{}{"id": "missing"})
	if !result.IsError {
		t.Fatal("expected error result for missing profile")
	}
	if text := toolText(t, result); !strings.Contains(text, "not found") {
		t.Errorf("text = %q, want not found", text)
	}
}

func TestMCPTool_StoreFailure(t *testing.T) {
	deps := MCPDeps{Profiles: failingProfiles{err: errors.New("disk I/O error")}}

	result := callTool(t, mcpTopSkills(deps), "top_skills", map[string]interface{}{})
	if !result.IsError {
		t.Fatal("expected error result when the store fails")
	}
	if text := toolText(t, result); !strings.Contains(text, "disk I/O error") {
		t.Errorf("text = %q", text)
	}
}

func TestMCPResource_Profiles(t *testing.T) {
	deps, _, _ := newTestMCPDeps(t)
	handler := mcpResourceProfiles(deps)

	contents, err := handler(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: "folio://profiles"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	if tc.MIMEType != "application/json" {
		t.Errorf("MIMEType = %q", tc.MIMEType)
	}

	var profiles []profile.Profile
	if err := json.Unmarshal([]byte(tc.Text), &profiles); err != nil {
		t.Fatalf("failed to parse resource: %v", err)
	}
	if len(profiles) != 2 {
		t.Errorf("expected 2 profiles, got %d", len(profiles))
	}
}

func TestNewMCPServer_RegistersTools(t *testing.T) {
	deps, _, _ := newTestMCPDeps(t)
	s := NewMCPServer(deps)

	tools := s.ListTools()
	for _, name := range []string{"projects_by_skill", "top_skills", "search", "get_profile"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %q not registered", name)
		}
	}
}
