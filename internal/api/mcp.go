package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/folio/internal/profile"
	"github.com/kalambet/folio/internal/query"
	"github.com/kalambet/folio/internal/storage"
)

// MCPProfiles is the read side of profile.Manager used by the MCP tools.
type MCPProfiles interface {
	List() ([]profile.Profile, error)
	Get(id string) (profile.Profile, error)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Profiles MCPProfiles
	Version  string // reported to clients; defaults to "dev"
}

// NewMCPServer creates an MCP server with the folio query tools and the
// profiles resource registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := server.NewMCPServer(
		"folio",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("folio: a directory of developer profiles with their projects, work history and skills."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("projects_by_skill",
			mcp.WithDescription("List every project whose owner lists the given skill (exact, case-sensitive)."),
			mcp.WithString("skill", mcp.Description("Skill name, e.g. React"), mcp.Required()),
		),
		mcpProjectsBySkill(deps),
	)

	s.AddTool(
		mcp.NewTool("top_skills",
			mcp.WithDescription("Rank skills by how many profiles list them."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of skills to return (0 or omitted returns all)")),
		),
		mcpTopSkills(deps),
	)

	s.AddTool(
		mcp.NewTool("search",
			mcp.WithDescription("Find profiles by exact skill, or by substring of a project title, project description or work description."),
			mcp.WithString("query", mcp.Description("Search text"), mcp.Required()),
		),
		mcpSearch(deps),
	)

	s.AddTool(
		mcp.NewTool("get_profile",
			mcp.WithDescription("Fetch one profile with its projects and work history."),
			mcp.WithString("id", mcp.Description("Profile ID"), mcp.Required()),
		),
		mcpGetProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"folio://profiles",
			"Profiles",
			mcp.WithResourceDescription("All profiles as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfiles(deps),
	)

	return s
}

func mcpProjectsBySkill(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		skill, err := req.RequireString("skill")
		if err != nil || skill == "" {
			return mcpError("skill is required"), nil
		}

		profiles, err := deps.Profiles.List()
		if err != nil {
			return mcpError(fmt.Sprintf("listing profiles: %v", err)), nil
		}

		projects, err := query.FilterProjectsBySkill(profiles, skill)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpJSON(projects), nil
	}
}

func mcpTopSkills(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 0)
		if limit < 0 {
			return mcpError("limit must not be negative"), nil
		}

		profiles, err := deps.Profiles.List()
		if err != nil {
			return mcpError(fmt.Sprintf("listing profiles: %v", err)), nil
		}

		ranked := query.TopSkills(profiles)
		if limit > 0 && limit < len(ranked) {
			ranked = ranked[:limit]
		}
		return mcpJSON(ranked), nil
	}
}

func mcpSearch(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q, err := req.RequireString("query")
		if err != nil || q == "" {
			return mcpError("query is required"), nil
		}

		profiles, err := deps.Profiles.List()
		if err != nil {
			return mcpError(fmt.Sprintf("listing profiles: %v", err)), nil
		}

		results, err := query.Search(profiles, q)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpJSON(results), nil
	}
}

func mcpGetProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil || id == "" {
			return mcpError("id is required"), nil
		}

		p, err := deps.Profiles.Get(id)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("profile %s not found", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("fetching profile: %v", err)), nil
		}
		return mcpJSON(p), nil
	}
}

func mcpResourceProfiles(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		profiles, err := deps.Profiles.List()
		if err != nil {
			return nil, fmt.Errorf("failed to list profiles: %w", err)
		}

		b, err := json.Marshal(profiles)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profiles: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
