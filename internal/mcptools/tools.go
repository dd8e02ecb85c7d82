// Package mcptools exposes the draft session as Model Context Protocol tools
// so an assistant can follow a draft and suggest picks.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/draft"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/logger"
)

const defaultTopN = 5

// NoArgs is the input schema for tools without parameters
type NoArgs struct{}

// RecommendArgs is the input schema for recommend
type RecommendArgs struct {
	TeamID int `json:"team_id,omitempty" jsonschema:"Team id (0 = team on the clock)"`
	TopN   int `json:"top_n,omitempty" jsonschema:"Number of players to return (default 5)"`
}

// DraftPlayerArgs is the input schema for draft_player
type DraftPlayerArgs struct {
	PlayerID string `json:"player_id" jsonschema:"Catalog player id (required)"`
	TeamID   int    `json:"team_id" jsonschema:"Drafting team id (required)"`
}

// TeamArgs is the input schema for team_roster
type TeamArgs struct {
	TeamID int `json:"team_id" jsonschema:"Team id (required)"`
}

// Tools holds the tool handlers
type Tools struct {
	session *draft.Session
}

// NewTools creates tool handlers for session
func NewTools(session *draft.Session) *Tools {
	return &Tools{session: session}
}

// NewServer builds an MCP server with every draft tool registered
func NewServer(session *draft.Session, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "gridiron-draft-assistant",
		Version: version,
	}, nil)

	t := NewTools(session)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "draft_state",
		Description: "Current draft snapshot: teams, rosters, pick number and phase",
	}, t.DraftState)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "current_team",
		Description: "Team id that is on the clock",
	}, t.CurrentTeam)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "recommend",
		Description: "Ranked available players for a team, scored by ADP value and positional need",
	}, t.Recommend)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "team_roster",
		Description: "A team's players grouped by roster slot together with its positional need",
	}, t.TeamRoster)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "draft_player",
		Description: "Draft a player to a team; the team must be on the clock",
	}, t.DraftPlayer)

	return server
}

// NewHandler serves server over streamable HTTP
func NewHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

// DraftState returns the draft snapshot
func (t *Tools) DraftState(ctx context.Context, req *mcp.CallToolRequest, args NoArgs) (*mcp.CallToolResult, any, error) {
	state, err := t.session.State()
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(state)
}

// CurrentTeam returns the team on the clock
func (t *Tools) CurrentTeam(ctx context.Context, req *mcp.CallToolRequest, args NoArgs) (*mcp.CallToolResult, any, error) {
	teamID, err := t.session.CurrentTeamID()
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(map[string]int{"team_id": teamID})
}

// Recommend ranks available players
func (t *Tools) Recommend(ctx context.Context, req *mcp.CallToolRequest, args RecommendArgs) (*mcp.CallToolResult, any, error) {
	topN := args.TopN
	if topN <= 0 {
		topN = defaultTopN
	}
	teamID := args.TeamID
	if teamID == 0 {
		var err error
		if teamID, err = t.session.CurrentTeamID(); err != nil {
			return toolError(err), nil, nil
		}
	}

	recs, err := t.session.Recommend(teamID, topN)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(map[string]any{
		"team_id":         teamID,
		"recommendations": recs,
	})
}

// TeamRoster returns a team's slots and need
func (t *Tools) TeamRoster(ctx context.Context, req *mcp.CallToolRequest, args TeamArgs) (*mcp.CallToolResult, any, error) {
	bySlot, err := t.session.TeamRoster(args.TeamID)
	if err != nil {
		return toolError(err), nil, nil
	}
	need, err := t.session.Need(args.TeamID)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(map[string]any{
		"team_id": args.TeamID,
		"slots":   bySlot,
		"need":    need,
	})
}

// DraftPlayer submits a pick
func (t *Tools) DraftPlayer(ctx context.Context, req *mcp.CallToolRequest, args DraftPlayerArgs) (*mcp.CallToolResult, any, error) {
	if args.PlayerID == "" {
		return toolError(fmt.Errorf("player_id is required")), nil, nil
	}
	result, err := t.session.DraftPlayer(ctx, args.PlayerID, args.TeamID)
	if err != nil {
		logger.Warn("MCP: Failed to draft player", "error", err, "player_id", args.PlayerID, "team_id", args.TeamID)
		return toolError(err), nil, nil
	}
	return toolJSON(result)
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
