package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"fair-casino/internal/app/play"
	"fair-casino/internal/outcome"
	"fair-casino/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// PlayerResolver maps an api key to its player.
type PlayerResolver interface {
	GetPlayerByAPIKey(ctx context.Context, apiKey string) (*store.Player, error)
}

type Server struct {
	players PlayerResolver
	play    *play.Service

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(players PlayerResolver, svc *play.Service) *Server {
	mcpSrv := server.NewMCPServer(
		"fair-casino",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		players:    players,
		play:       svc,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerSeedTools()
	s.registerBetTools()
	s.registerAutobetTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

type gameInfo struct {
	Game        outcome.Game `json:"game"`
	Interactive bool         `json:"interactive"`
	Params      []string     `json:"params"`
}

var gameCatalog = []gameInfo{
	{Game: outcome.Dice, Params: []string{"target", "over"}},
	{Game: outcome.Coinflip, Params: []string{"side"}},
	{Game: outcome.Plinko, Params: []string{"rows", "risk"}},
	{Game: outcome.Crash, Interactive: true, Params: []string{"auto_cashout"}},
	{Game: outcome.Mines, Interactive: true, Params: []string{"mines", "picks"}},
	{Game: outcome.Tower, Interactive: true, Params: []string{"difficulty", "picks"}},
	{Game: outcome.Blackjack, Interactive: true, Params: []string{"stand_on"}},
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcp.NewResource(
			"casino://games",
			"games",
			mcp.WithResourceDescription("Supported games and the params each one reads"),
			mcp.WithMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			payload, err := json.Marshal(map[string]any{"games": gameCatalog})
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      request.Params.URI,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}

func (s *Server) authPlayer(ctx context.Context, request mcp.CallToolRequest) (*store.Player, *mcp.CallToolResult) {
	apiKey := strings.TrimSpace(request.GetString("api_key", ""))
	if apiKey == "" {
		return nil, toolError("invalid_request", "api_key is required")
	}
	p, err := s.players.GetPlayerByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, toolError("unauthorized", "invalid api_key")
	}
	if p.Status == "disabled" {
		return nil, toolError("unauthorized", "player disabled")
	}
	return p, nil
}

// bindArguments decodes the whole argument object into dst. Unknown keys
// such as api_key are ignored.
func bindArguments(request mcp.CallToolRequest, dst any) error {
	raw, err := json.Marshal(request.GetArguments())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
