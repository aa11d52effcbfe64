package mcpserver

import (
	"context"

	"fair-casino/internal/app/play"
	"fair-casino/internal/outcome"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerBetTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"place_bet",
			mcp.WithDescription("Place one bet and settle it. Mines and tower play the picks listed in params."),
			mcp.WithString("api_key", mcp.Required(), mcp.Description("Player api key")),
			mcp.WithString("game", mcp.Required(), mcp.Description("dice|coinflip|plinko|crash|mines|tower|blackjack")),
			mcp.WithNumber("stake", mcp.Required(), mcp.Description("Stake in minor units")),
			mcp.WithObject("params", mcp.Description("Game params, see the casino://games resource")),
		),
		s.handlePlaceBet,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"bet_history",
			mcp.WithDescription("Settled bets of the player, newest first."),
			mcp.WithString("api_key", mcp.Required(), mcp.Description("Player api key")),
			mcp.WithString("game", mcp.Description("Only this game")),
			mcp.WithString("seed_pair_id", mcp.Description("Only bets on this seed pair")),
			mcp.WithNumber("limit", mcp.Description("Page size, default 50")),
			mcp.WithNumber("offset", mcp.Description("Page offset")),
		),
		s.handleBetHistory,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"verify_bet",
			mcp.WithDescription("Replay a stored bet from its revealed server seed."),
			mcp.WithString("api_key", mcp.Required(), mcp.Description("Player api key")),
			mcp.WithString("bet_id", mcp.Required(), mcp.Description("Bet id")),
		),
		s.handleVerifyBet,
	)
}

func (s *Server) handlePlaceBet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request)
	if errResp != nil {
		return errResp, nil
	}
	var in play.BetInput
	if err := bindArguments(request, &in); err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	rec, err := s.play.PlaceBet(ctx, p.ID, in)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(rec), nil
}

func (s *Server) handleBetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request)
	if errResp != nil {
		return errResp, nil
	}
	game := outcome.Game(request.GetString("game", ""))
	pairID := request.GetString("seed_pair_id", "")
	resp, err := s.play.History(ctx, p.ID, game, pairID, request.GetInt("limit", 0), request.GetInt("offset", 0))
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleVerifyBet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request)
	if errResp != nil {
		return errResp, nil
	}
	betID, err := request.RequireString("bet_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, err := s.play.VerifyBet(ctx, p.ID, betID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}
