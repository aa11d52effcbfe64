package mcpserver

import (
	"context"

	"fair-casino/internal/app/play"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerAutobetTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"autobet_start",
			mcp.WithDescription("Start a server-paced bet sequence. Returns at once; poll autobet_status."),
			mcp.WithString("api_key", mcp.Required(), mcp.Description("Player api key")),
			mcp.WithString("game", mcp.Required(), mcp.Description("Game to repeat")),
			mcp.WithObject("params", mcp.Description("Game params; mines and tower need picks, crash needs auto_cashout")),
			mcp.WithNumber("base_stake", mcp.Required(), mcp.Description("First stake and reset value")),
			mcp.WithObject("on_win", mcp.Description("Progression after a win: {reset, percent}")),
			mcp.WithObject("on_loss", mcp.Description("Progression after a loss")),
			mcp.WithNumber("count", mcp.Description("Bets to place, 0 for unbounded")),
			mcp.WithNumber("stop_on_profit", mcp.Description("Stop once net profit reaches this")),
			mcp.WithNumber("stop_on_loss", mcp.Description("Stop once net loss reaches this")),
			mcp.WithNumber("interval_ms", mcp.Description("Delay between bets")),
		),
		s.handleAutobetStart,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"autobet_cancel",
			mcp.WithDescription("Stop the running sequence after the bet in flight."),
			mcp.WithString("api_key", mcp.Required(), mcp.Description("Player api key")),
		),
		s.handleAutobetCancel,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"autobet_status",
			mcp.WithDescription("Counters of the current or last sequence."),
			mcp.WithString("api_key", mcp.Required(), mcp.Description("Player api key")),
		),
		s.handleAutobetStatus,
	)
}

func (s *Server) handleAutobetStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request)
	if errResp != nil {
		return errResp, nil
	}
	var in play.AutobetInput
	if err := bindArguments(request, &in); err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	st, err := s.play.StartAutobet(ctx, p.ID, in)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(st), nil
}

func (s *Server) handleAutobetCancel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request)
	if errResp != nil {
		return errResp, nil
	}
	st, err := s.play.CancelAutobet(ctx, p.ID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(st), nil
}

func (s *Server) handleAutobetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request)
	if errResp != nil {
		return errResp, nil
	}
	st, err := s.play.AutobetStatus(ctx, p.ID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(st), nil
}
