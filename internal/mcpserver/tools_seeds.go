package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSeedTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_seeds",
			mcp.WithDescription("Active seed pair: server seed hash, client seed and next nonce."),
			mcp.WithString("api_key", mcp.Required(), mcp.Description("Player api key")),
		),
		s.handleGetSeeds,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"rotate_seeds",
			mcp.WithDescription("Retire the active pair, revealing its server seed, and commit a new one."),
			mcp.WithString("api_key", mcp.Required(), mcp.Description("Player api key")),
		),
		s.handleRotateSeeds,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"set_client_seed",
			mcp.WithDescription("Replace the client seed of the active pair. The nonce keeps counting."),
			mcp.WithString("api_key", mcp.Required(), mcp.Description("Player api key")),
			mcp.WithString("client_seed", mcp.Required(), mcp.Description("New client seed")),
		),
		s.handleSetClientSeed,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"reveal_seeds",
			mcp.WithDescription("Server seed of a retired pair."),
			mcp.WithString("api_key", mcp.Required(), mcp.Description("Player api key")),
			mcp.WithString("pair_id", mcp.Required(), mcp.Description("Seed pair id")),
		),
		s.handleRevealSeeds,
	)
}

func (s *Server) handleGetSeeds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request)
	if errResp != nil {
		return errResp, nil
	}
	pair, err := s.play.Seeds(ctx, p.ID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(pair), nil
}

func (s *Server) handleRotateSeeds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request)
	if errResp != nil {
		return errResp, nil
	}
	rot, err := s.play.RotateSeeds(ctx, p.ID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(rot), nil
}

func (s *Server) handleSetClientSeed(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request)
	if errResp != nil {
		return errResp, nil
	}
	seed, err := request.RequireString("client_seed")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	pair, err := s.play.SetClientSeed(ctx, p.ID, seed)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(pair), nil
}

func (s *Server) handleRevealSeeds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResp := s.authPlayer(ctx, request)
	if errResp != nil {
		return errResp, nil
	}
	pairID, err := request.RequireString("pair_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	pair, err := s.play.RevealSeeds(ctx, p.ID, pairID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(pair), nil
}
