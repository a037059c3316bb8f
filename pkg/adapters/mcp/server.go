package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/setpoint"
	"github.com/aretw0/setpoint/internal/logging"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Station is the control surface exposed as MCP tools. registry.Registry implements it.
type Station interface {
	Snapshots() []runner.Snapshot
	Snapshot(axis string) (runner.Snapshot, error)
	Recipes(axis string) ([]string, error)
	Preview(ctx context.Context, axis, recipe string, origin float64) ([]domain.Point, error)
	Start(ctx context.Context, axis, recipe string) error
	Stop(ctx context.Context, axis string) error
}

// Server exposes a station as an MCP server.
type Server struct {
	station   Station
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(station Station, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		station:   station,
		mcpServer: server.NewMCPServer("setpoint-mcp", strings.TrimSpace(setpoint.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_axes",
		mcp.WithDescription("List every axis of the station with its run state."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(s.station.Snapshots())
	})

	s.mcpServer.AddTool(mcp.NewTool("axis_state",
		mcp.WithDescription("Get the run state of one axis."),
		mcp.WithString("axis", mcp.Required(), mcp.Description("Axis name")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		axis, err := request.RequireString("axis")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		snap, err := s.station.Snapshot(axis)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(snap)
	})

	s.mcpServer.AddTool(mcp.NewTool("list_recipes",
		mcp.WithDescription("List the recipes available on an axis."),
		mcp.WithString("axis", mcp.Required(), mcp.Description("Axis name")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		axis, err := request.RequireString("axis")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		names, err := s.station.Recipes(axis)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(names)
	})

	s.mcpServer.AddTool(mcp.NewTool("preview_recipe",
		mcp.WithDescription("Compile a recipe against the live limits and measurements and return its setpoint curve without running it."),
		mcp.WithString("axis", mcp.Required(), mcp.Description("Axis name")),
		mcp.WithString("recipe", mcp.Required(), mcp.Description("Recipe name")),
		mcp.WithNumber("origin", mcp.Description("Time of the first point, in seconds (default 0)")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		axis, recipe, err := axisAndRecipe(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		points, err := s.station.Preview(ctx, axis, recipe, request.GetFloat("origin", 0))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("preview failed: %v", err)), nil
		}
		return jsonResult(points)
	})

	s.mcpServer.AddTool(mcp.NewTool("start_recipe",
		mcp.WithDescription("Start running a recipe on an axis. Fails if the recipe is out of bounds or the axis is busy."),
		mcp.WithString("axis", mcp.Required(), mcp.Description("Axis name")),
		mcp.WithString("recipe", mcp.Required(), mcp.Description("Recipe name")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		axis, recipe, err := axisAndRecipe(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := s.station.Start(ctx, axis, recipe); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("start failed: %v", err)), nil
		}
		s.logger.Info("recipe started over mcp", "axis", axis, "recipe", recipe)
		snap, err := s.station.Snapshot(axis)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(snap)
	})

	s.mcpServer.AddTool(mcp.NewTool("stop_recipe",
		mcp.WithDescription("Stop the recipe running on an axis."),
		mcp.WithString("axis", mcp.Required(), mcp.Description("Axis name")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		axis, err := request.RequireString("axis")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := s.station.Stop(ctx, axis); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stop failed: %v", err)), nil
		}
		snap, err := s.station.Snapshot(axis)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(snap)
	})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("setpoint://axes", "Station axes",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.station.Snapshots())
		if err != nil {
			return nil, fmt.Errorf("failed to encode axes: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "setpoint://axes",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func axisAndRecipe(request mcp.CallToolRequest) (string, string, error) {
	axis, err := request.RequireString("axis")
	if err != nil {
		return "", "", err
	}
	recipe, err := request.RequireString("recipe")
	if err != nil {
		return "", "", err
	}
	return axis, recipe, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
