package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"wellness-nudges-backend/internal/analytics"
	"wellness-nudges-backend/internal/tasks"
)

// NewServer creates an MCP server exposing the nudge engine as tools.
func NewServer(svc *tasks.Service, version string) *server.MCPServer {
	s := server.NewMCPServer("Wellness Nudges", version)

	s.AddTool(mcp.NewTool("get_recommendations",
		mcp.WithDescription("Rank the catalog against today's metrics and return up to four nudges with score breakdowns."),
		mcp.WithNumber("water_ml", mcp.Description("Water consumed today, in ml"), mcp.Required()),
		mcp.WithNumber("steps", mcp.Description("Steps walked today"), mcp.Required()),
		mcp.WithNumber("sleep_hours", mcp.Description("Hours slept last night"), mcp.Required()),
		mcp.WithNumber("screen_time_min", mcp.Description("Screen time today, in minutes"), mcp.Required()),
		mcp.WithNumber("mood_1to5", mcp.Description("Self-reported mood (1-5)"), mcp.Required()),
		mcp.WithString("current_time", mcp.Description("ISO-8601 time to score at (defaults to now)")),
		mcp.WithString("local_date", mcp.Description("YYYY-MM-DD day key (defaults to the date of current_time)")),
	), recommendationsHandler(svc))

	s.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task as completed for the day."),
		mcp.WithString("task_id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("timestamp", mcp.Description("ISO-8601 time of the action (defaults to now)")),
	), completeHandler(svc))

	s.AddTool(mcp.NewTool("dismiss_task",
		mcp.WithDescription("Dismiss a task. Three dismissals on the same day swap it for its micro alternative."),
		mcp.WithString("task_id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("timestamp", mcp.Description("ISO-8601 time of the action (defaults to now)")),
	), dismissHandler(svc))

	s.AddTool(mcp.NewTool("seed_catalog",
		mcp.WithDescription("Replace the catalog with the starter tasks."),
	), seedHandler(svc))

	s.AddTool(mcp.NewTool("reset_daily_state",
		mcp.WithDescription("Clear completions and dismissals on every task."),
	), resetHandler(svc))

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List the catalog with daily state, ordered by id."),
	), listHandler(svc))

	return s
}

// Serve runs s over stdio until stdin closes.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func recommendationsHandler(svc *tasks.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]any)

		req := tasks.RecommendationRequest{
			Metrics: &tasks.MetricsInput{
				WaterML:       number(args, "water_ml"),
				Steps:         number(args, "steps"),
				SleepHours:    number(args, "sleep_hours"),
				ScreenTimeMin: number(args, "screen_time_min"),
				Mood1to5:      number(args, "mood_1to5"),
			},
			CurrentTime: mcp.ParseString(request, "current_time", ""),
			LocalDate:   mcp.ParseString(request, "local_date", ""),
		}

		resp, err := svc.Recommend(withSource(ctx), req)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(resp)
	}
}

func completeHandler(svc *tasks.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		task, err := svc.Complete(withSource(ctx), actionRequest(request))
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(tasks.ActionResponse{
			Success: true,
			Message: fmt.Sprintf("Task %s marked as completed", task.ID),
			Task:    &task,
		})
	}
}

func dismissHandler(svc *tasks.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		task, err := svc.Dismiss(withSource(ctx), actionRequest(request))
		if err != nil {
			return toolError(err), nil
		}
		ignores := task.Ignores
		return jsonResult(tasks.ActionResponse{
			Success: true,
			Message: fmt.Sprintf("Task %s dismissed (ignores: %d)", task.ID, ignores),
			Task:    &task,
			Ignores: &ignores,
		})
	}
}

func seedHandler(svc *tasks.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		all := svc.Seed(withSource(ctx))
		return mcp.NewToolResultText(fmt.Sprintf("Loaded %d seed tasks", len(all))), nil
	}
}

func resetHandler(svc *tasks.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		svc.Reset(withSource(ctx))
		return mcp.NewToolResultText("Daily state reset for all tasks"), nil
	}
}

func listHandler(svc *tasks.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(map[string]any{"tasks": svc.List(ctx)})
	}
}

func actionRequest(request mcp.CallToolRequest) tasks.ActionRequest {
	return tasks.ActionRequest{
		TaskID:    mcp.ParseString(request, "task_id", ""),
		Timestamp: mcp.ParseString(request, "timestamp", ""),
	}
}

// number returns nil when key is absent so validation can report it.
func number(args map[string]any, key string) *float64 {
	var v float64
	switch n := args[key].(type) {
	case float64:
		v = n
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil
		}
		v = f
	default:
		return nil
	}
	return &v
}

func withSource(ctx context.Context) context.Context {
	return analytics.WithEnvelope(ctx, analytics.Envelope{Source: analytics.SourceMCP, Platform: "unknown"})
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, tasks.ErrNotFound) {
		return mcp.NewToolResultError("Task not found")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
