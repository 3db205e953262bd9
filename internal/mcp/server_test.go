package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellness-nudges-backend/internal/tasks"
)

func newTestServer(t *testing.T) *server.MCPServer {
	t.Helper()
	clock := tasks.NewFakeClock(time.Date(2023, 12, 20, 15, 0, 0, 0, time.UTC))
	svc := tasks.NewService(nil, clock, nil, nil)
	svc.Seed(context.Background())
	return NewServer(svc, "test")
}

func call(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "tool %s not registered", name)

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	return result.Content[0].(mcp.TextContent).Text
}

func refArgs() map[string]any {
	return map[string]any{
		"water_ml":        900.0,
		"steps":           4000.0,
		"sleep_hours":     6.0,
		"screen_time_min": 150.0,
		"mood_1to5":       2.0,
		"current_time":    "2023-12-20T15:00:00Z",
	}
}

func TestToolsRegistered(t *testing.T) {
	s := newTestServer(t)
	for _, name := range []string{"get_recommendations", "complete_task", "dismiss_task", "seed_catalog", "reset_daily_state", "list_tasks"} {
		assert.NotNil(t, s.GetTool(name), name)
	}
}

func TestGetRecommendations(t *testing.T) {
	s := newTestServer(t)

	result := call(t, s, "get_recommendations", refArgs())
	require.False(t, result.IsError, text(t, result))

	var resp tasks.RecommendationResponse
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &resp))
	require.Len(t, resp.Tasks, 4)
	assert.Equal(t, "screen-break-10", resp.Tasks[0].ID)
	assert.Equal(t, 2.1918, resp.Tasks[0].Score)
	assert.Equal(t, "2023-12-20", resp.LocalDate)
}

func TestGetRecommendations_MissingMetric(t *testing.T) {
	s := newTestServer(t)
	args := refArgs()
	delete(args, "mood_1to5")

	result := call(t, s, "get_recommendations", args)
	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), "mood_1to5")
}

func TestDismissUntilSubstituted(t *testing.T) {
	s := newTestServer(t)

	var resp tasks.ActionResponse
	for range 3 {
		result := call(t, s, "dismiss_task", map[string]any{"task_id": "water-500"})
		require.False(t, result.IsError, text(t, result))
		require.NoError(t, json.Unmarshal([]byte(text(t, result)), &resp))
	}
	require.NotNil(t, resp.Ignores)
	assert.Equal(t, 3, *resp.Ignores)

	result := call(t, s, "get_recommendations", refArgs())
	assert.Contains(t, text(t, result), `"id":"water-250"`)
	assert.NotContains(t, text(t, result), `"id":"water-500"`)
}

func TestCompleteAndList(t *testing.T) {
	s := newTestServer(t)

	result := call(t, s, "complete_task", map[string]any{"task_id": "steps-1k"})
	require.False(t, result.IsError, text(t, result))
	assert.Contains(t, text(t, result), "Task steps-1k marked as completed")

	result = call(t, s, "list_tasks", map[string]any{})
	var list struct {
		Tasks []struct {
			ID             string `json:"id"`
			CompletedToday bool   `json:"completedToday"`
		} `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &list))
	require.Len(t, list.Tasks, 7)
	for _, task := range list.Tasks {
		assert.Equal(t, task.ID == "steps-1k", task.CompletedToday, task.ID)
	}

	result = call(t, s, "reset_daily_state", map[string]any{})
	assert.Equal(t, "Daily state reset for all tasks", text(t, result))

	result = call(t, s, "seed_catalog", nil)
	assert.Equal(t, "Loaded 7 seed tasks", text(t, result))
}

func TestActionErrors(t *testing.T) {
	s := newTestServer(t)

	result := call(t, s, "complete_task", map[string]any{"task_id": "ghost"})
	assert.True(t, result.IsError)
	assert.Equal(t, "Task not found", text(t, result))

	result = call(t, s, "dismiss_task", map[string]any{})
	assert.True(t, result.IsError)
	assert.Equal(t, "taskId is required", text(t, result))
}
