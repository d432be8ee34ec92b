package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolRegistrySpecsStableOrder(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(Tool{Name: "zeta"}, func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		return nil, nil
	})
	registry.Register(Tool{Name: "alpha"}, func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		return nil, nil
	})
	registry.Register(Tool{Name: "mid"}, func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		return nil, nil
	})

	specs := registry.Specs()
	require.Len(t, specs, 3)
	assert.Equal(t, "alpha", specs[0].Name)
	assert.Equal(t, "mid", specs[1].Name)
	assert.Equal(t, "zeta", specs[2].Name)
}

func TestToolRegistryDispatchUnknown(t *testing.T) {
	registry := NewToolRegistry()

	_, err := registry.Dispatch(context.Background(), "missing", nil)
	assert.ErrorContains(t, err, "unknown tool")
}

func TestRunToolRetriesThenErrorPayload(t *testing.T) {
	registry := NewToolRegistry()
	attempts := 0
	registry.Register(Tool{Name: "flaky"}, func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		attempts++
		return nil, errors.New("upstream timeout")
	})

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	svc := NewAssistantService(nil, nil, registry, 3, logger)
	svc.retryDelay = time.Millisecond

	block := svc.runTool(context.Background(), ContentBlock{
		Type: "tool_use",
		ID:   "toolu_1",
		Name: "flaky",
	})

	assert.Equal(t, 3, attempts)
	assert.Equal(t, "tool_result", block.Type)
	assert.Equal(t, "toolu_1", block.ToolUseID)
	assert.True(t, block.IsError)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(block.Content), &payload))
	assert.Equal(t, "upstream timeout", payload["error"])
}

func TestRunToolRecoversOnRetry(t *testing.T) {
	registry := NewToolRegistry()
	attempts := 0
	registry.Register(Tool{Name: "recovers"}, func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		attempts++
		if attempts < 2 {
			return nil, errors.New("transient")
		}
		return map[string]int{"count": 7}, nil
	})

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	svc := NewAssistantService(nil, nil, registry, 3, logger)
	svc.retryDelay = time.Millisecond

	block := svc.runTool(context.Background(), ContentBlock{ID: "toolu_2", Name: "recovers"})

	assert.Equal(t, 2, attempts)
	assert.False(t, block.IsError)
	assert.JSONEq(t, `{"count":7}`, block.Content)
}

func TestClientNotConfigured(t *testing.T) {
	client := NewClient("", "claude-3-haiku-20240307", 5)

	assert.False(t, client.IsConfigured())
	_, err := client.Messages(context.Background(), Request{Messages: []Message{TextMessage("user", "hi")}})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestResponseHelpers(t *testing.T) {
	resp := Response{
		Content: []ContentBlock{
			{Type: "text", Text: "thinking"},
			{Type: "tool_use", ID: "toolu_3", Name: "get_data"},
			{Type: "tool_use", ID: "toolu_4", Name: "get_more"},
		},
	}

	assert.Equal(t, "thinking", resp.FirstText())
	uses := resp.ToolUses()
	require.Len(t, uses, 2)
	assert.Equal(t, "get_data", uses[0].Name)
}
