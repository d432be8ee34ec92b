package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/pkg/database"
)

const assistantSystemPrompt = `You are a betting research assistant for a player-prop analytics ` +
	`product. Use the provided tools to look up opportunities, odds, schedules and player data ` +
	`before answering. If a tool returns an error payload, explain the limitation to the user ` +
	`rather than inventing data.`

// maxToolRounds bounds the tool loop so a confused model cannot spin forever.
const maxToolRounds = 5

// ChatMessage is one turn of the user-visible conversation.
type ChatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// AssistantService runs the tool-calling chat loop.
type AssistantService struct {
	db         *database.DB
	client     *Client
	registry   *ToolRegistry
	maxRetries int
	retryDelay time.Duration
	logger     *logrus.Logger
}

func NewAssistantService(db *database.DB, client *Client, registry *ToolRegistry, maxRetries int, logger *logrus.Logger) *AssistantService {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &AssistantService{
		db:         db,
		client:     client,
		registry:   registry,
		maxRetries: maxRetries,
		retryDelay: 500 * time.Millisecond,
		logger:     logger,
	}
}

// Chat answers the conversation, dispatching tool calls as the model
// requests them.
func (s *AssistantService) Chat(ctx context.Context, userID uint, history []ChatMessage) (string, error) {
	if len(history) == 0 {
		return "", errors.New("empty conversation")
	}

	messages := make([]Message, 0, len(history))
	for _, turn := range history {
		messages = append(messages, TextMessage(turn.Role, turn.Content))
	}

	var reply string
	for round := 0; round < maxToolRounds; round++ {
		resp, err := s.client.Messages(ctx, Request{
			MaxTokens: 2048,
			System:    assistantSystemPrompt,
			Messages:  messages,
			Tools:     s.registry.Specs(),
		})
		if err != nil {
			return "", err
		}

		if resp.StopReason != "tool_use" {
			reply = resp.FirstText()
			break
		}

		// Echo the assistant turn, then answer every tool call in one
		// user turn.
		messages = append(messages, Message{Role: "assistant", Content: resp.Content})
		results := make([]ContentBlock, 0)
		for _, use := range resp.ToolUses() {
			results = append(results, s.runTool(ctx, use))
		}
		messages = append(messages, Message{Role: "user", Content: results})
	}

	if reply == "" {
		return "", fmt.Errorf("assistant exceeded %d tool rounds without a final answer", maxToolRounds)
	}

	s.store(userID, history, reply)
	return reply, nil
}

// runTool dispatches one tool call with bounded retry. After the retries
// are exhausted the failure is serialized into an error payload and handed
// back to the model, which decides how to respond.
func (s *AssistantService) runTool(ctx context.Context, use ContentBlock) ContentBlock {
	var result interface{}
	var err error

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		result, err = s.registry.Dispatch(ctx, use.Name, use.Input)
		if err == nil {
			break
		}
		s.logger.Warnf("Tool %s failed (attempt %d/%d): %v", use.Name, attempt+1, s.maxRetries, err)
		if attempt < s.maxRetries-1 {
			select {
			case <-ctx.Done():
				err = ctx.Err()
				attempt = s.maxRetries
			case <-time.After(s.retryDelay * time.Duration(attempt+1)):
			}
		}
	}

	block := ContentBlock{
		Type:      "tool_result",
		ToolUseID: use.ID,
	}
	if err != nil {
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		block.Content = string(payload)
		block.IsError = true
		return block
	}

	payload, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		payload, _ = json.Marshal(map[string]string{"error": marshalErr.Error()})
		block.IsError = true
	}
	block.Content = string(payload)
	return block
}

func (s *AssistantService) store(userID uint, history []ChatMessage, reply string) {
	requestData, _ := json.Marshal(history)
	responseData, _ := json.Marshal(map[string]string{"reply": reply})

	row := models.AIInsight{
		UserID:   userID,
		Kind:     "assistant",
		Request:  datatypes.JSON(requestData),
		Response: datatypes.JSON(responseData),
	}
	if err := s.db.Create(&row).Error; err != nil {
		s.logger.Errorf("Failed to store assistant exchange: %v", err)
	}
}
