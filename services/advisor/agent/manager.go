// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package agent runs the conversational loop: per-session state, prompt
// assembly with the current time injected, and a bounded tool-call loop
// against the chat completion API.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/observability"
	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

// maxToolRounds bounds the tool-call loop within a single turn. A model
// still requesting tools after this many rounds gets one final forced
// text completion.
const maxToolRounds = 5

const defaultPersona = "You are a financial advisor. You help users evaluate " +
	"the risk, volatility, and historical return of financial assets. Use the " +
	"provided tools to compute metrics from real price data rather than " +
	"estimating. Present results clearly and note the date window they cover."

// ChatCompleter is the slice of the OpenAI client the manager needs.
// *openai.Client satisfies it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ConversationStore persists completed turns. Implementations must
// tolerate being called concurrently from different sessions.
type ConversationStore interface {
	SaveTurn(ctx context.Context, userID, sessionID string, turn Turn) error
}

// Manager owns all live sessions. Sessions are keyed by session id and
// created on first use, so concurrent conversations never share state.
type Manager struct {
	client   ChatCompleter
	registry *Registry
	store    ConversationStore
	model    string
	persona  string
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithConversationStore enables turn persistence. Without it, history
// lives only in memory.
func WithConversationStore(store ConversationStore) ManagerOption {
	return func(m *Manager) { m.store = store }
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithPersona overrides the system prompt.
func WithPersona(persona string) ManagerOption {
	return func(m *Manager) { m.persona = persona }
}

// NewManager creates a Manager. The persona defaults to the financial
// advisor prompt and can be overridden via SYSTEM_ROLE_PROMPT_PERSONA.
func NewManager(client ChatCompleter, registry *Registry, model string, opts ...ManagerOption) *Manager {
	persona := defaultPersona
	if env := os.Getenv("SYSTEM_ROLE_PROMPT_PERSONA"); env != "" {
		persona = env
	}
	m := &Manager{
		client:   client,
		registry: registry,
		model:    model,
		persona:  persona,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// session returns the live session for id, creating it on first use.
func (m *Manager) session(id, userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := newSession(id, userID, m.now())
	m.sessions[id] = s
	slog.Info("Session created", "session_id", id, "user_id", userID)
	if metrics := observability.DefaultMetrics; metrics != nil {
		metrics.SessionOpened()
	}
	return s
}

// SessionCount reports the number of live sessions.
func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// HandleTurn runs one conversational turn.
//
// Blank user and session ids are replaced with fresh UUIDs, and the
// response echoes the ids actually used so the client can continue the
// conversation. The turn prompt always carries the current UTC time so
// relative date references resolve correctly.
func (m *Manager) HandleTurn(ctx context.Context, req datatypes.QueryRequest) (datatypes.QueryResponse, error) {
	userID := req.UserId
	if userID == "" {
		userID = uuid.NewString()
	}
	sessionID := req.SessionId
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	s := m.session(sessionID, userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: m.persona},
		{Role: openai.ChatMessageRoleSystem, Content: m.turnContext(req)},
	}
	messages = append(messages, s.recentHistory()...)
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: req.Query,
	})

	answer, err := m.complete(ctx, messages)
	if err != nil {
		return datatypes.QueryResponse{}, fmt.Errorf("turn failed for session %s: %w", sessionID, err)
	}

	turn := Turn{Question: req.Query, Answer: answer, At: m.now()}
	s.record(turn)

	if m.store != nil {
		if err := m.store.SaveTurn(ctx, userID, sessionID, turn); err != nil {
			slog.Warn("Failed to persist conversation turn",
				"session_id", sessionID, "error", err)
		}
	}

	return datatypes.QueryResponse{Answer: answer, UserId: userID, SessionId: sessionID}, nil
}

// turnContext builds the per-turn system message: current time plus the
// optional asset hint from the request.
func (m *Manager) turnContext(req datatypes.QueryRequest) string {
	ctx := fmt.Sprintf("Current time (UTC): %s.", m.now().UTC().Format(time.RFC3339))
	if req.AssetTicker != "" {
		ctx += fmt.Sprintf(" The user is asking about the asset %q.", req.AssetTicker)
	}
	return ctx
}

// complete drives the chat completion with tools until the model stops
// requesting them or the round budget runs out.
func (m *Manager) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	tools := m.registry.Definitions()

	for round := 0; round < maxToolRounds; round++ {
		resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    m.model,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			return "", fmt.Errorf("chat completion failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("chat completion returned no choices")
		}

		choice := resp.Choices[0].Message
		if len(choice.ToolCalls) == 0 {
			return choice.Content, nil
		}

		messages = append(messages, choice)
		for _, call := range choice.ToolCalls {
			slog.Info("Agent tool call", "tool", call.Function.Name, "round", round)
			if metrics := observability.DefaultMetrics; metrics != nil {
				metrics.RecordToolCall(call.Function.Name)
			}
			result := m.registry.Dispatch(ctx, call.Function.Name,
				json.RawMessage(call.Function.Arguments))
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	// Round budget exhausted: ask for a plain answer with what we have.
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("final completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("final completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
