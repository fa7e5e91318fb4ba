// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// historyTurns is how many completed question/answer pairs are replayed
// into each new turn's prompt.
const historyTurns = 3

// Turn is one completed question/answer exchange.
type Turn struct {
	Question string
	Answer   string
	At       time.Time
}

// Session holds the conversational state for one (user, session) pair.
// Each session carries its own lock: turns within a session are
// serialized, turns across sessions never contend.
type Session struct {
	ID     string
	UserID string

	mu        sync.Mutex
	history   []Turn
	createdAt time.Time
	lastTurn  time.Time
}

func newSession(id, userID string, now time.Time) *Session {
	return &Session{ID: id, UserID: userID, createdAt: now, lastTurn: now}
}

// recentHistory renders the last historyTurns exchanges as alternating
// user/assistant messages. Caller must hold s.mu.
func (s *Session) recentHistory() []openai.ChatCompletionMessage {
	start := 0
	if len(s.history) > historyTurns {
		start = len(s.history) - historyTurns
	}
	msgs := make([]openai.ChatCompletionMessage, 0, 2*(len(s.history)-start))
	for _, turn := range s.history[start:] {
		msgs = append(msgs,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: turn.Question},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: turn.Answer},
		)
	}
	return msgs
}

// record appends a completed turn. Caller must hold s.mu.
func (s *Session) record(turn Turn) {
	s.history = append(s.history, turn)
	s.lastTurn = turn.At
}

// TurnCount reports how many exchanges the session has completed.
func (s *Session) TurnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}
