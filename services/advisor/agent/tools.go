// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/pipeline"
	openai "github.com/sashabaranov/go-openai"
)

// Tool is one named capability the reasoning model may invoke during a
// turn. Each tool is independently callable outside the conversational
// loop, which is how the tests exercise them.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	Run         func(ctx context.Context, args json.RawMessage) (string, error)
}

// Registry holds the tools offered to the model, in registration order.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering the same name twice replaces the
// earlier tool.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Definitions renders the registry in the chat API's tool format.
func (r *Registry) Definitions() []openai.Tool {
	defs := make([]openai.Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return defs
}

// Dispatch runs the named tool. Unknown names and tool failures are
// returned as the tool-result string so the model can recover, never as a
// turn-level error.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) string {
	tool, ok := r.tools[name]
	if !ok {
		slog.Warn("Model requested unknown tool", "tool", name)
		return fmt.Sprintf(`{"error": %q}`, "unknown tool "+name)
	}
	result, err := tool.Run(ctx, args)
	if err != nil {
		slog.Warn("Tool execution failed", "tool", name, "error", err)
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return result
}

// calculationArgs is the argument shape shared by both pipeline-backed
// tools.
type calculationArgs struct {
	Ticker        string `json:"ticker"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	StoreRaw      bool   `json:"store_raw"`
	StoreFeatures bool   `json:"store_features"`
}

var calculationSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"ticker": {"type": "string", "description": "Asset ticker symbol, e.g. AAPL"},
		"start_date": {"type": "string", "description": "Optional start date, YYYY-MM-DD. Defaults to two years before the end date."},
		"end_date": {"type": "string", "description": "Optional end date, YYYY-MM-DD. Defaults to today."}
	},
	"required": ["ticker"]
}`)

// DefaultRegistry builds the registry offered to the reasoning model:
// metric computation and the store-and-compute variant, both backed by the
// shared calculation pipeline.
func DefaultRegistry(p *pipeline.Pipeline) *Registry {
	r := NewRegistry()

	r.Register(Tool{
		Name: "compute_asset_metrics",
		Description: "Compute risk, annualized volatility, and annualized return " +
			"for a financial asset from its historical daily prices.",
		Parameters: calculationSchema,
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			var req calculationArgs
			if err := json.Unmarshal(args, &req); err != nil {
				return "", fmt.Errorf("invalid tool arguments: %w", err)
			}
			resp, err := p.Run(ctx, datatypes.CalculationRequest{
				Ticker: req.Ticker, StartDate: req.StartDate, EndDate: req.EndDate,
			})
			if err != nil {
				return "", err
			}
			return resp.Calculations.String(), nil
		},
	})

	r.Register(Tool{
		Name: "store_asset_analysis",
		Description: "Compute metrics for a financial asset and persist both the raw " +
			"candle rows and the computed features for later retrieval.",
		Parameters: calculationSchema,
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			var req calculationArgs
			if err := json.Unmarshal(args, &req); err != nil {
				return "", fmt.Errorf("invalid tool arguments: %w", err)
			}
			resp, err := p.Run(ctx, datatypes.CalculationRequest{
				Ticker: req.Ticker, StartDate: req.StartDate, EndDate: req.EndDate,
				StoreRaw: true, StoreFeatures: true,
			})
			if err != nil {
				return "", err
			}
			out, err := json.Marshal(resp)
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	})

	return r
}
