package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/brojonat/walletpulse/service/config"
	"github.com/brojonat/walletpulse/service/report"
)

const (
	toolID          = "wallet-monitor"
	toolDescription = "Summarize recent token transfers and swaps for a Solana wallet"
)

// ToolDescriptor describes the wallet monitor tool to agent runtimes.
type ToolDescriptor struct {
	ID           string         `json:"id"`
	Description  string         `json:"description"`
	InputSchema  map[string]any `json:"inputSchema"`
	OutputSchema map[string]any `json:"outputSchema"`
}

// ToolInput is the body of a tool invocation.
type ToolInput struct {
	Wallet         string   `json:"wallet"`
	TimeframeHours *float64 `json:"timeframeHours,omitempty"`
}

// ToolOutput is the result of a tool invocation.
type ToolOutput struct {
	Summary string `json:"summary"`
}

func describeTool(defaultHours float64) ToolDescriptor {
	return ToolDescriptor{
		ID:          toolID,
		Description: toolDescription,
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"wallet"},
			"properties": map[string]any{
				"wallet": map[string]any{"type": "string"},
				"timeframeHours": map[string]any{
					"type":    "number",
					"default": defaultHours,
				},
			},
		},
		OutputSchema: map[string]any{
			"type":     "object",
			"required": []string{"summary"},
			"properties": map[string]any{
				"summary": map[string]any{"type": "string"},
			},
		},
	}
}

// handleDescribeTool returns the tool metadata.
// GET /api/v1/tools/wallet-monitor
func handleDescribeTool(cfg *config.Config) http.Handler {
	defaultHours := 24.0
	if cfg != nil && cfg.DefaultWindowHours > 0 {
		defaultHours = cfg.DefaultWindowHours
	}
	descriptor := describeTool(defaultHours)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, descriptor, http.StatusOK)
	})
}

// handleInvokeTool runs the tool and returns the rendered summary.
// POST /api/v1/tools/wallet-monitor
func handleInvokeTool(summaries SummaryService, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var in ToolInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if err := validateAddress(in.Wallet); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if in.TimeframeHours != nil {
			if err := validateHours(*in.TimeframeHours); err != nil {
				writeError(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		summary, err := summaries.Summarize(r.Context(), report.Request{Wallet: in.Wallet, Hours: in.TimeframeHours})
		if err != nil {
			writeSummaryError(w, err, logger, in.Wallet)
			return
		}

		logger.Debug("tool invoked", "tool", toolID, "wallet", in.Wallet, "events", summary.Total)
		writeJSON(w, ToolOutput{Summary: summary.Text}, http.StatusOK)
	})
}
