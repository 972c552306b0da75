package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeTool(t *testing.T) {
	handler := handleDescribeTool(testConfig())

	req := httptest.NewRequest("GET", "/api/v1/tools/wallet-monitor", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var desc struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		InputSchema struct {
			Required   []string `json:"required"`
			Properties map[string]struct {
				Type    string   `json:"type"`
				Default *float64 `json:"default"`
			} `json:"properties"`
		} `json:"inputSchema"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &desc))

	assert.Equal(t, "wallet-monitor", desc.ID)
	assert.Equal(t, "Summarize recent token transfers and swaps for a Solana wallet", desc.Description)
	assert.Equal(t, []string{"wallet"}, desc.InputSchema.Required)
	assert.Equal(t, "string", desc.InputSchema.Properties["wallet"].Type)

	timeframe := desc.InputSchema.Properties["timeframeHours"]
	assert.Equal(t, "number", timeframe.Type)
	require.NotNil(t, timeframe.Default)
	assert.Equal(t, 24.0, *timeframe.Default)
}

func TestInvokeTool(t *testing.T) {
	summaries := &stubSummaries{summary: sampleSummary()}
	handler := handleInvokeTool(summaries, testLogger())

	body := `{"wallet":"` + testWallet + `","timeframeHours":6}`
	req := httptest.NewRequest("POST", "/api/v1/tools/wallet-monitor", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var out ToolOutput
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, sampleSummary().Text, out.Summary)

	require.NotNil(t, summaries.lastReq.Hours)
	assert.Equal(t, 6.0, *summaries.lastReq.Hours)
}

func TestInvokeTool_DefaultTimeframe(t *testing.T) {
	summaries := &stubSummaries{summary: sampleSummary()}
	handler := handleInvokeTool(summaries, testLogger())

	req := httptest.NewRequest("POST", "/api/v1/tools/wallet-monitor", strings.NewReader(`{"wallet":"`+testWallet+`"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, summaries.lastReq.Hours)
}

func TestInvokeTool_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed JSON", body: `{"wallet":`},
		{name: "missing wallet", body: `{}`},
		{name: "negative timeframe", body: `{"wallet":"` + testWallet + `","timeframeHours":-1}`},
		{name: "string timeframe", body: `{"wallet":"` + testWallet + `","timeframeHours":"24"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summaries := &stubSummaries{summary: sampleSummary()}
			handler := handleInvokeTool(summaries, testLogger())

			req := httptest.NewRequest("POST", "/api/v1/tools/wallet-monitor", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, 0, summaries.calls)
		})
	}
}
