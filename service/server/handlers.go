package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/brojonat/walletpulse/service/activity"
	"github.com/brojonat/walletpulse/service/config"
	"github.com/brojonat/walletpulse/service/helius"
	"github.com/brojonat/walletpulse/service/report"
	"github.com/brojonat/walletpulse/service/temporal"
)

const (
	maxRequestBodySize  = 1 << 20 // 1MB
	maxAddressLength    = 100     // Solana addresses are 44 chars, give buffer
	maxWindowHours      = 24 * 365
	maxScheduleInterval = 7 * 24 * time.Hour
)

var (
	// Valid Solana address characters: base58 (no 0, O, I, l)
	validAddressRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)
)

// summaryResponse is the JSON form of a summary.
type summaryResponse struct {
	Wallet      string          `json:"wallet"`
	WindowHours float64         `json:"window_hours"`
	Considered  int             `json:"considered"`
	Total       int             `json:"total"`
	Shown       int             `json:"shown"`
	Events      activity.Events `json:"events"`
	Text        string          `json:"text"`
}

func summaryToResponse(s *activity.Summary) summaryResponse {
	events := s.Events
	if events == nil {
		events = activity.Events{}
	}
	return summaryResponse{
		Wallet:      s.Wallet,
		WindowHours: s.WindowHours,
		Considered:  s.Considered,
		Total:       s.Total,
		Shown:       s.Shown,
		Events:      events,
		Text:        s.Text,
	}
}

// handleWalletSummary returns a handler that summarizes a wallet's recent activity.
// GET /api/v1/wallets/{address}/summary?hours={hours}&format={json|text}
func handleWalletSummary(summaries SummaryService, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.PathValue("address")
		if err := validateAddress(address); err != nil {
			logger.Debug("invalid address", "address", address, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		hours, err := parseHours(r.URL.Query().Get("hours"))
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		format := r.URL.Query().Get("format")
		if format != "" && format != "json" && format != "text" {
			writeError(w, "invalid format: must be 'json' or 'text'", http.StatusBadRequest)
			return
		}

		summary, err := summaries.Summarize(r.Context(), report.Request{Wallet: address, Hours: hours})
		if err != nil {
			writeSummaryError(w, err, logger, address)
			return
		}

		if format == "text" {
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(summary.Text))
			return
		}
		writeJSON(w, summaryToResponse(summary), http.StatusOK)
	})
}

// scheduleRequest is the body of POST /api/v1/schedules.
type scheduleRequest struct {
	Address     string   `json:"address"`
	Interval    string   `json:"interval"`
	WindowHours *float64 `json:"window_hours,omitempty"`
}

type scheduleResponse struct {
	Address     string   `json:"address"`
	Interval    string   `json:"interval"`
	WindowHours *float64 `json:"window_hours,omitempty"`
}

// handleUpsertSchedule returns a handler that creates or updates a wallet's
// summary schedule.
// POST /api/v1/schedules
func handleUpsertSchedule(scheduler temporal.Scheduler, cfg *config.Config, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if scheduler == nil {
			writeError(w, "scheduling is not configured", http.StatusServiceUnavailable)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req scheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, "request body too large", http.StatusBadRequest)
				return
			}
			writeError(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if err := validateAddress(req.Address); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		interval := cfg.DefaultScheduleInterval
		if req.Interval != "" {
			d, err := time.ParseDuration(req.Interval)
			if err != nil {
				writeError(w, fmt.Sprintf("invalid interval: %v", err), http.StatusBadRequest)
				return
			}
			interval = d
		}
		if err := validateInterval(interval, cfg.MinScheduleInterval); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if req.WindowHours != nil {
			if err := validateHours(*req.WindowHours); err != nil {
				writeError(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		if err := scheduler.UpsertWalletSchedule(r.Context(), req.Address, interval, req.WindowHours); err != nil {
			logger.Error("failed to upsert schedule", "address", req.Address, "error", err)
			writeError(w, "failed to create schedule", http.StatusInternalServerError)
			return
		}

		logger.Info("schedule upserted", "address", req.Address, "interval", interval)
		writeJSON(w, scheduleResponse{
			Address:     req.Address,
			Interval:    interval.String(),
			WindowHours: req.WindowHours,
		}, http.StatusCreated)
	})
}

// handleDeleteSchedule returns a handler that removes a wallet's summary schedule.
// DELETE /api/v1/schedules/{address}
func handleDeleteSchedule(scheduler temporal.Scheduler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if scheduler == nil {
			writeError(w, "scheduling is not configured", http.StatusServiceUnavailable)
			return
		}

		address := r.PathValue("address")
		if err := validateAddress(address); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := scheduler.DeleteWalletSchedule(r.Context(), address); err != nil {
			if errors.Is(err, temporal.ErrScheduleNotFound) {
				writeError(w, "schedule not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to delete schedule", "address", address, "error", err)
			writeError(w, "failed to delete schedule", http.StatusInternalServerError)
			return
		}

		logger.Info("schedule deleted", "address", address)
		w.WriteHeader(http.StatusNoContent)
	})
}

// writeSummaryError maps summary failures to status codes.
func writeSummaryError(w http.ResponseWriter, err error, logger *slog.Logger, address string) {
	switch {
	case errors.Is(err, report.ErrInvalidWallet):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, helius.ErrRateLimited):
		w.Header().Set("Retry-After", "30")
		writeError(w, "upstream rate limited", http.StatusServiceUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, "upstream timed out", http.StatusGatewayTimeout)
	default:
		logger.Error("failed to summarize wallet", "address", address, "error", err)
		writeError(w, "failed to fetch transactions", http.StatusBadGateway)
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// parseHours parses the optional hours query parameter. Empty means the
// service default.
func parseHours(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errorf("invalid hours: must be a number")
	}
	if err := validateHours(hours); err != nil {
		return nil, err
	}
	return &hours, nil
}

func validateHours(hours float64) error {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return errorf("invalid hours: must be finite")
	}
	if hours < 0 {
		return errorf("hours cannot be negative")
	}
	if hours > maxWindowHours {
		return errorf("hours cannot exceed %d", maxWindowHours)
	}
	return nil
}

// validateAddress validates a wallet address for security and format.
func validateAddress(address string) error {
	if address == "" {
		return errorf("address is required")
	}

	if len(address) > maxAddressLength {
		return errorf("address too long: maximum length is %d characters", maxAddressLength)
	}

	for _, r := range address {
		if r == 0 || unicode.IsControl(r) {
			return errorf("invalid characters in address: control characters not allowed")
		}
	}

	if !validAddressRegex.MatchString(address) {
		return errorf("invalid address format: must contain only valid base58 characters")
	}

	return nil
}

// validateInterval validates a schedule interval for reasonable bounds.
func validateInterval(interval, minInterval time.Duration) error {
	if interval <= 0 {
		return errorf("interval must be positive")
	}

	if interval < minInterval {
		return errorf("interval must be at least %v", minInterval)
	}

	if interval > maxScheduleInterval {
		return errorf("interval cannot exceed %v", maxScheduleInterval)
	}

	return nil
}

// errorf is a helper to format error strings.
func errorf(format string, args ...interface{}) error {
	return &validationError{msg: strings.TrimSpace(fmt.Sprintf(format, args...))}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}
