package handler

import (
	"strconv"
	"strings"
)

type searchRequest struct {
	Query     string   `json:"query"`
	Tickers   []string `json:"tickers"`
	DateRange string   `json:"dateRange"`
}

// parseWindowHours accepts "24" or "24h"; anything unusable falls back to the
// configured default, then clamps to [1, 168].
func parseWindowHours(value string, fallback int) int {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return fallback
	}
	numeric, err := strconv.ParseFloat(strings.TrimSuffix(normalized, "h"), 64)
	if err != nil || numeric <= 0 {
		return fallback
	}
	hours := int(numeric + 0.5)
	if hours < 1 {
		hours = 1
	}
	if hours > 168 {
		hours = 168
	}
	return hours
}

// parseThemeCount clamps to [3, 10], defaulting on unusable input.
func parseThemeCount(value string, fallback int) int {
	normalized := strings.TrimSpace(value)
	if normalized == "" {
		return fallback
	}
	numeric, err := strconv.Atoi(normalized)
	if err != nil {
		return fallback
	}
	if numeric < 3 {
		return 3
	}
	if numeric > 10 {
		return 10
	}
	return numeric
}

func parseForce(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
