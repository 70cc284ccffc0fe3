package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/finboard/finboard/internal/ai"
	"github.com/finboard/finboard/internal/cluster"
)

const (
	labelSampleCount   = 3
	labelSampleChars   = 240
	fallbackExcerptLen = 140
)

type ThemeCopy struct {
	Label   string `json:"label"`
	Summary string `json:"summary"`
}

// LabelingResult is either the structured output of the text-generation
// collaborator or, entry by entry, the deterministic fallback. Callers never
// see a partial or failed labeling: every cluster gets a label.
type LabelingResult struct {
	DailySummary string
	Themes       []ThemeCopy
}

type ThemeLabeler struct {
	generator ai.IGenerator
}

func NewThemeLabeler(generator ai.IGenerator) *ThemeLabeler {
	return &ThemeLabeler{generator: generator}
}

// Label produces a short label and one-sentence summary per cluster in a
// single batched request. Collaborator failure or malformed output falls back
// per cluster to "Theme {n}" plus an excerpt of the first member.
func (l *ThemeLabeler) Label(ctx context.Context, clusters []cluster.Cluster) LabelingResult {
	fallback := make([]ThemeCopy, 0, len(clusters))
	for i, c := range clusters {
		excerpt := "No summary available."
		if len(c.Items) > 0 {
			excerpt = truncate(c.Items[0].Text, fallbackExcerptLen)
		}
		fallback = append(fallback, ThemeCopy{
			Label:   fmt.Sprintf("Theme %d", i+1),
			Summary: excerpt,
		})
	}

	if l.generator == nil || len(clusters) == 0 {
		return LabelingResult{Themes: fallback}
	}

	prompt, err := buildLabelPrompt(clusters)
	if err != nil {
		return LabelingResult{Themes: fallback}
	}

	raw, err := l.generator.Generate(ctx, prompt, ai.GenerateOptions{MaxTokens: 300, Temperature: 0.2})
	if err != nil {
		logutil.GetLogger(ctx).Warn("theme labeling failed, using fallback copy", zap.Error(err))
		return LabelingResult{Themes: fallback}
	}

	parsed, ok := parseLabelResponse(raw)
	if !ok || len(parsed.Themes) == 0 {
		logutil.GetLogger(ctx).Warn("theme labeling returned unparseable output, using fallback copy")
		return LabelingResult{Themes: fallback}
	}

	merged := make([]ThemeCopy, 0, len(clusters))
	for i := range clusters {
		copyEntry := fallback[i]
		if i < len(parsed.Themes) {
			if label := strings.TrimSpace(parsed.Themes[i].Label); label != "" {
				copyEntry.Label = label
			}
			if summary := strings.TrimSpace(parsed.Themes[i].Summary); summary != "" {
				copyEntry.Summary = summary
			}
		}
		merged = append(merged, copyEntry)
	}
	return LabelingResult{DailySummary: strings.TrimSpace(parsed.DailySummary), Themes: merged}
}

type labelPromptCluster struct {
	ID      string   `json:"id"`
	Index   int      `json:"index"`
	Samples []string `json:"samples"`
}

func buildLabelPrompt(clusters []cluster.Cluster) (string, error) {
	payload := make([]labelPromptCluster, 0, len(clusters))
	for i, c := range clusters {
		payload = append(payload, labelPromptCluster{
			ID:      c.ID,
			Index:   i + 1,
			Samples: sampleSnippets(c, labelSampleCount),
		})
	}
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	prompt := fmt.Sprintf(`You are a financial research assistant. Given clustered news snippets, label each theme and write a one-sentence summary.

Rules:
- Return ONLY valid JSON.
- Keep labels 3-5 words.
- Summaries must be 1 sentence, conservative, and avoid invented facts.
- Use the same order as input.

Input clusters:
%s

Output JSON schema:
{
  "dailySummary": "One paragraph summary (optional but helpful).",
  "themes": [
    { "label": "3-5 words", "summary": "1 sentence" }
  ]
}`, string(encoded))
	return prompt, nil
}

// sampleSnippets keeps the prompt small: the n shortest member texts,
// truncated, stand in for the whole cluster.
func sampleSnippets(c cluster.Cluster, n int) []string {
	texts := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		texts = append(texts, item.Text)
	}
	sort.SliceStable(texts, func(i, j int) bool {
		return len(texts[i]) < len(texts[j])
	})
	if n > len(texts) {
		n = len(texts)
	}
	samples := make([]string, 0, n)
	for _, text := range texts[:n] {
		samples = append(samples, truncate(text, labelSampleChars))
	}
	return samples
}

type labelResponse struct {
	DailySummary string      `json:"dailySummary"`
	Themes       []ThemeCopy `json:"themes"`
}

// parseLabelResponse tolerates prose around the JSON object by retrying on
// the outermost {...} substring before giving up.
func parseLabelResponse(raw string) (labelResponse, bool) {
	var parsed labelResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return parsed, true
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return labelResponse{}, false
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return labelResponse{}, false
	}
	return parsed, true
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
