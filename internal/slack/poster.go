package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/secondthought/internal/assessment"
	"github.com/MikeSquared-Agency/secondthought/internal/trust"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

// maxListed caps how many risks and patterns an alert lists.
const maxListed = 3

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostRiskAlert posts a low-trust assessment summary to the alert channel.
// Returns the message timestamp.
func (p *Poster) PostRiskAlert(ctx context.Context, sourceRef string, res assessment.Result) (string, error) {
	text := formatRiskAlert(sourceRef, res)

	body, err := json.Marshal(map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": "Scores are indicative only and make no claim of psychological validity.",
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}

	p.logger.Info("posted risk alert to slack", "ts", slackResp.TS, "source_ref", sourceRef)
	return slackResp.TS, nil
}

func formatRiskAlert(sourceRef string, res assessment.Result) string {
	a := res.Assessment
	var sb strings.Builder

	if sourceRef == "" {
		sourceRef = "unlabelled transcript"
	}
	fmt.Fprintf(&sb, "*Low trust conversation:* %s\n", sourceRef)
	fmt.Fprintf(&sb, "*Trust score:* %d/100 (%s concern, %s analysis)\n\n",
		a.TrustScore, trust.Severity(100-a.TrustScore), res.Path)

	fmt.Fprintf(&sb, "Flattery %d | Dependency %d | Bonding %d | Distortion %d | Suppression %d\n",
		a.FlatteryIndex, a.DependencyGradient, a.EmotionalBondingLevel,
		a.RealityDistortionPotential, a.CriticalThinkingSuppression)

	writeList(&sb, "Top risks", a.Risks)
	writeList(&sb, "Patterns", a.Patterns)

	return strings.TrimRight(sb.String(), "\n")
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n*%s:*\n", title)
	for i, item := range items {
		if i == maxListed {
			fmt.Fprintf(sb, "_...and %d more_\n", len(items)-maxListed)
			break
		}
		fmt.Fprintf(sb, "%d. %s\n", i+1, item)
	}
}
