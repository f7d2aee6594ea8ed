package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/jobbeacon/internal/model"
)

// SlackReporter posts a summary of each run to a Slack channel via an
// Incoming Webhook.
type SlackReporter struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewSlackReporter(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackReporter {
	return &SlackReporter{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Report sends one Block Kit message for the run. A 429 is retried once.
func (s *SlackReporter) Report(ctx context.Context, sum model.RunSummary) error {
	body, err := json.Marshal(buildSummaryPayload(sum))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.post(ctx, body)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)

		timer := time.NewTimer(time.Duration(secs) * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		resp2, err := s.post(ctx, body)
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		s.logger.Info("slack summary sent", "retried", true)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	s.logger.Info("slack summary sent")
	return nil
}

func (s *SlackReporter) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.httpClient.Do(req)
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func buildSummaryPayload(sum model.RunSummary) slackPayload {
	headline := "📭 JobBeacon run: no new postings"
	if sum.Added > 0 {
		headline = fmt.Sprintf("🚀 JobBeacon run: %d new posting(s)", sum.Added)
	}

	started := "unknown"
	if !sum.StartedAt.IsZero() {
		started = sum.StartedAt.UTC().Format(time.RFC1123)
	}

	return slackPayload{Blocks: []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: headline},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Fetched:*\n" + strconv.Itoa(sum.Fetched)},
				{Type: "mrkdwn", Text: "*Duplicates:*\n" + strconv.Itoa(sum.Duplicates)},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Notified:*\n" + strconv.Itoa(sum.Notified)},
				{Type: "mrkdwn", Text: "*Failed:*\n" + strconv.Itoa(sum.Failed)},
			},
		},
		{
			Type: "context",
			Elements: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("Started %s, took %s", started, sum.Duration.Round(time.Millisecond))},
			},
		},
		{Type: "divider"},
	}}
}
