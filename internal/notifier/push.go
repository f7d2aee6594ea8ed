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

var (
	_ model.PushSender = (*LogPushSender)(nil)
	_ model.PushSender = (*HTTPPushSender)(nil)
)

// BuildPushPayload returns the push message for one posting.
func BuildPushPayload(p model.Posting) model.PushPayload {
	return model.PushPayload{
		Title: "New Job: " + p.Title,
		Body:  p.Company + " - " + p.Location,
		Data:  model.PushPayloadData{URL: p.URL},
	}
}

// LogPushSender logs push messages instead of delivering them.
type LogPushSender struct {
	logger *slog.Logger
}

func NewLogPushSender(logger *slog.Logger) *LogPushSender {
	return &LogPushSender{logger: logger}
}

func (s *LogPushSender) SendPush(_ context.Context, reg model.PushRegistration, payload model.PushPayload) error {
	s.logger.Info("push", "endpoint", reg.Endpoint, "title", payload.Title, "url", payload.Data.URL)
	return nil
}

// HTTPPushSender hands push messages to a web-push gateway that owns VAPID
// signing and payload encryption.
type HTTPPushSender struct {
	gatewayURL string
	httpClient *http.Client
	logger     *slog.Logger
	maxBackoff time.Duration
}

func NewHTTPPushSender(gatewayURL string, httpClient *http.Client, logger *slog.Logger) *HTTPPushSender {
	return &HTTPPushSender{
		gatewayURL: gatewayURL,
		httpClient: httpClient,
		logger:     logger,
		maxBackoff: 30 * time.Second,
	}
}

type gatewayRequest struct {
	Subscription model.PushRegistration `json:"subscription"`
	Payload      model.PushPayload      `json:"payload"`
}

// SendPush posts one message to the gateway. A 429 is retried once after the
// advertised Retry-After delay.
func (s *HTTPPushSender) SendPush(ctx context.Context, reg model.PushRegistration, payload model.PushPayload) error {
	body, err := json.Marshal(gatewayRequest{Subscription: reg, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal push request: %w", err)
	}

	status, retryAfter, err := s.post(ctx, body)
	if err != nil {
		return err
	}

	if status == http.StatusTooManyRequests {
		wait := retryAfter
		if wait <= 0 {
			wait = time.Second
		}
		if wait > s.maxBackoff {
			wait = s.maxBackoff
		}
		s.logger.Warn("push gateway rate limited, retrying", "retry_after", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		status, _, err = s.post(ctx, body)
		if err != nil {
			return fmt.Errorf("push (retry): %w", err)
		}
		if status < 200 || status > 299 {
			return fmt.Errorf("push gateway returned %d on retry", status)
		}
		return nil
	}

	if status < 200 || status > 299 {
		return fmt.Errorf("push gateway returned %d", status)
	}
	return nil
}

func (s *HTTPPushSender) post(ctx context.Context, body []byte) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("building push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("post to push gateway: %w", err)
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	return resp.StatusCode, time.Duration(secs) * time.Second, nil
}
