package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobbeacon/internal/model"
)

var testReg = model.PushRegistration{
	Endpoint: "https://push.example.com/sub/abc",
	Keys:     model.PushKeys{P256dh: "p256", Auth: "auth"},
}

func TestBuildPushPayload(t *testing.T) {
	p := BuildPushPayload(model.Posting{
		Title: "Go Developer", Company: "Acme", Location: "India", URL: "https://example.com/go",
	})
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"title":"New Job: Go Developer","body":"Acme - India","data":{"url":"https://example.com/go"}}`
	if string(raw) != want {
		t.Errorf("payload = %s\nwant      %s", raw, want)
	}
}

func TestHTTPPushSender_Success(t *testing.T) {
	var got gatewayRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewHTTPPushSender(srv.URL, srv.Client(), discardLogger())
	payload := BuildPushPayload(SamplePosting())
	if err := s.SendPush(context.Background(), testReg, payload); err != nil {
		t.Fatalf("SendPush() = %v, want nil", err)
	}
	if got.Subscription.Endpoint != testReg.Endpoint {
		t.Errorf("endpoint = %q", got.Subscription.Endpoint)
	}
	if got.Payload.Title != payload.Title {
		t.Errorf("payload title = %q", got.Payload.Title)
	}
}

func TestHTTPPushSender_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	s := NewHTTPPushSender(srv.URL, srv.Client(), discardLogger())
	if err := s.SendPush(context.Background(), testReg, model.PushPayload{}); err == nil {
		t.Error("expected error for HTTP 410, got nil")
	}
}

func TestHTTPPushSender_RetriesOnceOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewHTTPPushSender(srv.URL, srv.Client(), discardLogger())
	s.maxBackoff = 10 * time.Millisecond

	if err := s.SendPush(context.Background(), testReg, model.PushPayload{}); err == nil {
		t.Error("expected error after second 429, got nil")
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls, got %d", c)
	}
}
