package trace

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"invoicer/internal/log"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestTransportSetsRequestIDAndLogs(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get(HeaderRequestID))
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf, Level: slog.LevelDebug})
	client := &http.Client{Transport: NewTransport(nil, logger)}

	ctx := WithRequestID(context.Background(), "fixed-id")
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/ok", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if req.Header.Get(HeaderRequestID) != "" {
		t.Fatal("caller's request was modified")
	}

	resp, err = client.Get(srv.URL + "/fail")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if len(seen) != 2 || seen[0] != "fixed-id" || seen[1] == "" || seen[1] == "fixed-id" {
		t.Fatalf("unexpected request ids %v", seen)
	}
	out := buf.String()
	if !strings.Contains(out, "request_id=fixed-id") || !strings.Contains(out, "status_code=502") || !strings.Contains(out, "component=http") {
		t.Fatalf("unexpected log output:\n%s", out)
	}

	m := client.Transport.(*Transport).GetMetrics()
	if m.TotalRequests != 2 || m.FailedRequests != 1 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestTransportLogsTransportErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf, Level: slog.LevelWarn})
	boom := errors.New("connection refused")
	tr := NewTransport(roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, boom }), logger)

	req, _ := http.NewRequest(http.MethodGet, "http://backend.invalid/api/invoices", nil)
	if _, err := tr.RoundTrip(req); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !strings.Contains(buf.String(), "backend request failed") || !strings.Contains(buf.String(), "path=/api/invoices") {
		t.Fatalf("unexpected log output:\n%s", buf.String())
	}
	if tr.GetMetrics().FailedRequests != 1 {
		t.Fatal("failure not counted")
	}
}
