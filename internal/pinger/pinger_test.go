package pinger

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New("http://localhost:8002/api/keep-active/", "KEEP-ACTIVE-TOKEN", "", nil, quietLogger())
	if !errors.Is(err, ErrMissingToken) {
		t.Errorf("err = %v, want ErrMissingToken", err)
	}
	if _, err := New("not a url", "KEEP-ACTIVE-TOKEN", "t", nil, quietLogger()); err == nil {
		t.Error("invalid url accepted")
	}
}

func TestPingSendsTokenAndParams(t *testing.T) {
	var gotToken, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("KEEP-ACTIVE-TOKEN")
		gotQuery = r.URL.Query().Get("source")
		w.Write([]byte(`{"status":"Server is active"}`))
	}))
	defer srv.Close()

	p, err := New(srv.URL+"/api/keep-active/", "KEEP-ACTIVE-TOKEN", "s3cret", url.Values{"source": {"cron"}}, quietLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	status, err := p.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
	if gotToken != "s3cret" || gotQuery != "cron" {
		t.Errorf("token %q, query %q", gotToken, gotQuery)
	}
}

func TestPingNon200IsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"Invalid or missing keep-active token."}`))
	}))
	defer srv.Close()

	p, _ := New(srv.URL, "KEEP-ACTIVE-TOKEN", "wrong", nil, quietLogger())
	status, err := p.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", status)
	}
}

func TestPingRequestError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	p, _ := New(addr, "KEEP-ACTIVE-TOKEN", "t", nil, quietLogger())
	if _, err := p.Ping(context.Background()); err == nil {
		t.Error("Ping to closed server returned nil error")
	}
}
