package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certdesign/internal/storage"
	"certdesign/internal/verify"
)

type fakeVerifier struct {
	lastWidth int
}

func (f *fakeVerifier) lookup(id string) error {
	switch id {
	case "CERT-1":
		return nil
	case "NODESIGN":
		return verify.ErrNoDesign
	case "BROKEN":
		return errors.New("database on fire")
	}
	return storage.ErrCertificateNotFound
}

func (f *fakeVerifier) Details(_ context.Context, id string) (*verify.Details, error) {
	if id == "NODESIGN" {
		return &verify.Details{CertificateID: id, Skills: []string{}}, nil
	}
	if err := f.lookup(id); err != nil {
		return nil, err
	}
	return &verify.Details{CertificateID: id, RecipientName: "Ada Lovelace", Skills: []string{}}, nil
}

func (f *fakeVerifier) Preview(_ context.Context, id string, maxWidth int, w io.Writer) error {
	if err := f.lookup(id); err != nil {
		return err
	}
	f.lastWidth = maxWidth
	_, err := w.Write([]byte("\x89PNG"))
	return err
}

func (f *fakeVerifier) PDF(_ context.Context, id string, w io.Writer) error {
	if err := f.lookup(id); err != nil {
		return err
	}
	_, err := w.Write([]byte("%PDF-1.3"))
	return err
}

func (f *fakeVerifier) QR(_ context.Context, id string, w io.Writer) error {
	if id == "NODESIGN" {
		id = "CERT-1"
	}
	if err := f.lookup(id); err != nil {
		return err
	}
	_, err := w.Write([]byte("\x89PNG"))
	return err
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Routes(t *testing.T) {
	fake := &fakeVerifier{}
	h := New(Config{RateLimit: 1000, RateBurst: 1000}, fake).Handler()

	tests := []struct {
		name        string
		path        string
		wantStatus  int
		wantType    string
		wantContain string
	}{
		{"health", "/healthz", http.StatusOK, "application/json", "healthy"},
		{"details", "/verify/CERT-1", http.StatusOK, "application/json", "Ada Lovelace"},
		{"details missing", "/verify/NOPE", http.StatusNotFound, "application/json", "Certificate not found"},
		{"details no design", "/verify/NODESIGN", http.StatusOK, "application/json", `"has_design":false`},
		{"preview", "/verify/CERT-1/preview.png?w=300", http.StatusOK, "image/png", "PNG"},
		{"preview no design", "/verify/NODESIGN/preview.png", http.StatusNotFound, "application/json", "no design"},
		{"preview bad width", "/verify/CERT-1/preview.png?w=abc", http.StatusBadRequest, "application/json", "w must be"},
		{"preview too wide", "/verify/CERT-1/preview.png?w=99999", http.StatusBadRequest, "application/json", "w must be"},
		{"pdf", "/verify/CERT-1/certificate.pdf", http.StatusOK, "application/pdf", "%PDF-"},
		{"pdf failure", "/verify/BROKEN/certificate.pdf", http.StatusInternalServerError, "application/json", "Failed to load"},
		{"qr", "/verify/CERT-1/qr.png", http.StatusOK, "image/png", "PNG"},
		{"qr without design", "/verify/NODESIGN/qr.png", http.StatusOK, "image/png", "PNG"},
		{"qr missing", "/verify/NOPE/qr.png", http.StatusNotFound, "application/json", "Certificate not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.path)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.wantContain)
		})
	}
	assert.Equal(t, 300, fake.lastWidth)
}

func TestHandler_DetailsJSON(t *testing.T) {
	h := New(Config{}, &fakeVerifier{}).Handler()

	rec := get(t, h, "/verify/CERT-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var d verify.Details
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "CERT-1", d.CertificateID)
}

func TestHandler_HealthCheckFailure(t *testing.T) {
	h := New(Config{}, &fakeVerifier{}, WithHealthCheck(func(context.Context) error {
		return errors.New("no database")
	})).Handler()

	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy")
}

func TestHandler_RateLimit(t *testing.T) {
	h := New(Config{RateLimit: 0.001, RateBurst: 2}, &fakeVerifier{}).Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, h, "/healthz").Code)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "forwarded header from an untrusted peer is ignored")
}

func TestHandler_RateLimitBehindTrustedProxy(t *testing.T) {
	h := New(Config{RateLimit: 0.001, RateBurst: 1, TrustedProxies: []string{"192.0.2.0/24", "not-an-ip"}}, &fakeVerifier{}).Handler()

	from := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Forwarded-For", client)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, from("203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, from("203.0.113.7"))
	assert.Equal(t, http.StatusOK, from("203.0.113.8"))
}

func TestRateLimiter_TrustProxies(t *testing.T) {
	l := NewRateLimiter(1, 1)
	require.NoError(t, l.TrustProxies("10.0.0.0/8", "::1"))
	assert.Error(t, l.TrustProxies("proxy.internal"))

	assert.True(t, l.trusts("10.1.2.3"))
	assert.True(t, l.trusts("::1"))
	assert.False(t, l.trusts("192.0.2.1"))
	assert.False(t, l.trusts("garbage"))
}

func TestHandler_MetricsUseRouteTemplates(t *testing.T) {
	h := New(Config{RateLimit: 1000, RateBurst: 1000}, &fakeVerifier{}).Handler()

	get(t, h, "/verify/CERT-1")
	get(t, h, "/verify/NOPE")

	body := get(t, h, "/metrics").Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",path="/verify/{id}",status="OK"} 1`)
	assert.Contains(t, body, `http_requests_total{method="GET",path="/verify/{id}",status="Not Found"} 1`)
	assert.NotContains(t, body, "CERT-1")
}

func TestHandler_AccessLog(t *testing.T) {
	var buf bytes.Buffer
	h := New(Config{}, &fakeVerifier{}, WithAccessLog(&buf)).Handler()

	get(t, h, "/verify/CERT-1")
	assert.True(t, strings.Contains(buf.String(), `"GET /verify/CERT-1 HTTP/1.1" 200`))
}

func TestRateLimiter_Evict(t *testing.T) {
	l := NewRateLimiter(1, 1)
	now := time.Unix(0, 0)
	l.now = func() time.Time { return now }

	l.limiter("a")
	now = now.Add(2 * time.Minute)
	l.limiter("b")
	now = now.Add(2 * time.Minute)
	l.evict(3 * time.Minute)

	assert.NotContains(t, l.visitors, "a")
	assert.Contains(t, l.visitors, "b")
}
