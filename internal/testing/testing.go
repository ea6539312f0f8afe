// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"testing"
)

// ProviderRequest is a request received by a [FakeProvider].
type ProviderRequest struct {
	Method string
	Path   string
	Header http.Header
	Form   url.Values
}

// FakeProvider is an httptest stand-in for the accounts service and Web API.
//
// It serves POST /api/token and GET /v1/me with canned responses and records every request.
type FakeProvider struct {
	Server *httptest.Server

	mu          sync.Mutex
	requests    []ProviderRequest
	tokenStatus int
	tokenBody   string
	meStatus    int
	meBody      string
}

// NewFakeProvider starts a provider that answers token requests with a full token set and /me with a profile.
// The server is closed when the test ends.
func NewFakeProvider(t *testing.T) *FakeProvider {
	t.Helper()

	p := &FakeProvider{
		tokenStatus: http.StatusOK,
		tokenBody:   `{"access_token":"access-1","token_type":"Bearer","scope":"user-read-private","expires_in":3600,"refresh_token":"refresh-1"}`,
		meStatus:    http.StatusOK,
		meBody:      `{"id":"user-1","display_name":"Test User"}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		status, body := p.record(r, r.PostForm, true)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
	mux.HandleFunc("GET /v1/me", func(w http.ResponseWriter, r *http.Request) {
		status, body := p.record(r, nil, false)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Server.Close)
	return p
}

func (p *FakeProvider) record(r *http.Request, form url.Values, token bool) (int, string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, ProviderRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Form:   form,
	})

	if token {
		return p.tokenStatus, p.tokenBody
	}
	return p.meStatus, p.meBody
}

// SetTokenResponse changes the response of the token endpoint.
func (p *FakeProvider) SetTokenResponse(status int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenStatus, p.tokenBody = status, body
}

// SetMeResponse changes the response of the current-user endpoint.
func (p *FakeProvider) SetMeResponse(status int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.meStatus, p.meBody = status, body
}

// Requests returns a copy of every request received so far.
func (p *FakeProvider) Requests() []ProviderRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ProviderRequest(nil), p.requests...)
}

// LastRequest returns the most recent request. It fails the test when there is none.
func (p *FakeProvider) LastRequest(t *testing.T) ProviderRequest {
	t.Helper()
	reqs := p.Requests()
	if len(reqs) == 0 {
		t.Fatal("expected at least one provider request")
	}
	return reqs[len(reqs)-1]
}

func (p *FakeProvider) AuthURL() string  { return p.Server.URL + "/authorize" }
func (p *FakeProvider) TokenURL() string { return p.Server.URL + "/api/token" }
func (p *FakeProvider) APIURL() string   { return p.Server.URL + "/v1" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// ErrRead is returned by readers that simulate failures.
var ErrRead = errors.New("read failed")

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) { return 0, ErrRead }

// NewFailingReader returns an [io.Reader] whose every Read fails with [ErrRead].
func NewFailingReader() io.Reader {
	return failingReader{}
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, ErrRead
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
