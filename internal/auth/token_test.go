package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	tu "github.com/desertthunder/spotauth/internal/testing"
)

// authorize runs begin-login and a successful callback so a code is pending.
func authorize(t *testing.T, flow *Flow, code string) {
	t.Helper()
	flow.BeginLogin()
	if err := flow.HandleCallback(CallbackParams{State: flow.Session().Pending().State, Code: code}); err != nil {
		t.Fatalf("callback failed: %v", err)
	}
}

func assertField(t *testing.T, name string, got *string, want string) {
	t.Helper()
	if got == nil {
		t.Errorf("%s = nil, want %q", name, want)
		return
	}
	if *got != want {
		t.Errorf("%s = %q, want %q", name, *got, want)
	}
}

func TestBasicCredentials(t *testing.T) {
	tc := []struct {
		id, secret string
		want       string
	}{
		{id: "test_client_id", secret: "test_client_secret", want: "dGVzdF9jbGllbnRfaWQ6dGVzdF9jbGllbnRfc2VjcmV0"},
		{id: "abc", secret: "123", want: "YWJjOjEyMw=="},
		{id: "a b", secret: "c:d", want: "YSBiOmM6ZA=="},
	}

	for _, tt := range tc {
		t.Run(tt.id, func(t *testing.T) {
			if got := BasicCredentials(tt.id, tt.secret); got != tt.want {
				t.Errorf("BasicCredentials() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExchangeCode(t *testing.T) {
	t.Run("Overwrites All Fields", func(t *testing.T) {
		p := tu.NewFakeProvider(t)
		flow := newTestFlow(t, p)
		authorize(t, flow, "abc123")

		tokens, err := flow.ExchangeCode(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		assertField(t, "access_token", tokens.AccessToken, "access-1")
		assertField(t, "token_type", tokens.TokenType, "Bearer")
		assertField(t, "scope", tokens.Scope, "user-read-private")
		assertField(t, "expires_in", tokens.ExpiresIn, "3600")
		assertField(t, "refresh_token", tokens.RefreshToken, "refresh-1")

		stored := flow.Session().Tokens()
		assertField(t, "stored access_token", stored.AccessToken, "access-1")
		assertField(t, "stored refresh_token", stored.RefreshToken, "refresh-1")
	})

	t.Run("Request Shape", func(t *testing.T) {
		p := tu.NewFakeProvider(t)
		flow := newTestFlow(t, p)
		authorize(t, flow, "abc123")

		if _, err := flow.ExchangeCode(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		req := p.LastRequest(t)
		if req.Method != http.MethodPost || req.Path != "/api/token" {
			t.Errorf("expected POST /api/token, got %s %s", req.Method, req.Path)
		}
		if got := req.Header.Get("Authorization"); got != "Basic dGVzdF9jbGllbnRfaWQ6dGVzdF9jbGllbnRfc2VjcmV0" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if got := req.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected Content-Type %q", got)
		}
		if got := req.Form.Get("grant_type"); got != "authorization_code" {
			t.Errorf("grant_type = %q, want authorization_code", got)
		}
		if got := req.Form.Get("code"); got != "abc123" {
			t.Errorf("code = %q, want abc123", got)
		}
		if got := req.Form.Get("redirect_uri"); got != testRedirectURL {
			t.Errorf("redirect_uri = %q, want %s", got, testRedirectURL)
		}
		if req.Form.Has("client_secret") {
			t.Error("client secret must only travel in the Authorization header")
		}
	})

	t.Run("Replaces Previous Tokens Entirely", func(t *testing.T) {
		p := tu.NewFakeProvider(t)
		flow := newTestFlow(t, p)
		flow.Session().replaceTokens(TokenSet{RefreshToken: ptr("old-refresh"), Scope: ptr("old-scope")})

		p.SetTokenResponse(http.StatusOK, `{"access_token":"access-2","token_type":"Bearer"}`)
		authorize(t, flow, "abc123")

		tokens, err := flow.ExchangeCode(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tokens.RefreshToken != nil || tokens.Scope != nil || tokens.ExpiresIn != nil {
			t.Errorf("expected absent fields to be overwritten with nil, got %+v", tokens)
		}
	})

	t.Run("Code Is Single Use", func(t *testing.T) {
		p := tu.NewFakeProvider(t)
		flow := newTestFlow(t, p)
		authorize(t, flow, "abc123")

		if _, err := flow.ExchangeCode(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := flow.ExchangeCode(context.Background()); !errors.Is(err, ErrTokenExchangeFailed) {
			t.Fatalf("expected replay to fail, got %v", err)
		}
		if n := len(p.Requests()); n != 1 {
			t.Errorf("expected exactly one token request, got %d", n)
		}
	})

	t.Run("Failures", func(t *testing.T) {
		tc := []struct {
			name   string
			status int
			body   string
		}{
			{name: "provider error", status: http.StatusBadRequest, body: `{"error":"invalid_grant","error_description":"Invalid authorization code"}`},
			{name: "server error", status: http.StatusInternalServerError, body: `oops`},
			{name: "malformed json", status: http.StatusOK, body: `{"access_token":`},
			{name: "missing access token", status: http.StatusOK, body: `{"token_type":"Bearer"}`},
			{name: "null access token", status: http.StatusOK, body: `{"access_token":null}`},
			{name: "wrong field type", status: http.StatusOK, body: `{"access_token":true}`},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				p := tu.NewFakeProvider(t)
				p.SetTokenResponse(tt.status, tt.body)
				flow := newTestFlow(t, p)
				authorize(t, flow, "abc123")

				_, err := flow.ExchangeCode(context.Background())
				if !errors.Is(err, ErrTokenExchangeFailed) {
					t.Fatalf("expected ErrTokenExchangeFailed, got %v", err)
				}
				if !flow.Session().Tokens().Empty() {
					t.Error("failed exchange must not store tokens")
				}
			})
		}
	})

	t.Run("Network Failure", func(t *testing.T) {
		flow, err := NewFlow(Options{
			ClientID:     testClientID,
			ClientSecret: testClientSecret,
			TokenURL:     "http://provider.invalid/api/token",
			HTTPClient:   &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))},
		})
		if err != nil {
			t.Fatalf("failed to create flow: %v", err)
		}
		authorize(t, flow, "abc123")

		if _, err := flow.ExchangeCode(context.Background()); !errors.Is(err, ErrTokenExchangeFailed) {
			t.Errorf("expected ErrTokenExchangeFailed, got %v", err)
		}
	})

	t.Run("Body Read Failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: &tu.FCloser{}}
		flow, err := NewFlow(Options{
			ClientID:     testClientID,
			ClientSecret: testClientSecret,
			TokenURL:     "http://provider.invalid/api/token",
			HTTPClient:   &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)},
		})
		if err != nil {
			t.Fatalf("failed to create flow: %v", err)
		}
		authorize(t, flow, "abc123")

		if _, err := flow.ExchangeCode(context.Background()); !errors.Is(err, ErrTokenExchangeFailed) {
			t.Errorf("expected ErrTokenExchangeFailed, got %v", err)
		}
	})

	t.Run("No Code Pending", func(t *testing.T) {
		p := tu.NewFakeProvider(t)
		flow := newTestFlow(t, p)

		if _, err := flow.ExchangeCode(context.Background()); !errors.Is(err, ErrTokenExchangeFailed) {
			t.Errorf("expected ErrTokenExchangeFailed, got %v", err)
		}
		if n := len(p.Requests()); n != 0 {
			t.Errorf("expected no provider requests, got %d", n)
		}
	})
}

func TestRefreshToken(t *testing.T) {
	t.Run("No Refresh Token Is A No-op", func(t *testing.T) {
		p := tu.NewFakeProvider(t)
		flow := newTestFlow(t, p)

		tokens, refreshed, err := flow.RefreshToken(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if refreshed {
			t.Error("expected no refresh without a refresh token")
		}
		if !tokens.Empty() || !flow.Session().Tokens().Empty() {
			t.Error("expected token set to remain empty")
		}
		if n := len(p.Requests()); n != 0 {
			t.Errorf("expected no outbound call, got %d", n)
		}
	})

	t.Run("Keeps Refresh Token When Omitted", func(t *testing.T) {
		p := tu.NewFakeProvider(t)
		flow := newTestFlow(t, p)
		authorize(t, flow, "abc123")
		if _, err := flow.ExchangeCode(context.Background()); err != nil {
			t.Fatalf("exchange failed: %v", err)
		}

		p.SetTokenResponse(http.StatusOK, `{"access_token":"access-2","token_type":"Bearer","scope":"user-read-email","expires_in":1800}`)

		tokens, refreshed, err := flow.RefreshToken(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !refreshed {
			t.Error("expected refresh to happen")
		}

		assertField(t, "access_token", tokens.AccessToken, "access-2")
		assertField(t, "token_type", tokens.TokenType, "Bearer")
		assertField(t, "scope", tokens.Scope, "user-read-email")
		assertField(t, "expires_in", tokens.ExpiresIn, "1800")
		assertField(t, "refresh_token", tokens.RefreshToken, "refresh-1")
	})

	t.Run("Keeps Refresh Token When Provider Sends One", func(t *testing.T) {
		p := tu.NewFakeProvider(t)
		flow := newTestFlow(t, p)
		flow.Session().replaceTokens(TokenSet{AccessToken: ptr("access-1"), RefreshToken: ptr("refresh-1")})

		p.SetTokenResponse(http.StatusOK, `{"access_token":"access-2","refresh_token":"refresh-2"}`)

		tokens, refreshed, err := flow.RefreshToken(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !refreshed {
			t.Error("expected refresh to happen")
		}
		assertField(t, "access_token", tokens.AccessToken, "access-2")
		assertField(t, "refresh_token", tokens.RefreshToken, "refresh-1")
		assertField(t, "session refresh_token", flow.Session().Tokens().RefreshToken, "refresh-1")
	})

	t.Run("Request Shape", func(t *testing.T) {
		p := tu.NewFakeProvider(t)
		flow := newTestFlow(t, p)
		flow.Session().replaceTokens(TokenSet{AccessToken: ptr("access-1"), RefreshToken: ptr("refresh-1")})

		if _, _, err := flow.RefreshToken(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		req := p.LastRequest(t)
		if got := req.Form.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", got)
		}
		if got := req.Form.Get("refresh_token"); got != "refresh-1" {
			t.Errorf("refresh_token = %q, want refresh-1", got)
		}
		if got := req.Header.Get("Authorization"); got != "Basic "+BasicCredentials(testClientID, testClientSecret) {
			t.Errorf("unexpected Authorization header %q", got)
		}
	})

	t.Run("Failure Leaves Tokens", func(t *testing.T) {
		p := tu.NewFakeProvider(t)
		flow := newTestFlow(t, p)
		before := TokenSet{AccessToken: ptr("access-1"), RefreshToken: ptr("refresh-1")}
		flow.Session().replaceTokens(before)

		p.SetTokenResponse(http.StatusBadRequest, `{"error":"invalid_grant"}`)

		_, refreshed, err := flow.RefreshToken(context.Background())
		if !errors.Is(err, ErrTokenExchangeFailed) {
			t.Fatalf("expected ErrTokenExchangeFailed, got %v", err)
		}
		if refreshed {
			t.Error("expected refreshed to be false on failure")
		}

		after := flow.Session().Tokens()
		assertField(t, "access_token", after.AccessToken, "access-1")
		assertField(t, "refresh_token", after.RefreshToken, "refresh-1")
	})
}

func TestDecodeTokenSet(t *testing.T) {
	t.Run("expires_in as string", func(t *testing.T) {
		tokens, err := decodeTokenSet([]byte(`{"access_token":"a","expires_in":"3600"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertField(t, "expires_in", tokens.ExpiresIn, "3600")
	})

	t.Run("not an object", func(t *testing.T) {
		if _, err := decodeTokenSet([]byte(`[]`)); err == nil {
			t.Error("expected error for non-object body")
		}
	})

	t.Run("unknown fields ignored", func(t *testing.T) {
		tokens, err := decodeTokenSet([]byte(`{"access_token":"a","id_token":"x"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertField(t, "access_token", tokens.AccessToken, "a")
	})
}
