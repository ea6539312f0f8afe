package auth

import (
	"sync"

	"golang.org/x/oauth2"
)

// TokenSet is the credential set returned by the token endpoint. Absent fields are nil and encode as JSON null.
type TokenSet struct {
	AccessToken  *string `json:"access_token"`
	TokenType    *string `json:"token_type"`
	Scope        *string `json:"scope"`
	ExpiresIn    *string `json:"expires_in"` // opaque, never parsed into a deadline
	RefreshToken *string `json:"refresh_token"`
}

// HasAccessToken reports whether an access token is present and non-empty.
func (t TokenSet) HasAccessToken() bool {
	return t.AccessToken != nil && *t.AccessToken != ""
}

// HasRefreshToken reports whether a refresh token is present and non-empty.
func (t TokenSet) HasRefreshToken() bool {
	return t.RefreshToken != nil && *t.RefreshToken != ""
}

// Empty reports whether every field is absent.
func (t TokenSet) Empty() bool {
	return t.AccessToken == nil && t.TokenType == nil && t.Scope == nil && t.ExpiresIn == nil && t.RefreshToken == nil
}

// OAuth2Token converts the set into an [oauth2.Token] that authorizes requests with "Bearer {access_token}".
func (t TokenSet) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{TokenType: "Bearer"}
	if t.AccessToken != nil {
		tok.AccessToken = *t.AccessToken
	}
	if t.RefreshToken != nil {
		tok.RefreshToken = *t.RefreshToken
	}
	return tok
}

// PendingLogin is the single in-flight login attempt.
type PendingLogin struct {
	State string
	Code  string
}

// Session owns the pending login and the current token set of one [Flow].
//
// The mutex makes individual reads and writes atomic. Operations are not serialised end to end,
// so two concurrent logins still race and the later state wins.
//
// A zero Session is empty and ready to use.
type Session struct {
	mu      sync.Mutex
	pending PendingLogin
	tokens  TokenSet
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// Tokens returns a copy of the current token set.
func (s *Session) Tokens() TokenSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

// Pending returns a copy of the pending login.
func (s *Session) Pending() PendingLogin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Session) setState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.State = state
}

func (s *Session) setCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.Code = code
}

// takeCode returns the pending code and clears it.
func (s *Session) takeCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := s.pending.Code
	s.pending.Code = ""
	return code
}

// replaceTokens overwrites all five fields.
func (s *Session) replaceTokens(t TokenSet) TokenSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = t
	return s.tokens
}

// refreshTokens overwrites every field except the refresh token.
func (s *Session) refreshTokens(t TokenSet) TokenSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.RefreshToken = s.tokens.RefreshToken
	s.tokens = t
	return s.tokens
}
