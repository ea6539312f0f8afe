package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

// CheckSession asks the provider's current-user endpoint whether the access token is accepted.
//
// It returns the current tokens and whether the session is valid. A session without an access
// token is invalid and costs no request. A non-2xx status or a JSON body with an "error" member
// means invalid; only transport failures are returned as errors.
func (f *Flow) CheckSession(ctx context.Context) (TokenSet, bool, error) {
	tokens := f.session.Tokens()
	if !tokens.HasAccessToken() {
		return tokens, false, nil
	}

	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, f.client), oauth2.StaticTokenSource(tokens.OAuth2Token()))
	client.Timeout = f.client.Timeout

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.apiURL+"/me", nil)
	if err != nil {
		return tokens, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return tokens, false, fmt.Errorf("session check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return tokens, false, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponse))
	if err != nil {
		return tokens, false, fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err == nil && len(result.Error) > 0 && string(result.Error) != "null" {
		return tokens, false, nil
	}

	return tokens, true, nil
}
