// Package auth implements the OAuth 2.0 Authorization Code Grant against Spotify's accounts service.
//
// # Flow
//
// A [Flow] owns one [Session] and exposes the steps of the grant:
//
//  1. [Flow.BeginLogin] generates a CSRF state and returns the provider authorize URL.
//  2. [Flow.HandleCallback] validates the echoed state, surfaces provider errors and captures the code.
//  3. [Flow.ExchangeCode] trades the code for a [TokenSet] at the token endpoint.
//  4. [Flow.RefreshToken] trades the refresh token for a new access token.
//  5. [Flow.CheckSession] asks the Web API whether the access token is still accepted.
//
// The token endpoint is called with a form-encoded body and HTTP Basic client authentication,
// base64(client_id:client_secret), without the URL escaping applied by [oauth2.Config.Exchange].
//
// # State
//
// Only the most recent login attempt is valid: every BeginLogin overwrites the pending state.
// The state is compared, never cleared, by HandleCallback. An authorization code is sent to the
// token endpoint at most once.
//
// # Errors
//
// Callback validation failures are returned as [*CallbackError] wrapping [ErrStateMismatch] or
// [ErrProviderDenied]. Every token endpoint failure wraps [ErrTokenExchangeFailed]; the session
// is left untouched when one occurs.
package auth
