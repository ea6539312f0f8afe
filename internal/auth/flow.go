package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	SpotifyAuthURL  = "https://accounts.spotify.com/authorize"
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"
	SpotifyAPIURL   = "https://api.spotify.com/v1"

	defaultTimeout = 30 * time.Second
)

// Options configures a [Flow]. Provider URLs default to Spotify's.
type Options struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	RedirectURL  string

	AuthURL  string
	TokenURL string
	APIURL   string

	// HTTPClient is used for every outbound call. Defaults to a client with a 30 second timeout.
	HTTPClient *http.Client

	// Session is the state owner. A nil Session starts empty.
	Session *Session
}

// CallbackParams are the query parameters the provider echoes to the redirect URI.
//
// Error is nil when the parameter is absent. A present but empty error still denies.
type CallbackParams struct {
	State string
	Error *string
	Code  string
}

// Flow drives the authorization code grant for a single [Session].
type Flow struct {
	config  *oauth2.Config
	apiURL  string
	client  *http.Client
	session *Session
}

// NewFlow creates a Flow from opts. Client credentials are required.
func NewFlow(opts Options) (*Flow, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	if opts.AuthURL == "" {
		opts.AuthURL = SpotifyAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = SpotifyTokenURL
	}
	if opts.APIURL == "" {
		opts.APIURL = SpotifyAPIURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if opts.Session == nil {
		opts.Session = NewSession()
	}

	return &Flow{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Scopes:       opts.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   opts.AuthURL,
				TokenURL:  opts.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		apiURL:  opts.APIURL,
		client:  opts.HTTPClient,
		session: opts.Session,
	}, nil
}

// Session returns the session this flow mutates.
func (f *Flow) Session() *Session {
	return f.session
}

// RedirectURL returns the configured redirect URI.
func (f *Flow) RedirectURL() string {
	return f.config.RedirectURL
}

// BeginLogin starts a new login attempt and returns the URL the user agent must be redirected to.
//
// Any previous pending state is replaced.
func (f *Flow) BeginLogin() string {
	state, err := GenerateState()
	if err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("auth: %v", err))
	}

	f.session.setState(state)
	return f.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("scope", strings.Join(f.config.Scopes, " ")),
		oauth2.SetAuthURLParam("show_dialog", "false"),
	)
}

// HandleCallback validates the provider redirect.
//
// The state is checked before anything else. A provider error is passed through verbatim.
// On success the code is stored for [Flow.ExchangeCode].
func (f *Flow) HandleCallback(p CallbackParams) error {
	pending := f.session.Pending()

	if !statesMatch(pending.State, p.State) {
		return &CallbackError{Kind: ErrStateMismatch, Message: StateMismatchMessage}
	}

	if p.Error != nil {
		return &CallbackError{Kind: ErrProviderDenied, Message: *p.Error}
	}

	f.session.setCode(p.Code)
	return nil
}

// statesMatch compares in constant time. No login in progress never matches.
func statesMatch(stored, received string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(received)) == 1
}
