package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	githubendpoint "golang.org/x/oauth2/github"

	"github.com/custodia-labs/tokenbridge/internal/core/domain"
	"github.com/custodia-labs/tokenbridge/internal/core/ports/driven"
)

// Ensure Exchanger implements the interface.
var _ driven.TokenExchanger = (*Exchanger)(nil)

// maxResponseSize caps how much of a token response is read.
const maxResponseSize = 64 << 10

// Config holds the OAuth app registration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint defaults to GitHub's authorize and token URLs.
	Endpoint oauth2.Endpoint

	// Scopes requested on the authorize redirect.
	Scopes []string

	// Timeout bounds one exchange (default: 30s).
	Timeout time.Duration
}

// Exchanger performs the authorization-code exchange against GitHub.
type Exchanger struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// NewExchanger creates a new GitHub token exchanger.
func NewExchanger(cfg Config, logger logrus.FieldLogger) *Exchanger {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint.AuthURL = githubendpoint.Endpoint.AuthURL
	}
	if endpoint.TokenURL == "" {
		endpoint.TokenURL = githubendpoint.Endpoint.TokenURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Exchanger{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       cfg.Scopes,
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithField("component", "github_exchanger"),
	}
}

// AuthorizeURL returns the GitHub authorization URL for this app.
func (e *Exchanger) AuthorizeURL() string {
	return e.oauth.AuthCodeURL("")
}

// Exchange posts the code to the token endpoint and parses the answer.
// Credentials travel as query parameters with an empty body, which GitHub
// accepts. The call is never retried because the code is single-use.
func (e *Exchanger) Exchange(ctx context.Context, code string) (*domain.TokenBundle, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty code", domain.ErrUpstream)
	}

	tokenURL, err := url.Parse(e.oauth.Endpoint.TokenURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse token url: %v", domain.ErrUpstream, err)
	}
	params := tokenURL.Query()
	params.Set("client_id", e.oauth.ClientID)
	params.Set("client_secret", e.oauth.ClientSecret)
	params.Set("code", code)
	params.Set("redirect_uri", e.oauth.RedirectURL)
	tokenURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrUpstream, err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: do request: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   truncate(string(body), 256),
		}).Warn("token endpoint rejected the exchange")
		return nil, fmt.Errorf("%w: token endpoint returned %d", domain.ErrUpstream, resp.StatusCode)
	}

	bundle, err := ParseTokenResponse(resp.Header.Get("Content-Type"), body, e.logger)
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
