package duolingo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/example/duosync/internal/vocab"
	"github.com/example/duosync/pkg/models"
)

const (
	DefaultBaseURL       = "https://www.duolingo.com"
	DefaultDictionaryURL = "https://d2.duolingo.com"
	defaultTimeout       = 30 * time.Second
	defaultUserAgent     = "duosync/1.0"
	maxBodySize          = 32 << 20
)

// ErrNotLoggedIn is returned by calls made before a successful Login
var ErrNotLoggedIn = errors.New("duolingo: not logged in")

// Options configures a Client
type Options struct {
	BaseURL        string
	DictionaryURL  string
	Timeout        time.Duration
	RequestsPerSec float64
	UserAgent      string
	HTTPClient     *http.Client
}

// Client is an unofficial Duolingo web API client. It is not safe for concurrent use.
type Client struct {
	http      *http.Client
	baseURL   string
	dictURL   string
	userAgent string
	limiter   *rate.Limiter
	log       *slog.Logger

	username         string
	userID           string
	token            string
	learningLanguage string
	uiLanguage       string
}

// NewClient creates a client that is not yet logged in
func NewClient(opts Options, log *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.DictionaryURL == "" {
		opts.DictionaryURL = DefaultDictionaryURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	limit := rate.Inf
	if opts.RequestsPerSec > 0 {
		limit = rate.Limit(opts.RequestsPerSec)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		http:      httpClient,
		baseURL:   opts.BaseURL,
		dictURL:   opts.DictionaryURL,
		userAgent: opts.UserAgent,
		limiter:   rate.NewLimiter(limit, 1),
		log:       log,
	}
}

// Connector returns a vocab.Connector that logs a fresh client in for every session
func Connector(opts Options, log *slog.Logger) vocab.Connector {
	return vocab.ConnectorFunc(func(ctx context.Context, username, password string) (vocab.Remote, error) {
		c := NewClient(opts, log)
		if err := c.Login(ctx, username, password); err != nil {
			return nil, err
		}
		return c, nil
	})
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Response string `json:"response"`
	Failure  string `json:"failure"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

type userResponse struct {
	ID               json.Number `json:"id"`
	Username         string      `json:"username"`
	LearningLanguage string      `json:"learning_language"`
	UILanguage       string      `json:"ui_language"`
}

// Login authenticates and loads the user's language pair. A rejected login wraps
// vocab.ErrInvalidCredentials; transport failures wrap vocab.ErrNetworkUnavailable.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, err := json.Marshal(loginRequest{Login: username, Password: password})
	if err != nil {
		return fmt.Errorf("failed to encode login request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: login returned status %d", vocab.ErrInvalidCredentials, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login returned status %d", resp.StatusCode)
	}

	var lr loginResponse
	if err := decode(resp.Body, &lr); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	if lr.Failure != "" {
		return fmt.Errorf("%w: %s", vocab.ErrInvalidCredentials, lr.Failure)
	}

	token := resp.Header.Get("jwt")
	if token == "" {
		return fmt.Errorf("%w: no session token in login response", vocab.ErrInvalidCredentials)
	}

	c.username = username
	c.token = token
	c.userID = tokenSubject(token)

	if err := c.loadUser(ctx); err != nil {
		c.token = ""
		return err
	}

	c.log.Debug("duolingo session established",
		"user_id", c.userID,
		"learning_language", c.learningLanguage,
		"ui_language", c.uiLanguage)
	return nil
}

func (c *Client) loadUser(ctx context.Context) error {
	var u userResponse
	if err := c.getJSON(ctx, c.baseURL+"/users/"+url.PathEscape(c.username), &u); err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	c.learningLanguage = u.LearningLanguage
	c.uiLanguage = u.UILanguage
	if c.userID == "" {
		c.userID = u.ID.String()
	}
	return nil
}

// UserID is the remote user id of the session
func (c *Client) UserID() string { return c.userID }

// Languages returns the learning language and the interface language abbreviations
func (c *Client) Languages() (learning, ui string) { return c.learningLanguage, c.uiLanguage }

// FetchOverview returns the vocabulary of the active language
func (c *Client) FetchOverview(ctx context.Context) (*models.Overview, error) {
	if c.token == "" {
		return nil, ErrNotLoggedIn
	}

	var o models.Overview
	if err := c.getJSON(ctx, c.baseURL+"/vocabulary/overview", &o); err != nil {
		return nil, fmt.Errorf("failed to get vocabulary: %w", err)
	}
	if o.LearningLanguage != "" {
		c.learningLanguage = o.LearningLanguage
	}
	if o.FromLanguage != "" {
		c.uiLanguage = o.FromLanguage
	}
	return &o, nil
}

// FetchTranslations looks words up in the hints dictionary from the learning language into
// the interface language. Words without hints are absent from the result.
func (c *Client) FetchTranslations(ctx context.Context, words []string) (models.TranslationSet, error) {
	if c.token == "" {
		return nil, ErrNotLoggedIn
	}
	if len(words) == 0 {
		return models.TranslationSet{}, nil
	}
	if c.learningLanguage == "" || c.uiLanguage == "" {
		return nil, fmt.Errorf("unknown language pair %q -> %q", c.learningLanguage, c.uiLanguage)
	}

	tokens, err := json.Marshal(words)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tokens: %w", err)
	}
	u := fmt.Sprintf("%s/api/1/dictionary/hints/%s/%s?tokens=%s",
		c.dictURL,
		url.PathEscape(c.learningLanguage),
		url.PathEscape(c.uiLanguage),
		url.QueryEscape(string(tokens)))

	set := make(models.TranslationSet)
	if err := c.getJSON(ctx, u, &set); err != nil {
		return nil, fmt.Errorf("failed to get translations: %w", err)
	}
	return set, nil
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	resp, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: session rejected", vocab.ErrInvalidCredentials)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("duolingo returned status %d", resp.StatusCode)
	}
	if err := decode(resp.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, u string, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", vocab.ErrNetworkUnavailable, err)
	}
	c.log.Debug("duolingo request",
		"method", method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start))
	return resp, nil
}

func decode(r io.Reader, v any) error {
	return json.NewDecoder(io.LimitReader(r, maxBodySize)).Decode(v)
}
