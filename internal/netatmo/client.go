package netatmo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/teemow/netatmo-mcp/internal/config"
	"github.com/teemow/netatmo-mcp/internal/instrumentation"
	"github.com/teemow/netatmo-mcp/internal/logging"
)

// Netatmo API endpoints.
const (
	DefaultAuthorizeURL    = "https://api.netatmo.com/oauth2/authorize"
	DefaultTokenURL        = "https://api.netatmo.com/oauth2/token"
	DefaultStationsDataURL = "https://api.netatmo.com/api/getstationsdata"
	DefaultMeasureURL      = "https://api.netatmo.com/api/getmeasure"
)

// ScopeReadStation is the only scope this client requests.
const ScopeReadStation = "read_station"

// Measurement defaults.
const (
	DefaultScale       = "30min"
	DefaultMeasureType = "Temperature,Humidity"
)

// maxErrorBodyBytes bounds how much of an error response body ends up in messages.
const maxErrorBodyBytes = 512

// Endpoints groups the remote URLs used by the client.
type Endpoints struct {
	AuthorizeURL    string
	TokenURL        string
	StationsDataURL string
	MeasureURL      string
}

// DefaultEndpoints returns the production Netatmo endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		AuthorizeURL:    DefaultAuthorizeURL,
		TokenURL:        DefaultTokenURL,
		StationsDataURL: DefaultStationsDataURL,
		MeasureURL:      DefaultMeasureURL,
	}
}

// MeasureQuery selects a measurement series. DeviceID is required; Scale and
// Type fall back to DefaultScale and DefaultMeasureType. The optional fields
// are only sent when set.
type MeasureQuery struct {
	DeviceID  string
	ModuleID  string
	Scale     string
	Type      string
	DateBegin *int64
	DateEnd   *int64
	Limit     *int
}

// Values returns the query parameters for the getmeasure endpoint.
func (q MeasureQuery) Values() url.Values {
	v := url.Values{}
	v.Set("device_id", q.DeviceID)
	v.Set("scale", firstNonEmpty(q.Scale, DefaultScale))
	v.Set("type", firstNonEmpty(q.Type, DefaultMeasureType))

	if q.ModuleID != "" {
		v.Set("module_id", q.ModuleID)
	}
	if q.DateBegin != nil {
		v.Set("date_begin", strconv.FormatInt(*q.DateBegin, 10))
	}
	if q.DateEnd != nil {
		v.Set("date_end", strconv.FormatInt(*q.DateEnd, 10))
	}
	if q.Limit != nil {
		v.Set("limit", strconv.Itoa(*q.Limit))
	}
	return v
}

// Client talks to the Netatmo API on behalf of a single account.
// It is safe for concurrent use.
type Client struct {
	settings   config.Settings
	store      TokenStore
	httpClient *http.Client
	endpoints  Endpoints
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for all outbound calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithEndpoints overrides the remote endpoints.
func WithEndpoints(e Endpoints) Option {
	return func(c *Client) {
		c.endpoints = e
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables recording of API call and token refresh metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithClock replaces the wall clock used to compute token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a Netatmo client that persists tokens in store.
func NewClient(settings config.Settings, store TokenStore, opts ...Option) *Client {
	c := &Client{
		settings: settings,
		store:    store,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   settings.RequestTimeout,
		},
		endpoints: DefaultEndpoints(),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.WithService(c.logger, instrumentation.ServiceNetatmo)
	return c
}

// AuthorizationURL returns the URL the user must visit to grant access.
// state is round-tripped through the redirect and is not interpreted here.
func (c *Client) AuthorizationURL(state string) string {
	params := []struct{ key, value string }{
		{"client_id", c.settings.ClientID},
		{"redirect_uri", c.settings.RedirectURI},
		{"scope", ScopeReadStation},
		{"state", state},
		{"response_type", "code"},
	}

	var b strings.Builder
	b.WriteString(c.endpoints.AuthorizeURL)
	b.WriteByte('?')
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

// ExchangeCode exchanges an authorization code for a token pair and persists it.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Tokens, error) {
	logger := logging.WithOperation(c.logger, "netatmo.exchange_code")
	logger.Info("exchanging authorization code for tokens")

	ctx, span := instrumentation.StartNetatmoAPISpan(ctx, instrumentation.OperationExchange)
	defer span.End()

	tok, err := c.oauthConfig().Exchange(c.oauthContext(ctx), code,
		oauth2.SetAuthURLParam("scope", ScopeReadStation))
	if err != nil {
		c.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		err = tokenEndpointError(err)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	tokens, err := c.tokensFromOAuth(tok)
	if err != nil {
		c.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	if err := c.store.Save(ctx, tokens); err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	c.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	instrumentation.SetSpanSuccess(span)
	logger.Info("stored netatmo tokens", "expires_at", tokens.ExpiresAt)
	return tokens, nil
}

// StationData returns all stations of the account with their modules and
// latest readings. An account without stations yields an empty slice.
func (c *Client) StationData(ctx context.Context) ([]Station, error) {
	var resp stationsResponse
	found, err := c.getAuthorized(ctx, instrumentation.OperationStations, c.endpoints.StationsDataURL, nil, &resp)
	if err != nil {
		return nil, err
	}
	if !found || resp.Body.Devices == nil {
		return []Station{}, nil
	}
	return resp.Body.Devices, nil
}

// Measure returns the measurement series selected by q. A response without a
// body yields an empty slice.
func (c *Client) Measure(ctx context.Context, q MeasureQuery) ([]MeasureBlock, error) {
	if q.DeviceID == "" {
		return nil, NewValidationError("device id is required")
	}

	var resp measureResponse
	found, err := c.getAuthorized(ctx, instrumentation.OperationMeasure, c.endpoints.MeasureURL, q.Values(), &resp)
	if err != nil {
		return nil, err
	}
	if !found || resp.Body == nil {
		return []MeasureBlock{}, nil
	}
	return resp.Body, nil
}

// getAuthorized performs an authenticated GET and decodes the JSON response
// into out. It refreshes expired tokens first and retries exactly once after
// a 401. found is false when the response body was empty.
func (c *Client) getAuthorized(ctx context.Context, operation, endpoint string, query url.Values, out any) (found bool, err error) {
	logger := logging.WithOperation(c.logger, "netatmo."+operation)

	ctx, span := instrumentation.StartNetatmoAPISpan(ctx, operation)
	defer span.End()

	start := time.Now()
	defer func() {
		status := instrumentation.FinishSpan(span, err)
		c.metrics.RecordNetatmoAPICall(ctx, operation, status, time.Since(start))
	}()

	tokens, err := c.store.Load(ctx)
	if err != nil {
		return false, err
	}
	if tokens == nil {
		return false, NewNotAuthenticatedError(c.settings.AuthPageURL())
	}

	if tokens.IsExpiredAt(c.now()) {
		logger.Info("access token expired, refreshing", "expires_at", tokens.ExpiresAt)
		tokens, err = c.refresh(ctx, tokens.RefreshToken)
		if err != nil {
			return false, err
		}
	}

	resp, err := c.send(ctx, endpoint, query, tokens.AccessToken)
	if err != nil {
		return false, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drainAndClose(resp)
		logger.Warn("netatmo API returned 401, refreshing token and retrying once")
		instrumentation.AddSpanEvent(span, "retry_after_unauthorized",
			attribute.Int(instrumentation.SpanAttrAttempt, 2))

		tokens, err = c.refresh(ctx, tokens.RefreshToken)
		if err != nil {
			return false, err
		}
		resp, err = c.send(ctx, endpoint, query, tokens.AccessToken)
		if err != nil {
			return false, err
		}
	}
	defer drainAndClose(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, httpStatusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, NewHTTPError(resp.StatusCode, "failed to decode netatmo response", err)
	}
	return true, nil
}

// send issues a single bearer-authenticated GET request.
func (c *Client) send(ctx context.Context, endpoint string, query url.Values, accessToken string) (*http.Response, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, NewHTTPError(0, fmt.Sprintf("invalid endpoint %q", endpoint), err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, NewHTTPError(0, "failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewHTTPError(0, fmt.Sprintf("request to %s failed", u.Host), err)
	}
	return resp, nil
}

// refresh obtains a new token pair with the refresh token and persists it.
// Failures are returned as they are; a rejected refresh token ends the call.
func (c *Client) refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	logger := logging.WithOperation(c.logger, "netatmo.refresh")
	logger.Info("refreshing netatmo tokens")

	ctx, span := instrumentation.StartNetatmoAPISpan(ctx, instrumentation.OperationRefresh)
	defer span.End()

	src := c.oauthConfig().TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		c.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		err = tokenEndpointError(err)
		instrumentation.SetSpanError(span, err)
		logger.Error("token refresh failed", logging.Err(err))
		return nil, err
	}

	tokens, err := c.tokensFromOAuth(tok)
	if err != nil {
		c.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	if err := c.store.Save(ctx, tokens); err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	c.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
	instrumentation.SetSpanSuccess(span)
	logger.Info("refreshed and stored netatmo tokens",
		"access_token", logging.SanitizeToken(tokens.AccessToken),
		"expires_at", tokens.ExpiresAt)
	return tokens, nil
}

func (c *Client) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.settings.ClientID,
		ClientSecret: c.settings.ClientSecret,
		RedirectURL:  c.settings.RedirectURI,
		Scopes:       []string{ScopeReadStation},
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.endpoints.AuthorizeURL,
			TokenURL:  c.endpoints.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// oauthContext makes the oauth2 package use the client's HTTP client.
func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// tokensFromOAuth converts a token endpoint response into a Tokens record.
// ExpiresAt is computed from expires_in against the wall clock at parse time.
// The refresh token is read from the raw response because oauth2 carries the
// previous refresh token over when a refresh response omits it.
func (c *Client) tokensFromOAuth(tok *oauth2.Token) (*Tokens, error) {
	refreshToken, _ := tok.Extra("refresh_token").(string)
	if tok.AccessToken == "" || refreshToken == "" {
		return nil, NewHTTPError(0, "token response is missing access_token or refresh_token", nil)
	}

	expiresIn, ok := expiresInSeconds(tok)
	if !ok {
		return nil, NewHTTPError(0, "token response is missing expires_in", nil)
	}

	return &Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    c.now().UTC().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}

// expiresInSeconds reads the raw expires_in field of a token response.
func expiresInSeconds(tok *oauth2.Token) (int64, bool) {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	if tok.ExpiresIn > 0 {
		return tok.ExpiresIn, true
	}
	return 0, false
}

// tokenEndpointError maps oauth2 errors onto KindHTTPFailure.
func tokenEndpointError(err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) && rErr.Response != nil {
		msg := fmt.Sprintf("token endpoint returned %d (%s)",
			rErr.Response.StatusCode, http.StatusText(rErr.Response.StatusCode))
		if rErr.ErrorCode != "" {
			msg += ": " + rErr.ErrorCode
		}
		return NewHTTPError(rErr.Response.StatusCode, msg, err)
	}
	return NewHTTPError(0, "token request failed", err)
}

// httpStatusError builds a KindHTTPFailure error from a non-2xx response.
func httpStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	msg := fmt.Sprintf("response status code does not indicate success: %d (%s)",
		resp.StatusCode, http.StatusText(resp.StatusCode))
	if detail := strings.TrimSpace(string(body)); detail != "" {
		msg += ": " + detail
	}
	return NewHTTPError(resp.StatusCode, msg, nil)
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
