package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default values for Netatmo settings.
const (
	DefaultRedirectURI    = "http://localhost:5000/netatmo/callback"
	DefaultTokenFilePath  = "netatmo-tokens.json"
	DefaultPublicBaseURL  = "http://localhost:5000"
	TokenStoreTypeFile    = "file"
	TokenStoreTypeSQLite  = "sqlite"
	DefaultTokenStoreType = TokenStoreTypeFile
)

// Environment variable names.
const (
	EnvClientID       = "NETATMO_CLIENT_ID"
	EnvClientSecret   = "NETATMO_CLIENT_SECRET"
	EnvRedirectURI    = "NETATMO_REDIRECT_URI"
	EnvTokenFilePath  = "NETATMO_TOKEN_FILE"
	EnvTokenStoreType = "NETATMO_TOKEN_STORE"
	EnvPublicBaseURL  = "MCP_BASE_URL"
)

// Settings holds the Netatmo OAuth application settings and token persistence options.
type Settings struct {
	// ClientID is the OAuth client ID of the Netatmo app
	ClientID string

	// ClientSecret is the OAuth client secret of the Netatmo app
	ClientSecret string

	// RedirectURI must match the redirect URI registered for the Netatmo app
	RedirectURI string

	// TokenFilePath is where tokens are persisted. For the sqlite store this
	// is the database file.
	TokenFilePath string

	// TokenStoreType selects the persistence backend: "file" or "sqlite"
	TokenStoreType string

	// PublicBaseURL is where users can reach this server. It is used to build
	// the authentication guidance returned to tools.
	PublicBaseURL string

	// RequestTimeout bounds outbound Netatmo calls. Zero means no timeout
	// beyond the caller's context.
	RequestTimeout time.Duration
}

// DefaultSettings returns Settings populated with built-in defaults only.
func DefaultSettings() Settings {
	return Settings{
		RedirectURI:    DefaultRedirectURI,
		TokenFilePath:  DefaultTokenFilePath,
		TokenStoreType: DefaultTokenStoreType,
		PublicBaseURL:  DefaultPublicBaseURL,
	}
}

// ApplyEnv fills every empty field from its environment variable.
// Values already set (e.g. from flags) are left untouched.
func (s *Settings) ApplyEnv() {
	s.ClientID = firstNonEmpty(s.ClientID, os.Getenv(EnvClientID))
	s.ClientSecret = firstNonEmpty(s.ClientSecret, os.Getenv(EnvClientSecret))
	s.RedirectURI = firstNonEmpty(s.RedirectURI, os.Getenv(EnvRedirectURI), DefaultRedirectURI)
	s.TokenFilePath = firstNonEmpty(s.TokenFilePath, os.Getenv(EnvTokenFilePath), DefaultTokenFilePath)
	s.TokenStoreType = firstNonEmpty(s.TokenStoreType, os.Getenv(EnvTokenStoreType), DefaultTokenStoreType)
	s.PublicBaseURL = firstNonEmpty(s.PublicBaseURL, os.Getenv(EnvPublicBaseURL), DefaultPublicBaseURL)
}

// Validate checks that the settings can drive the OAuth flow.
func (s Settings) Validate() error {
	var errs []error

	if s.ClientID == "" {
		errs = append(errs, fmt.Errorf("netatmo client ID is required (set --netatmo-client-id or %s)", EnvClientID))
	}
	if s.ClientSecret == "" {
		errs = append(errs, fmt.Errorf("netatmo client secret is required (set --netatmo-client-secret or %s)", EnvClientSecret))
	}
	if _, err := url.ParseRequestURI(s.RedirectURI); err != nil {
		errs = append(errs, fmt.Errorf("invalid redirect URI %q: %w", s.RedirectURI, err))
	}
	if s.TokenFilePath == "" {
		errs = append(errs, errors.New("token file path must not be empty"))
	}
	switch s.TokenStoreType {
	case TokenStoreTypeFile, TokenStoreTypeSQLite:
	default:
		errs = append(errs, fmt.Errorf("invalid token store type %q, must be one of: file, sqlite", s.TokenStoreType))
	}
	if s.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request timeout must not be negative, got %s", s.RequestTimeout))
	}

	return errors.Join(errs...)
}

// AuthPageURL returns the URL users visit to connect their Netatmo account.
func (s Settings) AuthPageURL() string {
	base := strings.TrimRight(firstNonEmpty(s.PublicBaseURL, DefaultPublicBaseURL), "/")
	return base + "/netatmo/auth"
}

// LoadEnvFile loads variables from a .env file into the process environment.
// Variables that are already set are not overridden. A missing file is not an
// error when optional is true.
func LoadEnvFile(path string, optional bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
