package source

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service name for OS credential store
	credentialService = "archdocs"
	// Key for GitHub Personal Access Token
	githubTokenKey = "github_pat"

	// TokenEnvVar overrides the stored token when set.
	TokenEnvVar = "GITHUB_TOKEN"
)

// ErrNoToken means neither the environment nor the credential store holds a token.
var ErrNoToken = errors.New("no GitHub token configured")

// CredentialManager handles secure storage and retrieval of the GitHub token
// used by the github and git sources.
type CredentialManager struct {
	service string
	getenv  func(string) string
}

// NewCredentialManager creates a new credential manager instance
func NewCredentialManager() *CredentialManager {
	return &CredentialManager{
		service: credentialService,
		getenv:  os.Getenv,
	}
}

// StoreGitHubToken validates token and stores it in the OS credential store.
func (cm *CredentialManager) StoreGitHubToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	if err := validateTokenFormat(token); err != nil {
		return fmt.Errorf("invalid token format: %w", err)
	}

	if err := keyring.Set(cm.service, githubTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token in credential store: %w", err)
	}
	return nil
}

// GetGitHubToken returns the stored token. Use ResolveToken to include the
// environment override.
func (cm *CredentialManager) GetGitHubToken() (string, error) {
	token, err := keyring.Get(cm.service, githubTokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w - run 'archdocs auth set-token' or set %s", ErrNoToken, TokenEnvVar)
		}
		return "", fmt.Errorf("failed to retrieve token from credential store: %w", err)
	}

	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w - stored token is empty", ErrNoToken)
	}
	return token, nil
}

// ResolveToken prefers $GITHUB_TOKEN and falls back to the credential store.
// It returns "" with no error when no token is configured anywhere, which
// means anonymous access.
func (cm *CredentialManager) ResolveToken() (string, error) {
	if env := strings.TrimSpace(cm.getenv(TokenEnvVar)); env != "" {
		return env, nil
	}

	token, err := cm.GetGitHubToken()
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

// DeleteGitHubToken removes the stored token. Deleting a missing token is not an error.
func (cm *CredentialManager) DeleteGitHubToken() error {
	err := keyring.Delete(cm.service, githubTokenKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from credential store: %w", err)
	}
	return nil
}

// HasGitHubToken checks if a token is stored without returning it.
func (cm *CredentialManager) HasGitHubToken() bool {
	_, err := keyring.Get(cm.service, githubTokenKey)
	return err == nil
}

// TokenSource reports where ResolveToken would read the token from:
// "env", "keyring" or "none".
func (cm *CredentialManager) TokenSource() string {
	if strings.TrimSpace(cm.getenv(TokenEnvVar)) != "" {
		return "env"
	}
	if cm.HasGitHubToken() {
		return "keyring"
	}
	return "none"
}

// validateTokenFormat validates that the token matches GitHub PAT format expectations.
// GitHub tokens have specific prefixes depending on their type:
//   - Classic PATs: ghp_*
//   - Fine-grained PATs: github_pat_*
//   - OAuth tokens: gho_*
//   - User-to-server tokens: ghu_*
//   - Server-to-server tokens: ghs_*
func validateTokenFormat(token string) error {
	token = strings.TrimSpace(token)

	if len(token) < 20 {
		return fmt.Errorf("token too short (minimum 20 characters)")
	}

	validPrefixes := []string{
		"ghp_",
		"github_pat_",
		"gho_",
		"ghu_",
		"ghs_",
	}

	for _, prefix := range validPrefixes {
		if strings.HasPrefix(token, prefix) {
			return nil
		}
	}

	return fmt.Errorf("token does not match expected GitHub PAT format (should start with ghp_ or github_pat_)")
}
