package source

import (
	"context"
	"fmt"
	"io"

	"archdocs/internal/logging"
)

// New builds the ContentSource selected by cfg.Kind.
//
// Remote kinds resolve their token through the credential manager when
// cfg.Token is empty. A git source is returned unsynced; the index syncs it
// before the first scan.
func New(ctx context.Context, cfg Config, logger *logging.AppLogger) (ContentSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid source configuration: %w", err)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	if cfg.Kind.IsRemote() && cfg.Token == "" {
		token, err := NewCredentialManager().ResolveToken()
		if err != nil {
			// an unreadable keyring still allows public repositories
			logger.Warn("Could not read GitHub token, continuing anonymously", "error", err)
		}
		cfg.Token = token
	}

	switch cfg.Kind {
	case KindLocal:
		return NewLocalSource(cfg.BasePath, cfg.Patterns, cfg.maxFileSize(), logger)
	case KindGitHub:
		return NewGitHubSource(ctx, cfg, logger), nil
	case KindGit:
		return NewGitSource(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

// Close releases src if it holds resources.
func Close(src ContentSource) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
