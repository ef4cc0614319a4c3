// Package mirror copies saved digests to an optional PostgreSQL database:
// one briefs row per digest and one articles row per attached article.
package mirror

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/moestate/newsdesk/internal/config"
	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/errors"
)

// Mirror is a remote copy of the digest list.
type Mirror interface {
	Enabled() bool
	Save(ctx context.Context, d *digest.Digest) error
	Replace(ctx context.Context, d *digest.Digest) error
	Delete(ctx context.Context, id string) error
}

// Disabled is the mirror used when none is configured. Every call reports MIRROR_DISABLED.
type Disabled struct{}

func (Disabled) Enabled() bool { return false }

func (Disabled) Save(context.Context, *digest.Digest) error { return errors.NewMirrorDisabled() }

func (Disabled) Replace(context.Context, *digest.Digest) error { return errors.NewMirrorDisabled() }

func (Disabled) Delete(context.Context, string) error { return errors.NewMirrorDisabled() }

// Open returns the configured mirror and a function releasing its resources.
// An inactive config yields Disabled. An active one connects, pings and migrates.
func Open(ctx context.Context, cfg config.MirrorConfig, logger *zap.Logger) (Mirror, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Active() {
		if cfg.Enabled {
			logger.Warn("mirror enabled without a dsn; running without it")
		}
		return Disabled{}, func() {}, nil
	}

	if err := Migrate(ctx, cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("migrate mirror: %w", err)
	}

	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("mirror connected", zap.Int32("max_conns", cfg.MaxConns))
	return New(pool), pool.Close, nil
}
