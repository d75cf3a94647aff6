package host

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rlch/soql"
	"github.com/rlch/soql/metadata"
	"github.com/rlch/soql/sfcli"
	"github.com/rlch/soql/store"
)

// NewBackend returns the offline describe directory when cfg.Schemas is set
// and the sf CLI otherwise.
func NewBackend(cfg *soql.Config, logger *zap.Logger) Backend {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Schemas != "" {
		logger.Debug("Using offline schemas", zap.String("dir", cfg.Schemas))

		return metadata.NewDir(cfg.Schemas)
	}

	return sfcli.New(sfcli.Options{
		CLI:        cfg.CLI,
		TargetOrg:  cfg.TargetOrg,
		APIVersion: cfg.APIVersion,
	}, logger.Named("sfcli"))
}

// OptionsFromConfig maps the config onto host options.
func OptionsFromConfig(cfg *soql.Config) Options {
	return Options{
		TTL:       cfg.CacheTTL(),
		Workspace: cfg.Workspace,
		Pages:     cfg.Pages,
	}
}

// OpenStore opens the database in the configured cache directory.
func OpenStore(ctx context.Context, cfg *soql.Config) (*store.Store, error) {
	return store.Open(ctx, filepath.Join(cfg.CacheDir, store.FileName))
}
