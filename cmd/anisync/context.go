package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"anisync/internal/config"
	"anisync/internal/gate"
	"anisync/internal/logging"
	"anisync/internal/services/anilist"
	"anisync/internal/services/crunchyroll"
	"anisync/internal/store"
	"anisync/internal/syncer"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// withStore opens the state database for the duration of fn, holding an
// exclusive lock on the state directory so concurrent runs cannot interleave
// writes.
func (c *commandContext) withStore(fn func(cfg *config.Config, st *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	lock := flock.New(filepath.Join(cfg.Paths.StateDir, "anisync.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire state lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another anisync run holds the state lock at %s", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer st.Close()

	return fn(cfg, st)
}

// newRunner wires the collaborators for a sync or apply run.
func (c *commandContext) newRunner(cfg *config.Config, st *store.Store, logger *slog.Logger, opts syncer.Options) *syncer.Runner {
	source := crunchyroll.NewClient(cfg.Crunchyroll, st)
	catalog := anilist.NewClient(cfg.AniList)

	opts.Threshold = cfg.Matching.Threshold
	opts.NegativeCache = cfg.Matching.NegativeCache
	if opts.EarlyStopThreshold == 0 {
		opts.EarlyStopThreshold = cfg.Sync.EarlyStopThreshold
	}

	return syncer.New(source, catalog, catalog, st, gate.New(st), logger, opts)
}
