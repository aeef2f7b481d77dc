// Package app wires configuration into the concrete storage backend,
// analysis gateway and ledger store shared by the binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerbook/internal/config"
	"github.com/dvloznov/ledgerbook/internal/gateway"
	"github.com/dvloznov/ledgerbook/internal/ledger"
	"github.com/dvloznov/ledgerbook/internal/metrics"
	"github.com/dvloznov/ledgerbook/internal/storage"
	"github.com/dvloznov/ledgerbook/internal/storage/gcs"
	"github.com/dvloznov/ledgerbook/internal/storage/sqlite"
)

// OpenKV opens the storage backend selected by cfg.Storage.
func OpenKV(ctx context.Context, cfg *config.Config) (storage.KV, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return storage.NewMemory(), nil
	case config.StorageGCS:
		var kv *gcs.Store
		var err error
		if cfg.GCSURI != "" {
			kv, err = gcs.NewFromURI(ctx, cfg.GCSURI)
		} else {
			kv, err = gcs.New(ctx, cfg.GCSBucket, cfg.GCSPrefix)
		}
		if err != nil {
			return nil, fmt.Errorf("OpenKV: %w", err)
		}
		return kv, nil
	case config.StorageSQLite:
		kv, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("OpenKV: %w", err)
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("OpenKV: unknown storage %q", cfg.Storage)
	}
}

// OpenLedger opens the configured backend and loads the ledger from it.
// The returned KV must be closed by the caller.
func OpenLedger(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) (*ledger.Store, storage.KV, error) {
	kv, err := OpenKV(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := ledger.Open(ctx, kv, log, ledger.WithMetrics(m))
	if err != nil {
		kv.Close()
		return nil, nil, fmt.Errorf("OpenLedger: %w", err)
	}

	return store, kv, nil
}

// NewGateway builds the analysis gateway. Without an API key the gateway
// is created in its unavailable mode instead of failing.
func NewGateway(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*gateway.Gateway, error) {
	var gen gateway.Generator

	g, err := gateway.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	switch {
	case errors.Is(err, gateway.ErrUnavailable):
		log.Warn().Msg("No Gemini API key configured - analysis will be unavailable")
	case err != nil:
		return nil, fmt.Errorf("NewGateway: %w", err)
	default:
		gen = g
	}

	return gateway.New(gen, log), nil
}
