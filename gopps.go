// Package gopps processes United States Medicare fee-for-service claims
// through the CMS editor, grouper and pricer engines. A Processor owns the
// engine subprocesses, the reference-data store and the module pipeline:
// claims go in as pkg/claim values and come back as aggregate pkg/output
// results.
//
// The engines themselves are the CMS Java builds. Payment arithmetic and
// code-set semantics stay inside them; this library translates claims to
// the engine interfaces and routes outputs between modules.
package gopps

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/config"
	"github.com/librepps/gopps/internal/icd"
	"github.com/librepps/gopps/internal/msdrg"
	"github.com/librepps/gopps/internal/orchestrator"
	"github.com/librepps/gopps/internal/platform/db"
	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/internal/platform/plugin"
	"github.com/librepps/gopps/internal/refdata"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/output"
)

// Version is the library release version.
const Version = "0.1.0"

// Processor is the library entry point. It is safe for concurrent Process
// calls once constructed; construction and Close are not.
type Processor struct {
	cfg *config.Config
	log zerolog.Logger

	db    *db.DB
	store *refdata.Store
	icd   *icd.Converter

	hosts   []*engine.Host
	engines []EngineInfo
	grouper *msdrg.Dispatcher

	registry *orchestrator.Registry
	orch     *orchestrator.Orchestrator
}

// EngineInfo reports one live engine isolate: the subprocess name, the
// pipeline modules it serves and, for the DRG grouper, the loaded
// versions.
type EngineInfo struct {
	Engine   string         `json:"engine"`
	Modules  []claim.Module `json:"modules"`
	Versions []string       `json:"versions,omitempty"`
}

// New opens the reference store, launches every engine whose jars are on
// disk and assembles the module pipeline. An engine with no jars, or one
// that fails to start, is logged and skipped; claims naming its modules
// then fail with a validation error rather than blocking the rest of the
// pipeline.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Processor, error) {
	for _, dir := range []string{cfg.DataDir, cfg.JarDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	dsn := cfg.DatabasePath
	if cfg.DatabaseBackend == db.BackendPostgres {
		dsn = cfg.DatabaseURL
	}
	handle, err := db.Open(ctx, cfg.DatabaseBackend, dsn, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, err
	}

	p := &Processor{
		cfg:      cfg,
		log:      log,
		db:       handle,
		store:    refdata.NewStore(handle, log),
		icd:      icd.NewConverter(handle, log),
		registry: orchestrator.NewRegistry(),
	}
	if _, err := p.store.Migrate(ctx); err != nil {
		handle.Close()
		return nil, fmt.Errorf("migrate reference store: %w", err)
	}
	if _, err := p.icd.Migrate(ctx); err != nil {
		handle.Close()
		return nil, fmt.Errorf("migrate conversion tables: %w", err)
	}

	p.startEngines(ctx)
	p.orch = orchestrator.New(p.registry, log)
	return p, nil
}

// Process runs one claim through the modules it names.
func (p *Processor) Process(ctx context.Context, cl *claim.Claim) (*output.Result, error) {
	return p.orch.Process(ctx, cl)
}

// ProcessBatch fans independent claims out over a bounded worker pool and
// returns one entry per claim, index-aligned with the input.
func (p *Processor) ProcessBatch(ctx context.Context, claims []*claim.Claim, workers int) []orchestrator.BatchResult {
	return p.orch.ProcessBatch(ctx, claims, workers)
}

// Extend applies a plugin registry to the module pipeline.
func (p *Processor) Extend(plugins *plugin.Registry) error {
	return plugins.Apply(p.registry)
}

// Store exposes the reference-data store for loaders and status reports.
func (p *Processor) Store() *refdata.Store { return p.store }

// Converter exposes the ICD conversion tables.
func (p *Processor) Converter() *icd.Converter { return p.icd }

// Engines lists the live engine isolates.
func (p *Processor) Engines() []EngineInfo {
	out := make([]EngineInfo, len(p.engines))
	copy(out, p.engines)
	return out
}

// Modules lists the registered pipeline modules in name order.
func (p *Processor) Modules() []claim.Module { return p.registry.Names() }

// Close shuts down the engine subprocesses and the database handle.
func (p *Processor) Close() error {
	for _, h := range p.hosts {
		h.Close()
	}
	return p.db.Close()
}
