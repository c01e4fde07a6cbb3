// Package msdrg drives the CMS MS-DRG grouper. The grouper ships as a set
// of versioned Java components; the dispatcher probes and loads every
// version from a configured floor up to the current fiscal release, and
// keeps two live instances per version so claims with and without POA
// reporting exemption never reconfigure against each other.
package msdrg

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/fiscal"
	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/pkg/errdefs"
)

// EnvMinVersion overrides the oldest grouper version probed at startup.
const EnvMinVersion = "DRG_MIN_VERSION"

const (
	engineName        = "msdrg"
	defaultMinVersion = "400"
	componentClass    = "gov.agency.msdrg.v%s.MsdrgComponent"

	busyRetries    = 10
	busyRetryPause = 10 * time.Millisecond
)

// AffectDrg selects whether the grouper computes per-code DRG impact.
type AffectDrg string

// TieBreaker selects the severity marking tie-break logic.
type TieBreaker string

const (
	AffectDrgCompute AffectDrg = "COMPUTE"
	AffectDrgSkip    AffectDrg = "DO_NOT_COMPUTE"

	TieBreakerClinicalSignificance TieBreaker = "CLINICAL_SIGNIFICANCE"
	TieBreakerCodeOrder            TieBreaker = "CODE_ORDER"
)

// Options are the per-claim grouper runtime options. The zero value selects
// the defaults: POA reporting enforced, DRG impact computed, ties broken by
// clinical significance.
type Options struct {
	Version    string
	PoaExempt  bool
	AffectDrg  AffectDrg
	TieBreaker TieBreaker
}

func (o Options) withDefaults() Options {
	if o.AffectDrg == "" {
		o.AffectDrg = AffectDrgCompute
	}
	if o.TieBreaker == "" {
		o.TieBreaker = TieBreakerClinicalSignificance
	}
	return o
}

type grouperCfg struct {
	affectDrg  AffectDrg
	tieBreaker TieBreaker
}

func defaultCfg() grouperCfg {
	return grouperCfg{affectDrg: AffectDrgCompute, tieBreaker: TieBreakerClinicalSignificance}
}

// grouper is one live component instance inside the bridge subprocess.
// cfg tracks the options last applied to it.
type grouper struct {
	handle string
	exempt bool
	cfg    grouperCfg
}

type variants struct {
	exempt    *grouper
	nonExempt *grouper
}

// Dispatcher owns the loaded grouper versions and serializes option changes
// against the shared instances.
type Dispatcher struct {
	runner engine.Runner
	log    zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	versions map[string]*variants
	loaded   []string
}

// NewDispatcher probes grouper versions from the configured floor up to the
// current fiscal release and loads every one the engine bundle carries.
func NewDispatcher(ctx context.Context, runner engine.Runner, log zerolog.Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		runner:   runner,
		log:      log,
		now:      time.Now,
		versions: make(map[string]*variants),
	}
	if err := d.load(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dispatcher) load(ctx context.Context) error {
	version := os.Getenv(EnvMinVersion)
	if version == "" {
		version = defaultMinVersion
	}
	if _, err := strconv.Atoi(version); err != nil {
		return fmt.Errorf("msdrg: malformed minimum version %q", version)
	}
	start, end := version, fiscal.EndVersion(d.now())
	for {
		vs, err := d.newVariants(ctx, version)
		if err != nil {
			// April cuts do not exist for every fiscal year.
			if versionNum(version) > versionNum(end) {
				break
			}
			d.log.Debug().Str("version", version).Err(err).Msg("grouper version not in bundle")
			version = fiscal.NextVersion(version)
			continue
		}
		d.versions[version] = vs
		d.loaded = append(d.loaded, version)
		version = fiscal.NextVersion(version)
	}
	if len(d.loaded) == 0 {
		return fmt.Errorf("msdrg: no grouper versions available between %s and %s", start, end)
	}
	d.log.Info().Strs("versions", d.loaded).Msg("msdrg groupers loaded")
	return nil
}

func (d *Dispatcher) newVariants(ctx context.Context, version string) (*variants, error) {
	exempt, err := d.newGrouper(ctx, version, true)
	if err != nil {
		return nil, err
	}
	nonExempt, err := d.newGrouper(ctx, version, false)
	if err != nil {
		return nil, err
	}
	return &variants{exempt: exempt, nonExempt: nonExempt}, nil
}

func (d *Dispatcher) newGrouper(ctx context.Context, version string, exempt bool) (*grouper, error) {
	cfg := defaultCfg()
	res, err := d.runner.Invoke(ctx, engine.Request{
		Op:      engine.OpNewInstance,
		Payload: map[string]interface{}{
			"class":   fmt.Sprintf(componentClass, version),
			"options": optionsPayload(cfg, exempt),
		},
	})
	if err != nil {
		return nil, err
	}
	handle := engine.Str(res, "instance")
	if handle == "" {
		return nil, fmt.Errorf("msdrg: bridge returned no instance handle for version %s", version)
	}
	return &grouper{handle: handle, exempt: exempt, cfg: cfg}, nil
}

func optionsPayload(cfg grouperCfg, exempt bool) map[string]interface{} {
	status := "NON_EXEMPT"
	if exempt {
		status = "EXEMPT"
	}
	return map[string]interface{}{
		"compute_affect_drg":        string(cfg.affectDrg),
		"marking_logic_tie_breaker": string(cfg.tieBreaker),
		"poa_reporting_exempt":      status,
	}
}

// Process runs one grouping call against the instance matching opts. Option
// changes are applied to the shared instance under the dispatcher lock, so
// a caller never observes another claim's options. When the lock cannot be
// taken within the retry budget the call reports the engine busy.
func (d *Dispatcher) Process(ctx context.Context, version string, opts Options, input map[string]interface{}) (map[string]interface{}, error) {
	opts = opts.withDefaults()
	if !d.lockWithRetry() {
		return nil, &errdefs.EngineBusyError{Engine: engineName}
	}
	defer d.mu.Unlock()

	vs, ok := d.versions[version]
	if !ok {
		return nil, &errdefs.VersionUnavailableError{Engine: engineName, Version: version}
	}
	g := vs.nonExempt
	if opts.PoaExempt {
		g = vs.exempt
	}
	want := grouperCfg{affectDrg: opts.AffectDrg, tieBreaker: opts.TieBreaker}
	if g.cfg != want {
		if _, err := d.runner.Invoke(ctx, engine.Request{
			Op:       engine.OpConfigure,
			Instance: g.handle,
			Payload:  map[string]interface{}{"options": optionsPayload(want, g.exempt)},
		}); err != nil {
			return nil, err
		}
		g.cfg = want
	}
	return d.runner.Invoke(ctx, engine.Request{
		Op:       engine.OpInvoke,
		Instance: g.handle,
		Method:   "process",
		Payload:  input,
	})
}

func (d *Dispatcher) lockWithRetry() bool {
	for i := 0; i < busyRetries; i++ {
		if d.mu.TryLock() {
			return true
		}
		time.Sleep(busyRetryPause)
	}
	return false
}

// Versions lists the loaded grouper versions oldest first.
func (d *Dispatcher) Versions() []string {
	out := make([]string, len(d.loaded))
	copy(out, d.loaded)
	return out
}

func versionNum(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}
