package gopps

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/librepps/gopps/internal/fiscal"
	"github.com/librepps/gopps/internal/hhag"
	"github.com/librepps/gopps/internal/ioce"
	"github.com/librepps/gopps/internal/irfg"
	"github.com/librepps/gopps/internal/mce"
	"github.com/librepps/gopps/internal/msdrg"
	"github.com/librepps/gopps/internal/orchestrator"
	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/internal/pricers"
	"github.com/librepps/gopps/pkg/claim"
)

// bundle names one engine's classpath. core is the engine's own jar glob;
// when nothing matches, the engine is disabled. support globs pick up the
// libraries riding the same classpath. Each bundle runs in its own bridge
// subprocess, so the two protobuf generations across the CMS builds never
// meet.
type bundle struct {
	name    string
	core    string
	support []string
}

var engineBundles = []bundle{
	{"msdrg", "msdrg-*.jar", []string{"Utility-*.jar", "protobuf-java-3.22.*.jar", "slf4j-*.jar"}},
	{"mce", "MCE-*.jar", []string{"mce-proto-*.jar", "Utility-*.jar", "protobuf-java-3.22.*.jar", "slf4j-*.jar"}},
	{"ioce", "ioce-standalone-*.jar", []string{"slf4j-*.jar"}},
	{"hhag", "HomeHealth.jar", []string{"slf4j-*.jar"}},
	{"cmg", "CMG_*.jar", []string{"irf-proto-*.jar", "gfc-base-*.jar", "protobuf-java-3.21.*.jar", "slf4j-*.jar"}},
}

// pricerModules maps the pricer build names to their pipeline modules.
// ipf is the agency's name for the inpatient psychiatric pricer.
var pricerModules = []struct {
	typ    string
	module claim.Module
}{
	{"esrd", claim.ESRD},
	{"fqhc", claim.FQHC},
	{"hha", claim.HHA},
	{"hospice", claim.HOSPICE},
	{"ipf", claim.PSYCH},
	{"ipps", claim.IPPS},
	{"irf", claim.IRF},
	{"ltch", claim.LTCH},
	{"opps", claim.OPPS},
	{"snf", claim.SNF},
}

func (p *Processor) startEngines(ctx context.Context) {
	for _, b := range engineBundles {
		core := globJars(p.cfg.JarDir, b.core)
		if len(core) == 0 {
			p.log.Warn().Str("engine", b.name).Msg("engine jars not found, module disabled")
			continue
		}
		jars := append(core, globJars(p.cfg.JarDir, b.support...)...)
		host, err := p.startHost(ctx, b.name, jars)
		if err != nil {
			p.log.Warn().Err(err).Str("engine", b.name).Msg("engine start failed, module disabled")
			continue
		}
		mod, err := p.newEngineClient(ctx, b.name, host)
		if err != nil {
			p.log.Warn().Err(err).Str("engine", b.name).Msg("engine setup failed, module disabled")
			host.Close()
			continue
		}
		p.adopt(host, mod)
	}
	p.startPricers(ctx)
}

func (p *Processor) startPricers(ctx context.Context) {
	dir := p.cfg.PricerJarDir()
	for _, spec := range pricerModules {
		jars := globJars(dir, spec.typ+"-pricer-application-*.jar")
		if len(jars) == 0 {
			p.log.Warn().Str("pricer", spec.typ).Msg("pricer jar not found, module disabled")
			continue
		}
		years, err := fiscal.SupportedYears(strings.ToUpper(spec.typ), time.Now())
		if err != nil {
			p.log.Warn().Err(err).Str("pricer", spec.typ).Msg("bad supported years, module disabled")
			continue
		}
		host, err := p.startHost(ctx, spec.typ+"-pricer", jars)
		if err != nil {
			p.log.Warn().Err(err).Str("pricer", spec.typ).Msg("pricer start failed, module disabled")
			continue
		}
		mod, err := p.newPricer(ctx, spec.module, host, years)
		if err != nil {
			p.log.Warn().Err(err).Str("pricer", spec.typ).Msg("pricer setup failed, module disabled")
			host.Close()
			continue
		}
		p.adopt(host, mod)
	}
}

func (p *Processor) startHost(ctx context.Context, name string, jars []string) (*engine.Host, error) {
	host := engine.NewHost(engine.HostConfig{
		Name:         name,
		JavaBin:      p.cfg.JavaBin,
		BridgeJar:    p.cfg.BridgeJar,
		EngineJars:   jars,
		StartTimeout: time.Duration(p.cfg.EngineStartTimeout) * time.Second,
		CallTimeout:  time.Duration(p.cfg.EngineCallTimeout) * time.Second,
	}, p.log)
	if err := host.Start(ctx); err != nil {
		return nil, err
	}
	return host, nil
}

func (p *Processor) newEngineClient(ctx context.Context, name string, host *engine.Host) (orchestrator.Module, error) {
	switch name {
	case "msdrg":
		disp, err := msdrg.NewDispatcher(ctx, host, p.log)
		if err != nil {
			return nil, err
		}
		p.grouper = disp
		return msdrg.NewClient(disp, p.icd, p.log), nil
	case "mce":
		return mce.NewClient(ctx, host, p.log)
	case "ioce":
		return ioce.NewClient(ctx, host, p.log)
	case "hhag":
		return hhag.NewClient(ctx, host, p.log)
	case "cmg":
		return irfg.NewClient(ctx, host, p.log)
	}
	return nil, fmt.Errorf("no client for engine %s", name)
}

func (p *Processor) newPricer(ctx context.Context, m claim.Module, runner engine.Runner, years []int) (orchestrator.Module, error) {
	switch m {
	case claim.ESRD:
		return pricers.NewEsrd(ctx, runner, p.store.Opsf, years, p.log)
	case claim.FQHC:
		return pricers.NewFqhc(ctx, runner, p.store.Zip9, years, p.log)
	case claim.HHA:
		return pricers.NewHha(ctx, runner, p.store.Ipsf, years, p.log)
	case claim.HOSPICE:
		return pricers.NewHospice(ctx, runner, years, p.log)
	case claim.PSYCH:
		return pricers.NewPsych(ctx, runner, p.store.Ipsf, years, p.log)
	case claim.IPPS:
		return pricers.NewIpps(ctx, runner, p.store.Ipsf, years, p.log)
	case claim.IRF:
		return pricers.NewIrf(ctx, runner, p.store.Ipsf, years, p.log)
	case claim.LTCH:
		return pricers.NewLtch(ctx, runner, p.store.Ipsf, years, p.log)
	case claim.OPPS:
		return pricers.NewOpps(ctx, runner, p.store.Opsf, years, p.log)
	case claim.SNF:
		return pricers.NewSnf(ctx, runner, p.store.Ipsf, years, p.log)
	}
	return nil, fmt.Errorf("no pricer client for module %s", m)
}

// adopt takes ownership of a started host and registers its module.
func (p *Processor) adopt(host *engine.Host, mod orchestrator.Module) {
	if err := p.registry.Register(mod); err != nil {
		p.log.Warn().Err(err).Str("engine", host.Name()).Msg("module registration failed")
		host.Close()
		return
	}
	p.hosts = append(p.hosts, host)
	info := EngineInfo{Engine: host.Name(), Modules: []claim.Module{mod.Name()}}
	if mod.Name() == claim.MSDRG && p.grouper != nil {
		info.Versions = p.grouper.Versions()
	}
	p.engines = append(p.engines, info)
}

func globJars(dir string, patterns ...string) []string {
	var jars []string
	for _, pat := range patterns {
		matches, _ := filepath.Glob(filepath.Join(dir, pat))
		jars = append(jars, matches...)
	}
	return jars
}
