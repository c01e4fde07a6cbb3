// Package pricers drives the CMS FISS payment engines. Every pricer is one
// dispatch instance on its own engine host, configured at startup with the
// fiscal years it may price; the dispatch picks rates and policy for the
// claim's year from that set. Requests carry the claim fields the pricer's
// API reads plus the provider's reference file row, and replies come back
// in the payment report's own wire shape.
package pricers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/internal/refdata"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
)

// pricer is the bridge wiring every payment module shares.
type pricer struct {
	name     string
	runner   engine.Runner
	instance string
	years    []int
	log      zerolog.Logger
}

// newPricer starts a dispatch on its engine host. The supported years ride
// along so the dispatch loads only the rate tables it will serve.
func newPricer(ctx context.Context, runner engine.Runner, name, class string, years []int, log zerolog.Logger) (pricer, error) {
	res, err := runner.Invoke(ctx, engine.Request{
		Op: engine.OpNewInstance,
		Payload: map[string]interface{}{
			"class":           class,
			"supported_years": years,
		},
	})
	if err != nil {
		return pricer{}, err
	}
	handle := engine.Str(res, "instance")
	if handle == "" {
		return pricer{}, fmt.Errorf("%s: bridge returned no instance handle", name)
	}
	log.Info().Str("engine", name).Ints("years", years).Msg("pricer ready")
	return pricer{name: name, runner: runner, instance: handle, years: years, log: log}, nil
}

// checkYear rejects a claim ending in a fiscal year the dispatch was not
// configured for. Claims without a thru date pass; the pricer that needs
// one validates it separately.
func (p *pricer) checkYear(cl *claim.Claim) error {
	if cl.ThruDate == nil {
		return nil
	}
	year := cl.ThruDate.Year()
	for _, y := range p.years {
		if y == year {
			return nil
		}
	}
	return &errdefs.VersionUnavailableError{Engine: p.name, Version: strconv.Itoa(year)}
}

// price sends one pricing request through the dispatch.
func (p *pricer) price(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	return p.runner.Invoke(ctx, engine.Request{
		Op:       engine.OpInvoke,
		Instance: p.instance,
		Method:   "process",
		Payload:  payload,
	})
}

// pricingProvider picks the provider a claim prices under: billing first,
// servicing as fallback.
func pricingProvider(cl *claim.Claim) (*claim.Provider, error) {
	if cl.BillingProvider != nil {
		return cl.BillingProvider, nil
	}
	if cl.ServicingProvider != nil {
		return cl.ServicingProvider, nil
	}
	return nil, errdefs.Validation("a billing or servicing provider is required for pricing")
}

// ipsfRow resolves the claim's inpatient provider record as of the claim
// thru date and folds in any ipsf overrides from additional data.
func ipsfRow(ctx context.Context, repo refdata.IpsfRepo, cl *claim.Claim) (map[string]interface{}, error) {
	prov, err := pricingProvider(cl)
	if err != nil {
		return nil, err
	}
	key := refdata.ProviderKey{CCN: prov.OtherID, NPI: prov.NPI}
	row, err := repo.FindProvider(ctx, key, cl.ThruDate.Int())
	if err != nil {
		return nil, err
	}
	m := row.Map()
	applyOverrides(m, cl.ModuleData("ipsf"))
	return m, nil
}

// opsfRow is ipsfRow against the outpatient provider file.
func opsfRow(ctx context.Context, repo refdata.OpsfRepo, cl *claim.Claim) (map[string]interface{}, error) {
	prov, err := pricingProvider(cl)
	if err != nil {
		return nil, err
	}
	key := refdata.ProviderKey{CCN: prov.OtherID, NPI: prov.NPI}
	row, err := repo.FindProvider(ctx, key, cl.ThruDate.Int())
	if err != nil {
		return nil, err
	}
	m := row.Map()
	applyOverrides(m, cl.ModuleData("opsf"))
	return m, nil
}

// applyOverrides lays claim-supplied values over the resolved provider row.
// Only keys the row already carries are honored.
func applyOverrides(row, overrides map[string]interface{}) {
	for k, v := range overrides {
		if _, ok := row[k]; ok {
			row[k] = v
		}
	}
}

// claimDxs collects the pricer diagnosis list: principal, admitting, then
// the non-blank secondaries, all with periods stripped.
func claimDxs(cl *claim.Claim) []string {
	var dxs []string
	if cl.PrincipalDx != nil && cl.PrincipalDx.Code != "" {
		dxs = append(dxs, engine.StripPeriods(cl.PrincipalDx.Code))
	}
	if cl.AdmitDx != nil && cl.AdmitDx.Code != "" {
		dxs = append(dxs, engine.StripPeriods(cl.AdmitDx.Code))
	}
	for _, dx := range cl.SecondaryDxs {
		if dx.Code != "" {
			dxs = append(dxs, engine.StripPeriods(dx.Code))
		}
	}
	return dxs
}

// claimPxs collects the non-blank inpatient procedure codes.
func claimPxs(cl *claim.Claim) []string {
	var pxs []string
	for _, px := range cl.InpatientPxs {
		if px.Code != "" {
			pxs = append(pxs, engine.StripPeriods(px.Code))
		}
	}
	return pxs
}

// strOr reads a string option, falling back when the claim never set it.
func strOr(m map[string]interface{}, key, fallback string) string {
	if m == nil {
		return fallback
	}
	if _, ok := m[key]; !ok {
		return fallback
	}
	return engine.Str(m, key)
}

func intVal(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func floatVal(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
