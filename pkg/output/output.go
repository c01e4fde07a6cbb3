// Package output defines the per-module result records and the aggregate
// returned for each processed claim. Field sets mirror what the vendor
// engines report; amounts are dollars unless a name says otherwise, and
// pointer numerics distinguish "engine reported nothing" from zero.
package output

import (
	"github.com/google/uuid"

	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
)

// ReturnCode is the vendor disposition code attached to most outputs.
type ReturnCode struct {
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// ModuleError is the error slot recorded for a module that did not produce
// a result. Code is the errdefs taxonomy name.
type ModuleError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result aggregates one pipeline run over a single claim. Exactly one of
// the module pointer and the module's error slot is set per requested
// module; modules that were not requested leave both empty.
type Result struct {
	ClaimID      string `json:"claimid"`
	ProcessingID string `json:"processing_id"`

	Mce     *MceOutput     `json:"mce,omitempty"`
	Ioce    *IoceOutput    `json:"ioce,omitempty"`
	Msdrg   *MsdrgOutput   `json:"msdrg,omitempty"`
	Hhag    *HhagOutput    `json:"hhag,omitempty"`
	Cmg     *CmgOutput     `json:"cmg,omitempty"`
	Ipps    *IppsOutput    `json:"ipps,omitempty"`
	Opps    *OppsOutput    `json:"opps,omitempty"`
	Irf     *IrfOutput     `json:"irf,omitempty"`
	Hha     *HhaOutput     `json:"hha,omitempty"`
	Snf     *SnfOutput     `json:"snf,omitempty"`
	Ltch    *LtchOutput    `json:"ltch,omitempty"`
	Psych   *IpfOutput     `json:"psych,omitempty"`
	Esrd    *EsrdOutput    `json:"esrd,omitempty"`
	Hospice *HospiceOutput `json:"hospice,omitempty"`
	Fqhc    *FqhcOutput    `json:"fqhc,omitempty"`

	Errors map[claim.Module]*ModuleError `json:"errors,omitempty"`
}

// NewResult creates an empty aggregate with a fresh processing id.
func NewResult(claimID string) *Result {
	return &Result{
		ClaimID:      claimID,
		ProcessingID: uuid.NewString(),
		Errors:       make(map[claim.Module]*ModuleError),
	}
}

// SetError records err in the module's error slot.
func (r *Result) SetError(m claim.Module, err error) {
	if r.Errors == nil {
		r.Errors = make(map[claim.Module]*ModuleError)
	}
	r.Errors[m] = &ModuleError{Code: errdefs.Code(err), Message: err.Error()}
}

// Failed reports whether the module's error slot is set.
func (r *Result) Failed(m claim.Module) bool {
	_, ok := r.Errors[m]
	return ok
}

// Has reports whether the module produced a result.
func (r *Result) Has(m claim.Module) bool {
	switch m {
	case claim.MCE:
		return r.Mce != nil
	case claim.IOCE:
		return r.Ioce != nil
	case claim.MSDRG:
		return r.Msdrg != nil
	case claim.HHAG:
		return r.Hhag != nil
	case claim.CMG:
		return r.Cmg != nil
	case claim.IPPS:
		return r.Ipps != nil
	case claim.OPPS:
		return r.Opps != nil
	case claim.IRF:
		return r.Irf != nil
	case claim.HHA:
		return r.Hha != nil
	case claim.SNF:
		return r.Snf != nil
	case claim.LTCH:
		return r.Ltch != nil
	case claim.PSYCH:
		return r.Psych != nil
	case claim.ESRD:
		return r.Esrd != nil
	case claim.HOSPICE:
		return r.Hospice != nil
	case claim.FQHC:
		return r.Fqhc != nil
	}
	return false
}

// Succeeded reports whether at least one module produced a result.
func (r *Result) Succeeded() bool {
	for _, m := range claim.AllModules {
		if r.Has(m) {
			return true
		}
	}
	return false
}

/// IcdMapping is one converted code: the choice list the conversion tables
// offered and the target the policy selected.
type IcdMapping struct {
	Choices []string `json:"choices,omitempty"`
	Target  string   `json:"target,omitempty"`
}

// IcdConversion reports the code remapping applied before grouping.
type IcdConversion struct {
	BilledVersion string                `json:"billed_version,omitempty"`
	TargetVersion string                `json:"target_version,omitempty"`
	Mappings      map[string]IcdMapping `json:"mappings,omitempty"`
}
