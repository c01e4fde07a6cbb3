package claim

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/librepps/gopps/pkg/errdefs"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the structural and cross-field rules shared by all
// modules. Module clients layer their own requirements (provider presence,
// assessment presence, line shapes) on top of this.
func (c *Claim) Validate() error {
	if err := validate.Struct(c); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok || len(errs) == 0 {
			return errdefs.Validation("invalid claim: %v", err)
		}
		fe := errs[0]
		return errdefs.Validation("invalid claim: field %s fails rule %q", fieldPath(fe), fe.Tag())
	}
	if c.FromDate != nil && c.ThruDate != nil && c.ThruDate.Before(*c.FromDate) {
		return errdefs.Validation("thru_date %s precedes from_date %s", c.ThruDate, c.FromDate)
	}
	if c.AdmitDate != nil && c.ThruDate != nil && c.ThruDate.Before(*c.AdmitDate) {
		return errdefs.Validation("thru_date %s precedes admit_date %s", c.ThruDate, c.AdmitDate)
	}
	if c.BillType != "" && len(c.BillType) > 4 {
		return errdefs.Validation("bill_type %q is too long", c.BillType)
	}
	for i, line := range c.Lines {
		if line.ServiceDate == nil || c.FromDate == nil || c.ThruDate == nil {
			continue
		}
		if line.ServiceDate.Before(*c.FromDate) || line.ServiceDate.After(*c.ThruDate) {
			return errdefs.Validation("line %d service date %s is outside the claim period %s..%s",
				i+1, line.ServiceDate, c.FromDate, c.ThruDate)
		}
	}
	if err := c.validatePoa(); err != nil {
		return err
	}
	for _, m := range c.Modules {
		if !m.Valid() {
			return errdefs.Validation("unknown module %q", m)
		}
	}
	if c.ICDConvert != nil {
		switch c.ICDConvert.Option {
		case "", ConvertNone, ConvertAuto, ConvertManual:
		default:
			return errdefs.Validation("unknown icd_convert option %q", c.ICDConvert.Option)
		}
	}
	if c.IrfPai != nil {
		if c.IrfPai.AssessmentSystem != "" && c.IrfPai.AssessmentSystem != "IRF-PAI" {
			return errdefs.Validation("invalid assessment system %q", c.IrfPai.AssessmentSystem)
		}
		if c.IrfPai.TransactionType != 0 && c.IrfPai.TransactionType != 1 && c.IrfPai.TransactionType != 2 {
			return errdefs.Validation("invalid irf_pai transaction type %d", c.IrfPai.TransactionType)
		}
	}
	return nil
}

func (c *Claim) validatePoa() error {
	check := func(dx *DiagnosisCode, where string) error {
		if dx == nil {
			return nil
		}
		if !dx.Poa.Valid() {
			return errdefs.Validation("invalid poa indicator %q on %s diagnosis %s", string(dx.Poa), where, dx.Code)
		}
		return nil
	}
	if err := check(c.PrincipalDx, "principal"); err != nil {
		return err
	}
	if err := check(c.AdmitDx, "admit"); err != nil {
		return err
	}
	for i := range c.SecondaryDxs {
		if err := check(&c.SecondaryDxs[i], "secondary"); err != nil {
			return err
		}
	}
	return nil
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
