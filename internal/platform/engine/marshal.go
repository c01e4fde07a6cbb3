package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/librepps/gopps/pkg/claim"
)

// Field formatters for engine requests. Vendor groupers and pricers read
// fixed-width string fields; each formatter below is the single place its
// width and fallback are spelled.

// CompactDate renders d as YYYYMMDD, or "" when unset.
func CompactDate(d *claim.Date) string {
	if d == nil || d.IsZero() {
		return ""
	}
	return d.Compact()
}

// Age renders a patient age as the three-digit engine field, "065" when the
// claim carries no usable age.
func Age(p *claim.Patient) string {
	if p == nil || p.Age <= 0 {
		return "065"
	}
	return fmt.Sprintf("%03d", p.Age)
}

// SexCode maps a free-form sex value onto the numeric engine field:
// "1" male, "2" female, "0" unknown.
func SexCode(p *claim.Patient) string {
	switch {
	case p == nil:
		return "0"
	case strings.HasPrefix(strings.ToUpper(p.Sex), "M"):
		return "1"
	case strings.HasPrefix(strings.ToUpper(p.Sex), "F"):
		return "2"
	default:
		return "0"
	}
}

// SexName maps a free-form sex value onto the grouper enum names.
func SexName(p *claim.Patient) string {
	switch SexCode(p) {
	case "1":
		return "MALE"
	case "2":
		return "FEMALE"
	default:
		return "UNKNOWN"
	}
}

// BillType renders a bill type as exactly three characters, right-padded
// with zeros; "131" when unset.
func BillType(bt string) string {
	if bt == "" {
		return "131"
	}
	for len(bt) < 3 {
		bt += "0"
	}
	return bt[:3]
}

// PatientStatus renders a discharge status as exactly two characters,
// left-padded with zeros; "01" when unset.
func PatientStatus(ps string) string {
	if ps == "" {
		return "01"
	}
	for len(ps) < 2 {
		ps = "0" + ps
	}
	return ps[:2]
}

// Units renders service units as a nine-digit field with a minimum of one.
func Units(n int) string {
	if n <= 0 {
		n = 1
	}
	return fmt.Sprintf("%09d", n)
}

// Charges renders a dollar amount with two decimal places.
func Charges(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// CentsAmount renders a dollar amount as nine digits of whole cents,
// rounded to the nearest cent.
func CentsAmount(amount float64) string {
	return fmt.Sprintf("%09d", int64(math.Round(amount*100)))
}

// StripPeriods removes the periods from an ICD code.
func StripPeriods(code string) string {
	return strings.ReplaceAll(code, ".", "")
}

// NPI truncates a provider NPI to its thirteen-character field.
func NPI(npi string) string {
	if len(npi) > 13 {
		return npi[:13]
	}
	return npi
}

// CCN truncates a CMS certification number to its six-character field;
// "123456" when unset.
func CCN(ccn string) string {
	if ccn == "" {
		return "123456"
	}
	if len(ccn) > 6 {
		return ccn[:6]
	}
	return ccn
}
