package claim

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/librepps/gopps/pkg/errdefs"
)

func datePtr(y int, m time.Month, d int) *Date {
	dt := NewDate(y, m, d)
	return &dt
}

func testClaim() *Claim {
	return &Claim{
		ClaimID:       "CLM-1001",
		FromDate:      datePtr(2025, 1, 1),
		ThruDate:      datePtr(2025, 1, 20),
		AdmitDate:     datePtr(2025, 1, 1),
		LOS:           20,
		BillType:      "111",
		PatientStatus: "01",
		TotalCharges:  4500.50,
		PrincipalDx:   &DiagnosisCode{Code: "A41.9", Poa: PoaY},
		SecondaryDxs:  []DiagnosisCode{{Code: "I10", Poa: PoaY}},
		Patient: &Patient{
			DateOfBirth: datePtr(1955, 3, 12),
			Sex:         "M",
		},
		Lines: []LineItem{
			{ServiceDate: datePtr(2025, 1, 2), RevenueCode: "0450", Hcpcs: "99284", Units: 1, Charges: 1200},
		},
		Modules: []Module{MSDRG, IPPS},
	}
}

func TestDateParseBothLayouts(t *testing.T) {
	cases := []struct {
		in   string
		want Date
	}{
		{"2025-07-30", NewDate(2025, 7, 30)},
		{"20250730", NewDate(2025, 7, 30)},
		{"1999-12-31", NewDate(1999, 12, 31)},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseDate(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
	if _, err := ParseDate("07/30/2025"); err == nil {
		t.Error("expected error for slash-formatted date")
	}
}

func TestDateJSONEmitsDashedForm(t *testing.T) {
	b, err := json.Marshal(struct {
		D *Date `json:"d"`
	}{D: datePtr(2024, 10, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"d":"2024-10-01"}` {
		t.Errorf("marshal = %s", b)
	}

	var decoded struct {
		D *Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"20241001"}`), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.D == nil || !decoded.D.Equal(NewDate(2024, 10, 1)) {
		t.Errorf("unmarshal compact form = %v", decoded.D)
	}
}

func TestClaimJSONRoundTrip(t *testing.T) {
	original := testClaim()
	original.ValueCodes = []ValueCode{{Code: "61", Amount: 16060}}
	original.SpanCodes = []SpanCode{{Code: "77", StartDate: datePtr(2025, 1, 5), EndDate: datePtr(2025, 1, 7)}}
	original.OccurrenceCodes = []OccurrenceCode{{Code: "61", Date: datePtr(2025, 1, 1)}}

	encoded, err := json.Marshal(original)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Claim
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(original, &decoded) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", &decoded, original)
	}
}

func TestValidateAcceptsWellFormedClaim(t *testing.T) {
	if err := testClaim().Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateRejectsReversedPeriod(t *testing.T) {
	c := testClaim()
	c.FromDate = datePtr(2025, 2, 1)
	c.ThruDate = datePtr(2025, 1, 1)
	err := c.Validate()
	if !errdefs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateRejectsNegativeLOS(t *testing.T) {
	c := testClaim()
	c.LOS = -1
	if err := c.Validate(); !errdefs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateRejectsLineOutsidePeriod(t *testing.T) {
	c := testClaim()
	c.Lines[0].ServiceDate = datePtr(2025, 3, 1)
	if err := c.Validate(); !errdefs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateRejectsBadPoa(t *testing.T) {
	c := testClaim()
	c.SecondaryDxs[0].Poa = POA("X")
	if err := c.Validate(); !errdefs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateRejectsUnknownModule(t *testing.T) {
	c := testClaim()
	c.Modules = append(c.Modules, Module("SNIF"))
	if err := c.Validate(); !errdefs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPoaNames(t *testing.T) {
	cases := map[POA]string{
		PoaY: "Y", PoaN: "N", PoaU: "U", PoaW: "W", PoaE: "E",
		PoaOne: "ONE", PoaBlank: "BLANK",
	}
	for poa, want := range cases {
		if got := poa.Name(); got != want {
			t.Errorf("POA(%q).Name() = %q, want %q", string(poa), got, want)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	a := NewDate(2025, 1, 1)
	b := NewDate(2025, 1, 20)
	if got := DaysBetween(a, b); got != 19 {
		t.Errorf("DaysBetween = %d, want 19", got)
	}
	if got := DaysBetween(b, a); got != -19 {
		t.Errorf("reversed DaysBetween = %d, want -19", got)
	}
}

func TestDateInt(t *testing.T) {
	if got := NewDate(2025, 7, 30).Int(); got != 20250730 {
		t.Errorf("Int() = %d, want 20250730", got)
	}
}
