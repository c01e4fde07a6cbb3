package errdefs

import (
	"fmt"
	"testing"
)

func TestCodeClassification(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{Validation("los cannot be negative"), "validation"},
		{NotFound("ipsf provider", "010001", "20250101"), "reference_not_found"},
		{&EngineBusyError{Engine: "msdrg"}, "engine_busy"},
		{&EngineFaultError{Engine: "ipps", Op: "invoke", Message: "boom"}, "engine_fault"},
		{&AcquisitionError{Component: "ioce", Err: fmt.Errorf("status 404")}, "acquisition"},
		{&VersionUnavailableError{Engine: "msdrg", Version: "390"}, "version_unavailable"},
		{&DependencyError{Module: "IPPS", On: "MSDRG"}, "dependency_failed"},
		{fmt.Errorf("plain"), "internal"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := Code(tc.err); got != tc.code {
			t.Errorf("Code(%v) = %q, want %q", tc.err, got, tc.code)
		}
	}
}

func TestPredicatesUnwrap(t *testing.T) {
	err := fmt.Errorf("processing claim: %w", Validation("thru date is required"))
	if !IsValidation(err) {
		t.Error("expected wrapped validation error to be detected")
	}
	if IsNotFound(err) {
		t.Error("validation error misclassified as not found")
	}

	acq := &AcquisitionError{Component: "msdrg", URL: "https://example.com/x.zip", Err: fmt.Errorf("timeout")}
	if acq.Unwrap() == nil {
		t.Error("acquisition error should unwrap to its cause")
	}
}
