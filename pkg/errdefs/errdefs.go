// Package errdefs defines the error taxonomy shared by every processing
// module: claim validation failures, missing reference data, contended or
// faulted pricing engines, artifact acquisition failures and unsupported
// fiscal versions. Callers branch on error class with the Is* predicates
// rather than on message text.
package errdefs

import (
	"errors"
	"fmt"
)

// ValidationError reports claim content that a module refuses to process.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a reference-data lookup miss.
type NotFoundError struct {
	Entity string
	Key    string
	AsOf   string
}

func (e *NotFoundError) Error() string {
	if e.AsOf != "" {
		return fmt.Sprintf("%s not found for %q as of %s", e.Entity, e.Key, e.AsOf)
	}
	return fmt.Sprintf("%s not found for %q", e.Entity, e.Key)
}

// NotFound builds a NotFoundError for the given entity and lookup key.
func NotFound(entity, key, asOf string) error {
	return &NotFoundError{Entity: entity, Key: key, AsOf: asOf}
}

// EngineBusyError reports that an engine's reconfiguration lock could not be
// acquired within the retry window.
type EngineBusyError struct {
	Engine string
}

func (e *EngineBusyError) Error() string {
	return fmt.Sprintf("engine %s is busy with a conflicting configuration", e.Engine)
}

// EngineFaultError wraps a failure raised inside an engine isolate. Raw
// engine exception types never cross this boundary; only the class name,
// message and (optionally) stack text survive for diagnostics.
type EngineFaultError struct {
	Engine  string
	Op      string
	Class   string
	Message string
	Stack   string
}

func (e *EngineFaultError) Error() string {
	if e.Class != "" {
		return fmt.Sprintf("engine %s %s failed: %s: %s", e.Engine, e.Op, e.Class, e.Message)
	}
	return fmt.Sprintf("engine %s %s failed: %s", e.Engine, e.Op, e.Message)
}

// AcquisitionError reports a failed artifact download or installation.
type AcquisitionError struct {
	Component string
	URL       string
	Err       error
}

func (e *AcquisitionError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("acquiring %s from %s: %v", e.Component, e.URL, e.Err)
	}
	return fmt.Sprintf("acquiring %s: %v", e.Component, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// VersionUnavailableError reports that no loaded engine version or supported
// fiscal year covers the claim's dates.
type VersionUnavailableError struct {
	Engine  string
	Version string
}

func (e *VersionUnavailableError) Error() string {
	return fmt.Sprintf("engine %s version %s is not available", e.Engine, e.Version)
}

// DependencyError marks a module slot that was skipped because an upstream
// module failed.
type DependencyError struct {
	Module string
	On     string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s skipped: upstream %s failed", e.Module, e.On)
}

func IsValidation(err error) bool {
	var t *ValidationError
	return errors.As(err, &t)
}

func IsNotFound(err error) bool {
	var t *NotFoundError
	return errors.As(err, &t)
}

func IsEngineBusy(err error) bool {
	var t *EngineBusyError
	return errors.As(err, &t)
}

func IsEngineFault(err error) bool {
	var t *EngineFaultError
	return errors.As(err, &t)
}

func IsAcquisition(err error) bool {
	var t *AcquisitionError
	return errors.As(err, &t)
}

func IsVersionUnavailable(err error) bool {
	var t *VersionUnavailableError
	return errors.As(err, &t)
}

func IsDependency(err error) bool {
	var t *DependencyError
	return errors.As(err, &t)
}

// Code maps an error to its taxonomy name for result slots and API bodies.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return "validation"
	case IsNotFound(err):
		return "reference_not_found"
	case IsEngineBusy(err):
		return "engine_busy"
	case IsEngineFault(err):
		return "engine_fault"
	case IsAcquisition(err):
		return "acquisition"
	case IsVersionUnavailable(err):
		return "version_unavailable"
	case IsDependency(err):
		return "dependency_failed"
	default:
		return "internal"
	}
}
