// Package fiscal derives vendor engine versions and supported fiscal
// years from claim dates. DRG grouper versions follow the federal fiscal
// calendar: the October release for fiscal year Y carries version
// (Y − 1983) with a trailing "0", and the April correction release of the
// same fiscal year flips the trailing digit to "1".
package fiscal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const baseYear = 1983

// VersionForDate returns the grouper version string in effect on the
// given date. Example: 2025-07-30 falls in fiscal year 2025 after the
// April release, so the result is "421".
func VersionForDate(t time.Time) string {
	v := t.Year() - baseYear
	switch m := t.Month(); {
	case m >= time.October:
		return strconv.Itoa(v+1) + "0"
	case m > time.March:
		return strconv.Itoa(v) + "1"
	default:
		return strconv.Itoa(v-1) + "0"
	}
}

// EndVersion returns the newest version worth probing as of now.
func EndVersion(now time.Time) string {
	return VersionForDate(now)
}

// NextVersion advances a version string along the release sequence:
// a trailing "1" jumps to the next fiscal year's October release, a
// trailing "0" moves to the same year's April release. Anything else is
// returned unchanged.
func NextVersion(version string) string {
	n, err := strconv.Atoi(version)
	if err != nil {
		return version
	}
	switch {
	case strings.HasSuffix(version, "1"):
		return strconv.Itoa(n + 9)
	case strings.HasSuffix(version, "0"):
		return strconv.Itoa(n + 1)
	}
	return version
}

// EffectiveDate returns the first day a version string was in effect.
// October releases (trailing "0") take effect on October 1 of the prior
// calendar year; April releases (trailing "1") on April 1.
func EffectiveDate(version string) (time.Time, error) {
	n, err := strconv.Atoi(version)
	if err != nil || n < 10 {
		return time.Time{}, fmt.Errorf("fiscal: malformed version %q", version)
	}
	major := n / 10
	year := major + baseYear
	if n%10 == 1 {
		return time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Date(year-1, time.October, 1, 0, 0, 0, 0, time.UTC), nil
}

// SupportedYears returns the fiscal years an engine should be configured
// with. When the {ENGINE}_SUPPORTED_YEARS environment variable is set it
// is parsed as comma-separated years, dropping any older than three years
// before now; otherwise the current year and the three prior are used,
// newest first.
func SupportedYears(engine string, now time.Time) ([]int, error) {
	year := now.Year()
	floor := year - 3
	env := os.Getenv(engine + "_SUPPORTED_YEARS")
	if env == "" {
		return []int{year, year - 1, year - 2, year - 3}, nil
	}
	var years []int
	for _, tok := range strings.Split(env, ",") {
		y, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			return nil, fmt.Errorf("fiscal: invalid year in %s_SUPPORTED_YEARS: %q", engine, tok)
		}
		if y >= floor {
			years = append(years, y)
		}
	}
	return years, nil
}
