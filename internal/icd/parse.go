package icd

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ConversionEntry is one parsed row of the CM conversion table: a current
// code, its effective date (ISO) and its previous code assignments.
type ConversionEntry struct {
	CurrentCode   string
	EffectiveDate string
	PreviousCodes []string
}

var cmColumnSplit = regexp.MustCompile(`\s{2,}|\t`)
var prevCodeSplit = regexp.MustCompile(`[;,]`)

// ParseCMTable reads the published ICD-10-CM conversion table text. Lines
// before the header row are preamble. Rows whose previous-code column
// reads "none" or references whole categories carry no usable mapping and
// are skipped. A bare year in the effective column means October 1 of
// that year; otherwise the column is a MM/DD/YY date.
func ParseCMTable(r io.Reader) ([]ConversionEntry, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read conversion table: %w", err)
	}

	headerIndex := -1
	for i, line := range lines {
		if strings.Contains(line, "Current code assignment") && strings.Contains(line, "Previous Code(s) Assignment") {
			headerIndex = i
			break
		}
	}
	if headerIndex == -1 {
		return nil, fmt.Errorf("conversion table header row not found")
	}

	var entries []ConversionEntry
	for _, line := range lines[headerIndex+1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := cmColumnSplit.Split(line, 3)
		if len(parts) < 3 {
			continue
		}
		currentCode := strings.TrimSpace(parts[0])
		effectiveRaw := strings.TrimSpace(parts[1])
		prevRaw := strings.TrimSpace(parts[2])

		lowered := strings.ToLower(prevRaw)
		if strings.Contains(lowered, "none") || strings.Contains(lowered, "categories") {
			continue
		}

		entries = append(entries, ConversionEntry{
			CurrentCode:   currentCode,
			EffectiveDate: parseEffective(effectiveRaw),
			PreviousCodes: parsePreviousCodes(prevRaw),
		})
	}
	return entries, nil
}

// parseEffective turns the effective column into an ISO date. A bare year
// is the start of that fiscal year (October 1); unparseable values pass
// through untouched.
func parseEffective(raw string) string {
	if year, err := strconv.Atoi(raw); err == nil {
		return fmt.Sprintf("%d-10-01", year)
	}
	if t, err := time.Parse("01/02/06", raw); err == nil {
		return t.Format("2006-01-02")
	}
	return raw
}

// parsePreviousCodes splits the previous-assignment column into individual
// codes, expanding A-B ranges.
func parsePreviousCodes(raw string) []string {
	raw = strings.ReplaceAll(raw, `"`, "")
	raw = strings.ReplaceAll(raw, " and ", ", ")

	var codes []string
	for _, piece := range prevCodeSplit.Split(raw, -1) {
		code := strings.TrimSpace(piece)
		if code == "" {
			continue
		}
		if strings.Contains(code, "-") {
			rangeParts := strings.Split(code, "-")
			if len(rangeParts) == 2 {
				start := strings.TrimSpace(rangeParts[0])
				end := strings.TrimSpace(rangeParts[1])
				// The end of a range may be written as a bare suffix.
				if len(end) < len(start) {
					end = start[:len(start)-len(end)] + end
				}
				codes = append(codes, expandCodeRange(start, end)...)
				continue
			}
		}
		codes = append(codes, code)
	}
	return codes
}

// expandCodeRange expands a numeric-suffix code range inclusively:
// H02.101-H02.103 yields H02.101, H02.102, H02.103. Ranges that do not
// reduce to a shared prefix with numeric suffixes return both endpoints.
func expandCodeRange(start, end string) []string {
	prefixLen := 0
	for prefixLen < len(start) && prefixLen < len(end) && start[prefixLen] == end[prefixLen] {
		prefixLen++
	}
	prefix := start[:prefixLen]
	startSuffix := start[prefixLen:]
	endSuffix := end[prefixLen:]

	if !allDigits(startSuffix) || !allDigits(endSuffix) {
		return []string{start, end}
	}

	lo, _ := strconv.Atoi(startSuffix)
	hi, _ := strconv.Atoi(endSuffix)
	width := len(startSuffix)

	var codes []string
	for i := lo; i <= hi; i++ {
		codes = append(codes, fmt.Sprintf("%s%0*d", prefix, width, i))
	}
	return codes
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
