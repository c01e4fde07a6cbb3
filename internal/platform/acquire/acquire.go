// Package acquire assembles the engine jar environment: the CMS grouper,
// editor and pricer builds plus the open-source libraries they link
// against. Artifacts are fetched independently, so one unreachable page
// never blocks the rest of a run.
package acquire

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/pkg/errdefs"
)

// Pages the CMS artifacts are published on.
const (
	msdrgPageURL  = "https://www.cms.gov/medicare/payment/prospective-payment-systems/acute-inpatient-pps/ms-drg-classifications-and-software"
	iocePageURL   = "https://www.cms.gov/medicare/coding-billing/outpatient-code-editor-oce/quarterly-release-files"
	hhagPageURL   = "https://www.cms.gov/medicare/payment/prospective-payment-systems/home-health/home-health-grouper-software"
	cmgPageURL    = "https://www.cms.gov/medicare/payment/prospective-payment-systems/inpatient-rehabilitation/grouper-case-mix-group"
	pricerPageURL = "https://www.cms.gov/pricersourcecodesoftware"
)

// Library jars with stable direct URLs.
const (
	gfcJarURL      = "https://github.com/3mcloud/GFC-Grouper-Foundation-Classes/releases/download/v3.4.9/gfc-base-api-3.4.9.jar"
	protobufJarURL = "https://repo1.maven.org/maven2/com/google/protobuf/protobuf-java/3.22.2/protobuf-java-3.22.2.jar"
	protobufOldURL = "https://repo1.maven.org/maven2/com/google/protobuf/protobuf-java/3.21.7/protobuf-java-3.21.7.jar"
	slf4jSimpleURL = "https://repo1.maven.org/maven2/org/slf4j/slf4j-simple/2.0.9/slf4j-simple-2.0.9.jar"
	slf4jAPIURL    = "https://repo1.maven.org/maven2/org/slf4j/slf4j-api/2.0.9/slf4j-api-2.0.9.jar"
)

// requirement is one component's artifact set. Exact names must be
// present verbatim; each pattern is satisfied by any one matching file.
type requirement struct {
	exact    []string
	patterns []*regexp.Regexp
	pricers  bool // installed under jars/pricers/ rather than jars/
}

// pricerTypes are the payment systems CMS ships executable pricers for.
// ipf is the agency's name for the inpatient psychiatric pricer.
var pricerTypes = []string{"esrd", "fqhc", "hha", "hospice", "ipf", "ipps", "irf", "ltch", "opps", "snf"}

var requirements = map[string]requirement{
	"slf4j":   {exact: []string{"slf4j-simple-2.0.9.jar", "slf4j-api-2.0.9.jar"}},
	"gfc":     {exact: []string{"gfc-base-api-3.4.9.jar"}},
	"grpc":    {exact: []string{"protobuf-java-3.22.2.jar", "protobuf-java-3.21.7.jar"}},
	"msdrg":   {patterns: msdrgPatterns()},
	"ioce":    {patterns: compile(`^ioce-standalone-[\d.]+\.jar$`)},
	"hhag":    {exact: []string{"HomeHealth.jar"}},
	"cmg":     {exact: []string{"CMG_550.jar", "irf-proto-1.2.0.jar", "gfc-base-factory-3.4.9.jar"}},
	"pricers": {pricers: true, patterns: pricerPatterns()},
}

// componentOrder fixes report and acquisition ordering.
var componentOrder = []string{"slf4j", "gfc", "grpc", "msdrg", "ioce", "hhag", "cmg", "pricers"}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// The grouper source bundle ships versioned jars; MCE builds carry a
// second qualifier on some releases.
func msdrgPatterns() []*regexp.Regexp {
	return compile(
		`^msdrg-binary-access-[\d.]+\.jar$`,
		`^msdrg-model-v2-[\d.]+\.jar$`,
		`^msdrg-v\d+-[\d.]+\.jar$`,
		`^MCE-[\d.]+-?[\d.]*\.jar$`,
		`^mce-proto-[\d.]+\.jar$`,
		`^Utility-[\d.]+\.jar$`,
	)
}

func pricerPatterns() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(pricerTypes))
	for i, t := range pricerTypes {
		out[i] = regexp.MustCompile(`^` + t + `-pricer-application-[\w.-]+\.jar$`)
	}
	return out
}

// Manager owns the jars tree and knows how to fill it.
type Manager struct {
	jarsDir     string
	downloadDir string
	client      *http.Client
	log         zerolog.Logger

	// Page entry points, swappable in tests.
	msdrgPage  string
	iocePage   string
	hhagPage   string
	cmgPage    string
	pricerPage string
}

// New creates a Manager rooted at jarsDir, staging downloads under
// downloadDir.
func New(jarsDir, downloadDir string, log zerolog.Logger) *Manager {
	return &Manager{
		jarsDir:     jarsDir,
		downloadDir: downloadDir,
		client:      newClient(),
		log:         log.With().Str("component", "acquire").Logger(),
		msdrgPage:   msdrgPageURL,
		iocePage:    iocePageURL,
		hhagPage:    hhagPageURL,
		cmgPage:     cmgPageURL,
		pricerPage:  pricerPageURL,
	}
}

func (m *Manager) pricersDir() string { return filepath.Join(m.jarsDir, "pricers") }

// Status is one component's inventory: the required artifacts found on
// disk and the names or patterns still unmatched.
type Status struct {
	Component string   `json:"component"`
	Complete  bool     `json:"complete"`
	Found     []string `json:"found,omitempty"`
	Missing   []string `json:"missing,omitempty"`
}

// Inventory scans the jars tree and reports every component's status.
func (m *Manager) Inventory() []Status {
	main := listJars(m.jarsDir)
	pricers := listJars(m.pricersDir())

	out := make([]Status, 0, len(componentOrder))
	for _, name := range componentOrder {
		req := requirements[name]
		files := main
		if req.pricers {
			files = pricers
		}
		st := Status{Component: name}
		for _, want := range req.exact {
			if files[want] {
				st.Found = append(st.Found, want)
			} else {
				st.Missing = append(st.Missing, want)
			}
		}
		for _, p := range req.patterns {
			matched := false
			for f := range files {
				if p.MatchString(f) {
					st.Found = append(st.Found, f)
					matched = true
				}
			}
			if !matched {
				st.Missing = append(st.Missing, p.String())
			}
		}
		sort.Strings(st.Found)
		sort.Strings(st.Missing)
		st.Complete = len(st.Missing) == 0
		out = append(out, st)
	}
	return out
}

// Missing maps each incomplete component to the artifact names or
// patterns it still lacks.
func (m *Manager) Missing() map[string][]string {
	missing := make(map[string][]string)
	for _, st := range m.Inventory() {
		if !st.Complete {
			missing[st.Component] = st.Missing
		}
	}
	return missing
}

// Complete reports whether every component's artifacts are on disk.
func (m *Manager) Complete() bool { return len(m.Missing()) == 0 }

// Acquire fetches every missing artifact. Components fail independently:
// a broken download is logged and the run moves on to the next one. With
// force set, every component is refreshed and existing jars may be
// replaced. The run succeeds when nothing is missing afterwards.
func (m *Manager) Acquire(ctx context.Context, force bool) error {
	for _, dir := range []string{m.pricersDir(), m.downloadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &errdefs.AcquisitionError{Component: "jars", Err: err}
		}
	}
	defer os.RemoveAll(m.downloadDir)

	missing := m.Missing()
	steps := []struct {
		component string
		run       func(context.Context, bool) error
	}{
		{"slf4j", m.fetchLibraries("slf4j", slf4jSimpleURL, slf4jAPIURL)},
		{"gfc", m.fetchLibraries("gfc", gfcJarURL)},
		{"grpc", m.fetchLibraries("grpc", protobufJarURL, protobufOldURL)},
		{"msdrg", m.fetchMsdrg},
		{"ioce", m.fetchIoce},
		{"hhag", m.fetchHhag},
		{"cmg", m.fetchCmg},
		{"pricers", m.fetchPricers},
	}
	for _, s := range steps {
		if !force && len(missing[s.component]) == 0 {
			m.log.Debug().Str("jar_component", s.component).Msg("component complete, skipping")
			continue
		}
		if err := s.run(ctx, force); err != nil {
			m.log.Error().Str("jar_component", s.component).Err(err).Msg("artifact acquisition failed")
		}
	}

	m.removeUnwantedJars()

	if remaining := m.Missing(); len(remaining) > 0 {
		names := make([]string, 0, len(remaining))
		for name := range remaining {
			names = append(names, name)
		}
		sort.Strings(names)
		return &errdefs.AcquisitionError{
			Component: strings.Join(names, ","),
			Err:       errors.New("artifacts still missing after acquisition"),
		}
	}
	return nil
}

// install unpacks an archive and moves the component's wanted jars into
// place.
func (m *Manager) install(component, archive string, force bool) error {
	keep := componentMatcher(component, force, m.Missing()[component])
	destDir := m.jarsDir
	if requirements[component].pricers {
		destDir = m.pricersDir()
	}
	n, err := m.installFromArchive(archive, keep, destDir, force)
	if err != nil {
		return &errdefs.AcquisitionError{Component: component, Err: err}
	}
	m.log.Info().Str("jar_component", component).Int("jars", n).Msg("installed jars")
	return nil
}

// matcher selects jar file names out of an extracted bundle.
type matcher struct {
	exact    map[string]bool
	patterns []*regexp.Regexp
}

func (s *matcher) match(name string) bool {
	if s.exact[name] {
		return true
	}
	for _, p := range s.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// componentMatcher builds the matcher for a component: its whole artifact
// set under force, otherwise only the entries still missing.
func componentMatcher(component string, force bool, missing []string) *matcher {
	req := requirements[component]
	keep := &matcher{exact: make(map[string]bool)}
	if force {
		for _, e := range req.exact {
			keep.exact[e] = true
		}
		keep.patterns = req.patterns
		return keep
	}
	miss := make(map[string]bool, len(missing))
	for _, s := range missing {
		miss[s] = true
	}
	for _, e := range req.exact {
		if miss[e] {
			keep.exact[e] = true
		}
	}
	for _, p := range req.patterns {
		if miss[p.String()] {
			keep.patterns = append(keep.patterns, p)
		}
	}
	return keep
}

// removeUnwantedJars drops the source and GUI jars that ride along in
// several CMS bundles; they must not end up on an engine classpath.
func (m *Manager) removeUnwantedJars() {
	for _, dir := range []string{m.jarsDir, m.pricersDir()} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if !strings.HasSuffix(name, ".jar") {
				continue
			}
			if strings.Contains(name, "source") || strings.Contains(name, "GUI") {
				if err := os.Remove(filepath.Join(dir, name)); err == nil {
					m.log.Debug().Str("file", name).Msg("removed source jar")
				}
			}
		}
	}
}

func listJars(dir string) map[string]bool {
	out := make(map[string]bool)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return out
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jar") {
			out[e.Name()] = true
		}
	}
	return out
}
