package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/librepps/gopps/pkg/errdefs"
)

// fetchLibraries downloads fixed-URL jars straight into the jars
// directory, named after the last URL segment.
func (m *Manager) fetchLibraries(component string, urls ...string) func(context.Context, bool) error {
	return func(ctx context.Context, force bool) error {
		for _, u := range urls {
			dest := filepath.Join(m.jarsDir, path.Base(u))
			if _, err := os.Stat(dest); err == nil && !force {
				continue
			}
			if err := m.download(ctx, component, u, dest); err != nil {
				return err
			}
		}
		return nil
	}
}

var zipSuffix = regexp.MustCompile(`\.zip-\d+$`)

// stripZipSuffix drops the numeric suffixes cms.gov appends to some
// uploads ("…-jars.zip-11" and the like).
func stripZipSuffix(name string) string {
	return zipSuffix.ReplaceAllString(name, ".zip")
}

func (m *Manager) fetchMsdrg(ctx context.Context, force bool) error {
	doc, err := m.parsePage(ctx, "msdrg", m.msdrgPage)
	if err != nil {
		return err
	}
	href, version := msdrgSourceLink(doc)
	if href == "" {
		return &errdefs.AcquisitionError{Component: "msdrg", URL: m.msdrgPage, Err: errors.New("no java source bundle linked")}
	}
	m.log.Info().Float64("version", version).Str("url", href).Msg("selected ms-drg source bundle")

	archive := filepath.Join(m.downloadDir, stripZipSuffix(path.Base(href)))
	if err := m.download(ctx, "msdrg", resolveURL(m.msdrgPage, href), archive); err != nil {
		return err
	}
	return m.install("msdrg", archive, force)
}

// msdrgSourceLink picks the newest Java source bundle on the MS-DRG
// software page. Each release link wraps a bold "Version NN Java Source
// Code" label; the highest version wins.
func msdrgSourceLink(doc *html.Node) (string, float64) {
	best := ""
	bestVersion := -1.0
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "a" {
			return
		}
		href := attr(n, "href")
		if href == "" || !strings.Contains(strings.ToLower(href), ".zip") {
			return
		}
		walk(n, func(s *html.Node) {
			if s.Type != html.ElementNode || s.Data != "strong" {
				return
			}
			text := nodeText(s)
			if !strings.Contains(text, "Java Source Code") {
				return
			}
			if v := releaseVersion(text, href); v > bestVersion {
				best, bestVersion = href, v
			}
		})
	})
	if best == "" {
		return "", 0
	}
	return best, bestVersion
}

var (
	versionWord   = regexp.MustCompile(`(?i)version\s+(\d+(?:\.\d+)?)`)
	versionShort  = regexp.MustCompile(`(?i)v(\d+(?:\.\d+)?)`)
	versionDotted = regexp.MustCompile(`(\d+\.\d+)`)
	versionDigits = regexp.MustCompile(`(\d+)`)
)

// releaseVersion reads a comparable version number out of a release
// label, falling back to its URL.
func releaseVersion(text, href string) float64 {
	if v, ok := matchVersion(versionWord, text); ok {
		return v
	}
	if v, ok := matchVersion(versionShort, text); ok {
		return v
	}
	if v, ok := matchVersion(versionShort, href); ok {
		return v
	}
	if v, ok := matchVersion(versionDotted, href); ok {
		return v
	}
	if v, ok := matchVersion(versionDigits, href); ok {
		return v
	}
	return 0
}

func matchVersion(p *regexp.Regexp, s string) (float64, bool) {
	m := p.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// fetchIoce walks the license flow on the OCE quarterly-release page: the
// java-standalone link lands on an agreement form that must be submitted
// with agree=Yes before the bundle is served.
func (m *Manager) fetchIoce(ctx context.Context, force bool) error {
	doc, err := m.parsePage(ctx, "ioce", m.iocePage)
	if err != nil {
		return err
	}
	link := findAnchor(doc, func(href, text string) bool {
		return strings.Contains(strings.ToLower(href), "java-standalone") ||
			strings.Contains(text, "Java Standalone")
	})
	if link == "" {
		return &errdefs.AcquisitionError{Component: "ioce", URL: m.iocePage, Err: errors.New("no java-standalone link")}
	}

	licenseURL := resolveURL(m.iocePage, link)
	licenseDoc, err := m.parsePage(ctx, "ioce", licenseURL)
	if err != nil {
		return err
	}
	action, fields := licenseForm(licenseDoc)
	if action == "" {
		return &errdefs.AcquisitionError{Component: "ioce", URL: licenseURL, Err: errors.New("no license agreement form")}
	}
	fields.Set("agree", "Yes")

	resp, err := m.postForm(ctx, resolveURL(licenseURL, action), fields)
	if err != nil {
		return &errdefs.AcquisitionError{Component: "ioce", URL: licenseURL, Err: err}
	}
	defer resp.Body.Close()

	name := dispositionFilename(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = "ioce-java-standalone.zip"
	}
	archive := filepath.Join(m.downloadDir, name)
	if err := writeFile(archive, resp.Body); err != nil {
		return &errdefs.AcquisitionError{Component: "ioce", URL: licenseURL, Err: err}
	}
	return m.install("ioce", archive, force)
}

// licenseForm finds the agreement form and gathers its inputs, hidden
// fields included.
func licenseForm(doc *html.Node) (string, url.Values) {
	var form *html.Node
	walk(doc, func(n *html.Node) {
		if form != nil || n.Type != html.ElementNode || n.Data != "form" {
			return
		}
		walk(n, func(in *html.Node) {
			if in.Type == html.ElementNode && in.Data == "input" && attr(in, "name") == "agree" {
				form = n
			}
		})
	})
	if form == nil {
		return "", nil
	}
	fields := url.Values{}
	walk(form, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" {
			if name := attr(n, "name"); name != "" {
				fields.Set(name, attr(n, "value"))
			}
		}
	})
	return attr(form, "action"), fields
}

var hhagBundle = regexp.MustCompile(`hh-pps-grouper-software.*\.zip`)

func (m *Manager) fetchHhag(ctx context.Context, force bool) error {
	doc, err := m.parsePage(ctx, "hhag", m.hhagPage)
	if err != nil {
		return err
	}
	link := findAnchor(doc, func(href, _ string) bool {
		return hhagBundle.MatchString(href) && !strings.Contains(href, "-gui")
	})
	if link == "" {
		return &errdefs.AcquisitionError{Component: "hhag", URL: m.hhagPage, Err: errors.New("no grouper software link")}
	}

	// CMS names these bundles generically, often just "<year>.zip".
	archive := filepath.Join(m.downloadDir, "hhgs-"+path.Base(link))
	if err := m.download(ctx, "hhag", resolveURL(m.hhagPage, link), archive); err != nil {
		return err
	}
	return m.install("hhag", archive, force)
}

var cmgBundle = regexp.MustCompile(`/files/zip/cmg-version-\d+-final\.zip`)

func (m *Manager) fetchCmg(ctx context.Context, force bool) error {
	doc, err := m.parsePage(ctx, "cmg", m.cmgPage)
	if err != nil {
		return err
	}
	link := findAnchor(doc, func(href, _ string) bool { return cmgBundle.MatchString(href) })
	if link == "" {
		return &errdefs.AcquisitionError{Component: "cmg", URL: m.cmgPage, Err: errors.New("no case-mix grouper link")}
	}

	archive := filepath.Join(m.downloadDir, path.Base(link))
	if err := m.download(ctx, "cmg", resolveURL(m.cmgPage, link), archive); err != nil {
		return err
	}
	// The bundle nests JAR.zip and LIB.zip; extraction recurses into both.
	return m.install("cmg", archive, force)
}

// The pricer downloads sit under this header on the software page.
const pricerSectionHeader = "Software (Executable JAR Files)"

var pricerZipName = regexp.MustCompile(`^(\w+)-pricer-(\d+(?:-\d+)*)-v(\d+(?:-\d+)*)-executable(?:-jar)?\.zip$`)

// pricerJarName maps an executable bundle name to the jar it installs:
// ipps-pricer-2026-0-v2-11-0-executable-jar.zip unpacks to
// ipps-pricer-application-2.11.0.jar.
func pricerJarName(zipName string) string {
	ma := pricerZipName.FindStringSubmatch(zipName)
	if ma == nil {
		return ""
	}
	return ma[1] + "-pricer-application-" + strings.ReplaceAll(ma[3], "-", ".") + ".jar"
}

func (m *Manager) fetchPricers(ctx context.Context, force bool) error {
	doc, err := m.parsePage(ctx, "pricers", m.pricerPage)
	if err != nil {
		return err
	}
	links := pricerLinks(doc)
	if len(links) == 0 {
		return &errdefs.AcquisitionError{Component: "pricers", URL: m.pricerPage, Err: errors.New("no executable bundles linked")}
	}

	keep := componentMatcher("pricers", force, m.Missing()["pricers"])
	var failed error
	for _, link := range links {
		zipName := path.Base(link)
		jarName := pricerJarName(zipName)
		if jarName == "" {
			m.log.Debug().Str("file", zipName).Msg("skipping non-pricer bundle")
			continue
		}
		if !keep.match(jarName) {
			continue
		}
		archive := filepath.Join(m.downloadDir, zipName)
		if err := m.download(ctx, "pricers", resolveURL(m.pricerPage, link), archive); err != nil {
			m.log.Error().Err(err).Msg("pricer bundle download failed")
			failed = err
			continue
		}
		if err := m.installPricer(archive, jarName, force); err != nil {
			m.log.Error().Err(err).Msg("pricer bundle install failed")
			failed = err
		}
	}
	return failed
}

// pricerLinks collects the zip links in the executable-jar section of the
// pricer software page: every /files/zip/ anchor between the section
// header and the next h2.
func pricerLinks(doc *html.Node) []string {
	header := findHeader(doc, "h2", pricerSectionHeader)
	if header == nil {
		return nil
	}
	var links []string
	for sib := header.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type == html.ElementNode && sib.Data == "h2" {
			break
		}
		walk(sib, func(n *html.Node) {
			if n.Type == html.ElementNode && n.Data == "a" {
				if href := attr(n, "href"); strings.Contains(href, "/files/zip/") {
					links = append(links, href)
				}
			}
		})
	}
	return links
}

// installPricer unpacks one executable bundle and installs its
// application jar under the mapped name.
func (m *Manager) installPricer(archive, jarName string, force bool) error {
	dest := filepath.Join(m.pricersDir(), jarName)
	if _, err := os.Stat(dest); err == nil && !force {
		return nil
	}

	stage, err := os.MkdirTemp(m.downloadDir, "extract-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(stage)

	if err := extractArchive(archive, stage); err != nil {
		return &errdefs.AcquisitionError{Component: "pricers", Err: err}
	}
	jars := findJars(stage)
	if len(jars) == 0 {
		return &errdefs.AcquisitionError{
			Component: "pricers",
			Err:       fmt.Errorf("%s contains no jar", filepath.Base(archive)),
		}
	}
	jar := jars[0]
	for _, j := range jars {
		if strings.Contains(filepath.Base(j), "-pricer-") {
			jar = j
			break
		}
	}
	if err := copyFile(jar, dest); err != nil {
		return &errdefs.AcquisitionError{Component: "pricers", Err: err}
	}
	m.log.Info().Str("file", jarName).Msg("installed pricer jar")
	return nil
}
