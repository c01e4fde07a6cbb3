package acquire

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/librepps/gopps/pkg/errdefs"
)

// cms.gov rejects requests without a browser user agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const (
	connectTimeout  = 10 * time.Second
	responseTimeout = 30 * time.Second
	fetchTimeout    = 5 * time.Minute
	maxAttempts     = 3
	retryDelay      = 2 * time.Second
)

// newClient builds the shared download client. The cookie jar carries the
// session the IOCE license form hands out.
func newClient() *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Timeout: fetchTimeout,
		Jar:     jar,
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
			ResponseHeaderTimeout: responseTimeout,
		},
	}
}

// get issues a GET, retrying transport errors and 5xx answers a bounded
// number of times.
func (m *Manager) get(ctx context.Context, rawURL string) (*http.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := m.client.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode == http.StatusOK:
			return resp, nil
		case resp.StatusCode >= http.StatusInternalServerError:
			lastErr = fmt.Errorf("unexpected status %s", resp.Status)
			resp.Body.Close()
		default:
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, lastErr
}

func (m *Manager) postForm(ctx context.Context, formURL string, fields url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, formURL, strings.NewReader(fields.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp, nil
}

// download streams a URL into dest.
func (m *Manager) download(ctx context.Context, component, rawURL, dest string) error {
	resp, err := m.get(ctx, rawURL)
	if err != nil {
		return &errdefs.AcquisitionError{Component: component, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if err := writeFile(dest, resp.Body); err != nil {
		return &errdefs.AcquisitionError{Component: component, URL: rawURL, Err: err}
	}
	m.log.Info().Str("jar_component", component).Str("file", filepath.Base(dest)).Msg("downloaded")
	return nil
}

func writeFile(dest string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dest)
		return err
	}
	return f.Close()
}

// parsePage fetches a URL and parses the body as HTML.
func (m *Manager) parsePage(ctx context.Context, component, rawURL string) (*html.Node, error) {
	resp, err := m.get(ctx, rawURL)
	if err != nil {
		return nil, &errdefs.AcquisitionError{Component: component, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, &errdefs.AcquisitionError{Component: component, URL: rawURL, Err: err}
	}
	return doc, nil
}

// resolveURL makes ref absolute against base, leaving it alone when
// either side fails to parse.
func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// dispositionFilename pulls the file name out of a Content-Disposition
// header, when one names it.
func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := params["filename"]; name != "" {
			return filepath.Base(name)
		}
	}
	return ""
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// nodeText concatenates the text content under a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return strings.TrimSpace(b.String())
}

// findAnchor returns the first anchor href the predicate accepts.
func findAnchor(doc *html.Node, accept func(href, text string) bool) string {
	found := ""
	walk(doc, func(n *html.Node) {
		if found != "" || n.Type != html.ElementNode || n.Data != "a" {
			return
		}
		if href := attr(n, "href"); href != "" && accept(href, nodeText(n)) {
			found = href
		}
	})
	return found
}

// findHeader returns the first element of the given tag whose text
// contains the wanted string.
func findHeader(doc *html.Node, tag, text string) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) {
		if found == nil && n.Type == html.ElementNode && n.Data == tag && strings.Contains(nodeText(n), text) {
			found = n
		}
	})
	return found
}
