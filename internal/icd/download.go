package icd

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/librepps/gopps/pkg/errdefs"
)

// CMS publishes each fiscal year's CM and PCS conversion tables as zip
// archives named by year. Each pattern takes the year as its %d verb.
const (
	CMExportURL  = "https://www.cms.gov/files/zip/%d-conversion-table.zip"
	PCSExportURL = "https://www.cms.gov/files/zip/%d-icd-10-pcs-conversion-table.zip"
)

const (
	acquireComponent = "icd-conversion"
	fetchTimeout     = 2 * time.Minute
)

// Fetch downloads the newest published conversion tables into a staging
// directory under workDir, reloads both tables and removes the staged
// files. The coming fiscal year is probed first; when neither table
// exists for it the current year is used instead. Both tables must be
// published for the chosen year; the loaded data is only replaced once
// both downloads succeed.
func (c *Converter) Fetch(ctx context.Context, workDir string) error {
	client := c.client
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}

	year := c.now().Year() + 1
	cmOK, err := c.published(ctx, client, fmt.Sprintf(c.cmURL, year))
	if err != nil {
		return err
	}
	pcsOK, err := c.published(ctx, client, fmt.Sprintf(c.pcsURL, year))
	if err != nil {
		return err
	}
	if !cmOK && !pcsOK {
		year--
		if cmOK, err = c.published(ctx, client, fmt.Sprintf(c.cmURL, year)); err != nil {
			return err
		}
		if pcsOK, err = c.published(ctx, client, fmt.Sprintf(c.pcsURL, year)); err != nil {
			return err
		}
	}
	switch {
	case !cmOK && !pcsOK:
		return c.acquireErr(fmt.Sprintf(c.cmURL, year), errors.New("no conversion table published for the current or next fiscal year"))
	case !cmOK:
		return c.acquireErr(fmt.Sprintf(c.cmURL, year), fmt.Errorf("cm table not published for fiscal year %d", year))
	case !pcsOK:
		return c.acquireErr(fmt.Sprintf(c.pcsURL, year), fmt.Errorf("pcs table not published for fiscal year %d", year))
	}

	c.log.Info().Int("year", year).Msg("downloading icd-10 conversion tables")

	stage := filepath.Join(workDir, fmt.Sprintf("icd_conversion_%d", year))
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(stage)

	cmTxt, err := c.fetchTableText(ctx, client, fmt.Sprintf(c.cmURL, year), stage, "cm")
	if err != nil {
		return err
	}
	pcsTxt, err := c.fetchTableText(ctx, client, fmt.Sprintf(c.pcsURL, year), stage, "pcs")
	if err != nil {
		return err
	}

	if err := c.Truncate(ctx); err != nil {
		return err
	}
	if err := c.loadFile(ctx, CM, cmTxt); err != nil {
		return err
	}
	return c.loadFile(ctx, PCS, pcsTxt)
}

func (c *Converter) loadFile(ctx context.Context, kind Kind, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s table: %w", kind.table(), err)
	}
	defer f.Close()

	if kind == PCS {
		_, err = c.LoadPCS(ctx, f)
	} else {
		_, err = c.LoadCM(ctx, f)
	}
	return err
}

// published reports whether a HEAD probe of the url answers 200.
func (c *Converter) published(ctx context.Context, client *http.Client, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, c.acquireErr(url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, c.acquireErr(url, err)
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

// fetchTableText downloads one zip archive and extracts its first .txt
// member into stage, returning the extracted path.
func (c *Converter) fetchTableText(ctx context.Context, client *http.Client, url, stage, name string) (string, error) {
	zipPath := filepath.Join(stage, name+".zip")
	if err := c.downloadTo(ctx, client, url, zipPath); err != nil {
		return "", err
	}
	txt, err := extractFirstTxt(zipPath, stage)
	if err != nil {
		return "", c.acquireErr(url, err)
	}
	return txt, nil
}

func (c *Converter) downloadTo(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return c.acquireErr(url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return c.acquireErr(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.acquireErr(url, fmt.Errorf("unexpected status %s", resp.Status))
	}

	f, err := os.Create(dest)
	if err != nil {
		return c.acquireErr(url, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return c.acquireErr(url, err)
	}
	if err := f.Close(); err != nil {
		return c.acquireErr(url, err)
	}
	return nil
}

func (c *Converter) acquireErr(url string, err error) error {
	return &errdefs.AcquisitionError{Component: acquireComponent, URL: url, Err: err}
}

// extractFirstTxt extracts the first .txt member of the archive into
// destDir, flattening any member path.
func extractFirstTxt(zipPath, destDir string) (string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", filepath.Base(zipPath), err)
	}
	defer zr.Close()

	for _, member := range zr.File {
		if !strings.HasSuffix(member.Name, ".txt") {
			continue
		}
		src, err := member.Open()
		if err != nil {
			return "", fmt.Errorf("open zip member %s: %w", member.Name, err)
		}
		defer src.Close()

		destPath := filepath.Join(destDir, filepath.Base(member.Name))
		dest, err := os.Create(destPath)
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(dest, src); err != nil {
			dest.Close()
			return "", fmt.Errorf("extract %s: %w", member.Name, err)
		}
		if err := dest.Close(); err != nil {
			return "", err
		}
		return destPath, nil
	}
	return "", fmt.Errorf("%s has no .txt entry", filepath.Base(zipPath))
}
