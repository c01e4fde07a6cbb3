package refdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/librepps/gopps/pkg/errdefs"
)

// Provider file export endpoints on the CMS provider data service.
const (
	IpsfExportURL = "https://pds.mps.cms.gov/fiss/v2/inpatient/export?fromDate=2023-01-01&toDate=2030-12-31"
	OpsfExportURL = "https://pds.mps.cms.gov/fiss/v2/outpatient/export?fromDate=2023-01-01&toDate=2030-12-31"

	ipsfFileName = "ipsf_data.csv"
	opsfFileName = "opsf_data.csv"
)

const downloadTimeout = 2 * time.Minute

// fetchToFile streams url into dest, creating parent directories as
// needed. Failures are reported as acquisition errors.
func fetchToFile(ctx context.Context, client *http.Client, component, url, dest string) error {
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &errdefs.AcquisitionError{Component: component, URL: url, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return &errdefs.AcquisitionError{Component: component, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &errdefs.AcquisitionError{
			Component: component,
			URL:       url,
			Err:       fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return &errdefs.AcquisitionError{Component: component, URL: url, Err: err}
	}

	out, err := os.Create(dest)
	if err != nil {
		return &errdefs.AcquisitionError{Component: component, URL: url, Err: err}
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return &errdefs.AcquisitionError{Component: component, URL: url, Err: err}
	}
	if err := out.Close(); err != nil {
		return &errdefs.AcquisitionError{Component: component, URL: url, Err: err}
	}
	return nil
}
