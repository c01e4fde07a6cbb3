package acquire

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// installFromArchive extracts an archive, zips nested inside it included,
// into a fresh staging directory and copies the jar members keep selects
// into destDir. Existing destination files stay untouched unless force is
// set. It returns the number of jars installed.
func (m *Manager) installFromArchive(archive string, keep *matcher, destDir string, force bool) (int, error) {
	stage, err := os.MkdirTemp(m.downloadDir, "extract-")
	if err != nil {
		return 0, err
	}
	defer os.RemoveAll(stage)

	if err := extractArchive(archive, stage); err != nil {
		return 0, err
	}

	installed := 0
	for _, jar := range findJars(stage) {
		name := filepath.Base(jar)
		if !keep.match(name) {
			continue
		}
		dest := filepath.Join(destDir, name)
		if _, err := os.Stat(dest); err == nil && !force {
			m.log.Debug().Str("file", name).Msg("jar already installed, keeping")
			continue
		}
		if err := copyFile(jar, dest); err != nil {
			return installed, err
		}
		installed++
	}
	return installed, nil
}

// extractArchive unpacks a zip into dir, then keeps unpacking any zips
// found inside until none remain. CMS wraps several bundles in zips of
// zips.
func extractArchive(archive, dir string) error {
	if err := unzip(archive, dir); err != nil {
		return err
	}
	for {
		nested := findFiles(dir, ".zip")
		if len(nested) == 0 {
			return nil
		}
		for _, z := range nested {
			if err := unzip(z, strings.TrimSuffix(z, ".zip")+".extracted"); err != nil {
				return err
			}
			if err := os.Remove(z); err != nil {
				return err
			}
		}
	}
}

func unzip(archive, dir string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(archive), err)
	}
	defer zr.Close()

	root := filepath.Clean(dir)
	for _, member := range zr.File {
		if member.FileInfo().IsDir() {
			continue
		}
		dest := filepath.Join(root, filepath.Clean(member.Name))
		if !strings.HasPrefix(dest, root+string(os.PathSeparator)) {
			// Member path escapes the staging dir; never extract it.
			continue
		}
		src, err := member.Open()
		if err != nil {
			return fmt.Errorf("open zip member %s: %w", member.Name, err)
		}
		err = writeFile(dest, src)
		src.Close()
		if err != nil {
			return fmt.Errorf("extract %s: %w", member.Name, err)
		}
	}
	return nil
}

// findJars walks root and returns every .jar path found.
func findJars(root string) []string {
	return findFiles(root, ".jar")
}

func findFiles(root, ext string) []string {
	var out []string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ext) {
			out = append(out, path)
		}
		return nil
	})
	return out
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}
