// Package archive packages built repositories into downloadable zip artifacts.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteZip packages the repository directory at repoPath into a zip file at
// zipPath. The archive includes the .git directory and the graph metadata
// file, so an extracted copy is a fully working repository.
func WriteZip(repoPath, zipPath string) error {
	root := filepath.Clean(repoPath)
	base := filepath.Base(root)

	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}

	zw := zip.NewWriter(out)
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(filepath.Join(base, rel)))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if walkErr != nil {
		zw.Close()
		out.Close()
		os.Remove(zipPath)
		return fmt.Errorf("zip %s: %w", base, walkErr)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(zipPath)
		return fmt.Errorf("finalize zip: %w", err)
	}
	return out.Close()
}
