package archive

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Service creates and serves zip artifacts for built repositories.
type Service struct {
	zipsDir string
	objects *ObjectStore // nil when object storage is not configured
}

// NewService creates an archive service rooted at zipsDir.
func NewService(zipsDir string, objects *ObjectStore) *Service {
	return &Service{zipsDir: zipsDir, objects: objects}
}

// Package zips the repository and, when configured, mirrors the artifact to
// object storage. A failed upload is logged but not fatal: the local copy
// still serves downloads.
func (s *Service) Package(ctx context.Context, repoPath, repoName string) (string, error) {
	if err := os.MkdirAll(s.zipsDir, 0o755); err != nil {
		return "", fmt.Errorf("create zips dir: %w", err)
	}
	zipPath := filepath.Join(s.zipsDir, repoName+".zip")
	if err := WriteZip(repoPath, zipPath); err != nil {
		return "", err
	}

	if s.objects != nil {
		if err := s.objects.Upload(ctx, repoName+".zip", zipPath); err != nil {
			log.Printf("archive: mirror %s to object storage: %v", repoName, err)
		}
	}
	return zipPath, nil
}

// Open returns the zip artifact for repoName, preferring the local copy and
// falling back to object storage.
func (s *Service) Open(ctx context.Context, repoName string) (io.ReadCloser, error) {
	zipPath := filepath.Join(s.zipsDir, repoName+".zip")
	if f, err := os.Open(zipPath); err == nil {
		return f, nil
	}
	if s.objects != nil {
		rc, err := s.objects.Fetch(ctx, repoName+".zip")
		if err == nil {
			return rc, nil
		}
		log.Printf("archive: object storage fetch %s: %v", repoName, err)
	}
	return nil, fmt.Errorf("archive %s not found", repoName)
}
