package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ajkula/GoAutoSync/domain/model"
	"github.com/ajkula/GoAutoSync/domain/port/outbound"
)

// folderService answers folder queries under the sync base directory
type folderService struct {
	resolver  *WatchTargetResolver
	inspector outbound.FolderInspector
	logger    outbound.Logger
}

func NewFolderService(
	resolver *WatchTargetResolver,
	inspector outbound.FolderInspector,
	logger outbound.Logger,
) *folderService {
	return &folderService{
		resolver:  resolver,
		inspector: inspector,
		logger:    logger,
	}
}

// Exists reports whether <base>/<name> is an existing directory.
// A regular file with that name counts as absent.
func (s *folderService) Exists(ctx context.Context, name string) (bool, error) {
	dirPath, err := s.folderPath(name)
	if err != nil {
		return false, err
	}

	exists, isDir, err := s.inspector.Stat(dirPath)
	if err != nil {
		s.logger.Error("An error occurred while checking the folder", "path", dirPath, "error", err)
		return false, err
	}

	if exists && !isDir {
		s.logger.Info("Folder name exists but is not a directory", "path", dirPath)
		return false, nil
	}

	return exists, nil
}

// Create makes <base>/<name> and returns its absolute path
func (s *folderService) Create(ctx context.Context, name string) (string, error) {
	dirPath, err := s.folderPath(name)
	if err != nil {
		return "", err
	}

	if err := s.inspector.MkdirAll(dirPath); err != nil {
		s.logger.Error("Error creating folder", "path", dirPath, "error", err)
		return "", err
	}

	s.logger.Info("Folder created", "path", dirPath)
	return dirPath, nil
}

func (s *folderService) folderPath(name string) (string, error) {
	if err := validateFolderName(name); err != nil {
		return "", err
	}

	base, err := s.resolver.BaseDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(base, name), nil
}

func validateFolderName(name string) error {
	if strings.TrimSpace(name) == "" {
		return model.ErrFolderNameRequired
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", model.ErrInvalidFolderName, name)
	}
	return nil
}
