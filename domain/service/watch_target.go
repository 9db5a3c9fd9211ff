package service

import (
	"fmt"
	"path/filepath"

	"github.com/ajkula/GoAutoSync/domain/model"
	"github.com/ajkula/GoAutoSync/domain/port/outbound"
)

// WatchTargetResolver computes the directory to watch from the current user
type WatchTargetResolver struct {
	identity   outbound.IdentityResolver
	baseDir    string
	folderName string
	override   string
}

func NewWatchTargetResolver(
	identity outbound.IdentityResolver,
	baseDir, folderName, override string,
) *WatchTargetResolver {
	return &WatchTargetResolver{
		identity:   identity,
		baseDir:    baseDir,
		folderName: folderName,
		override:   override,
	}
}

// Resolve returns <home>/<baseDir>/<folderName>, or the override path when set
func (r *WatchTargetResolver) Resolve() (model.WatchTarget, error) {
	if r.override != "" {
		abs, err := filepath.Abs(r.override)
		if err != nil {
			return model.WatchTarget{}, fmt.Errorf("%w: %v", model.ErrEnvironmentUnavailable, err)
		}
		return model.WatchTarget{Path: abs}, nil
	}

	base, err := r.BaseDir()
	if err != nil {
		return model.WatchTarget{}, err
	}

	return model.WatchTarget{Path: filepath.Join(base, r.folderName)}, nil
}

// BaseDir returns <home>/<baseDir>, the parent of every sync folder
func (r *WatchTargetResolver) BaseDir() (string, error) {
	if r.override != "" {
		abs, err := filepath.Abs(filepath.Dir(r.override))
		if err != nil {
			return "", fmt.Errorf("%w: %v", model.ErrEnvironmentUnavailable, err)
		}
		return abs, nil
	}

	if r.identity == nil {
		return "", fmt.Errorf("%w: no identity resolver", model.ErrEnvironmentUnavailable)
	}

	id, err := r.identity.Current()
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrEnvironmentUnavailable, err)
	}

	if id.HomeDir == "" {
		return "", fmt.Errorf("%w: no home directory for user %q", model.ErrEnvironmentUnavailable, id.Name)
	}

	return filepath.Join(id.HomeDir, r.baseDir), nil
}
