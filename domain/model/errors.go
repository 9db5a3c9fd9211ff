package model

import "errors"

var (
	ErrEnvironmentUnavailable = errors.New("environment unavailable")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrTransferFailure        = errors.New("transfer failure")
	ErrWatchTargetMissing     = errors.New("watch target does not exist")
	ErrWatchTargetNotDir      = errors.New("watch target is not a directory")
	ErrFolderNameRequired     = errors.New("folder name is required")
	ErrInvalidFolderName      = errors.New("invalid folder name")
)
