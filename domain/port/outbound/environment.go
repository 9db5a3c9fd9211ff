package outbound

import "github.com/ajkula/GoAutoSync/domain/model"

// resolves the user the process runs as
type IdentityResolver interface {
	Current() (model.Identity, error)
}

// filesystem checks and folder creation consumed by the core
type FolderInspector interface {
	// reports whether path exists and whether it is a directory
	Stat(path string) (exists bool, isDir bool, err error)

	// creates path and any missing parents
	MkdirAll(path string) error
}

// identifies the host machine uploads originate from
type MachineIDService interface {
	GetMachineID() (string, error)
}
