package folder

import (
	"errors"
	"io/fs"
	"os"

	"github.com/ajkula/GoAutoSync/domain/port/outbound"
)

type osFolderInspector struct{}

func NewOSFolderInspector() outbound.FolderInspector {
	return osFolderInspector{}
}

func (osFolderInspector) Stat(path string) (bool, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, false, nil
		}
		return false, false, err
	}
	return true, info.IsDir(), nil
}

func (osFolderInspector) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}
