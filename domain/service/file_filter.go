package service

// names of OS-generated metadata files that are never uploaded
var deniedFileNames = map[string]struct{}{
	".DS_Store": {},
}

// FileFilter rejects non-payload artifacts by base name
type FileFilter struct{}

func NewFileFilter() FileFilter {
	return FileFilter{}
}

func (FileFilter) Accepts(baseName string) bool {
	_, denied := deniedFileNames[baseName]
	return !denied
}
