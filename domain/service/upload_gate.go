package service

import "sync/atomic"

// UploadGate is the process-wide switch deciding whether detected files
// are uploaded. The zero value is a closed gate.
type UploadGate struct {
	enabled atomic.Bool
}

func NewUploadGate() *UploadGate {
	return &UploadGate{}
}

func (g *UploadGate) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *UploadGate) IsEnabled() bool {
	return g.enabled.Load()
}
