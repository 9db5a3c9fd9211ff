package machineid

import (
	"github.com/denisbrodbeck/machineid"

	"github.com/ajkula/GoAutoSync/domain/port/outbound"
)

const appID = "GoAutoSync"

type hardwareMachineID struct{}

func NewHardwareMachineID() outbound.MachineIDService {
	return &hardwareMachineID{}
}

// GetMachineID returns an app-scoped HMAC of the host ID, never the raw value
func (h *hardwareMachineID) GetMachineID() (string, error) {
	return machineid.ProtectedID(appID)
}
