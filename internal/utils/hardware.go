package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
)

const unknownDevice = "UNKNOWN-DEVICE"

// GetDeviceID reads the physical MAC address of the machine and hashes it
// into a terminal id like "NINE-A1B2C3D4". It travels as X-Terminal-ID on
// every shop API call and names the stock mirror key.
func GetDeviceID() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return unknownDevice
	}
	return deviceID(interfaces)
}

func deviceID(interfaces []net.Interface) string {
	var macAddress string
	for _, i := range interfaces {
		// First active physical interface
		if i.Flags&net.FlagUp != 0 && i.Flags&net.FlagLoopback == 0 && len(i.HardwareAddr) > 0 {
			macAddress = i.HardwareAddr.String()
			break
		}
	}
	if macAddress == "" {
		return unknownDevice
	}

	hash := sha256.Sum256([]byte(macAddress + "NINE-POS-SALT"))
	return "NINE-" + strings.ToUpper(hex.EncodeToString(hash[:])[:8])
}

// TerminalID prefers an explicitly configured id over the hardware one.
func TerminalID(configured string) string {
	if id := strings.TrimSpace(configured); id != "" {
		return id
	}
	return GetDeviceID()
}
