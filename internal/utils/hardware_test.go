package utils

import (
	"net"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceID(t *testing.T) {
	mac, _ := net.ParseMAC("00:1a:2b:3c:4d:5e")
	ifaces := []net.Interface{
		{Name: "lo", Flags: net.FlagUp | net.FlagLoopback},
		{Name: "eth0", Flags: net.FlagUp, HardwareAddr: mac},
	}

	id := deviceID(ifaces)

	assert.Regexp(t, regexp.MustCompile(`^NINE-[0-9A-F]{8}$`), id)
	assert.Equal(t, id, deviceID(ifaces), "stable across calls")
	assert.Equal(t, unknownDevice, deviceID(ifaces[:1]))
}

func TestTerminalID(t *testing.T) {
	assert.Equal(t, "TILL-2", TerminalID(" TILL-2 "))
	assert.NotEmpty(t, TerminalID(""))
}
