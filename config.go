package onvifcam

import (
	"fmt"
	"net"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/juju/errors"
)

// NewDeviceConfig builds the immutable device configuration. The surrounding
// process owns full validation of user input; only the checks the core relies
// on are applied here.
func NewDeviceConfig(name string, port int, address, streamURL, username, password string, wsDiscovery, debug bool) (*DeviceConfig, error) {
	if port < 1 || port > 65535 {
		return nil, errors.NotValidf("onvif port %d", port)
	}
	if net.ParseIP(address) == nil {
		return nil, errors.NotValidf("advertised address %q", address)
	}
	if !strings.HasPrefix(streamURL, "rtsp://") {
		return nil, errors.NotValidf("stream url %q: must start with rtsp://", streamURL)
	}

	return &DeviceConfig{
		DeviceName:  name,
		OnvifPort:   port,
		Address:     address,
		StreamURL:   streamURL,
		Username:    username,
		Password:    password,
		WSDiscovery: wsDiscovery,
		Debug:       debug,
	}, nil
}

// Credential returns the single credential accepted by this device.
func (c *DeviceConfig) Credential() Credential {
	return Credential{Username: c.Username, Password: c.Password}
}

// DeviceServiceURL is the advertised ONVIF device service endpoint.
func (c *DeviceConfig) DeviceServiceURL() string {
	return fmt.Sprintf("http://%s:%d/onvif/device_service", c.Address, c.OnvifPort)
}

// MediaServiceURL is the advertised ONVIF media service endpoint.
func (c *DeviceConfig) MediaServiceURL() string {
	return fmt.Sprintf("http://%s:%d/onvif/media_service", c.Address, c.OnvifPort)
}

// EndpointReference derives a stable urn:uuid endpoint reference from the
// device identity, so rediscovery after a restart yields the same device.
func (c *DeviceConfig) EndpointReference() string {
	id := uuid.NewV5(uuid.NamespaceURL, c.DeviceServiceURL()+"/"+c.DeviceName)
	return "urn:uuid:" + id.String()
}

// Scopes are the WS-Discovery scopes advertised in Hello and ProbeMatch
// messages and matched against Probe scope filters.
func (c *DeviceConfig) Scopes() []string {
	return []string{
		"onvif://www.onvif.org/Profile/Streaming",
		"onvif://www.onvif.org/name/" + strings.ReplaceAll(c.DeviceName, " ", "_"),
	}
}

// SerialNumber is the fixed serial reported by GetDeviceInformation. It is
// derived from the first runes of the device name.
func (c *DeviceConfig) SerialNumber() string {
	runes := []rune(c.DeviceName)
	if len(runes) > 6 {
		runes = runes[:6]
	}
	return "EMU-" + string(runes)
}
