package onvifcam

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeviceConfigValidation(t *testing.T) {
	_, err := NewDeviceConfig("Cam", 0, "127.0.0.1", "rtsp://h/s", "u", "p", false, false)
	assert.True(t, errors.IsNotValid(err), "port 0")

	_, err = NewDeviceConfig("Cam", 70000, "127.0.0.1", "rtsp://h/s", "u", "p", false, false)
	assert.True(t, errors.IsNotValid(err), "port out of range")

	_, err = NewDeviceConfig("Cam", 8080, "not-an-ip", "rtsp://h/s", "u", "p", false, false)
	assert.True(t, errors.IsNotValid(err), "bad address")

	_, err = NewDeviceConfig("Cam", 8080, "127.0.0.1", "http://h/s", "u", "p", false, false)
	assert.True(t, errors.IsNotValid(err), "non-rtsp stream")

	cfg, err := NewDeviceConfig("Cam", 8080, "192.168.1.20", "rtsp://h:8554/s", "u", "p", true, false)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20", cfg.Address)
	assert.True(t, cfg.WSDiscovery)
}

func TestServiceURLs(t *testing.T) {
	cfg := testConfig(t)
	assert.Equal(t, "http://127.0.0.1:8080/onvif/device_service", cfg.DeviceServiceURL())
	assert.Equal(t, "http://127.0.0.1:8080/onvif/media_service", cfg.MediaServiceURL())
}

func TestEndpointReferenceStable(t *testing.T) {
	cfg := testConfig(t)
	ref := cfg.EndpointReference()
	assert.Contains(t, ref, "urn:uuid:")
	assert.Equal(t, ref, cfg.EndpointReference(), "must be stable across calls")

	other, err := NewDeviceConfig("OtherCam", 8080, "127.0.0.1",
		"rtsp://127.0.0.1:8554/stream", "admin", "secret", false, false)
	require.NoError(t, err)
	assert.NotEqual(t, ref, other.EndpointReference())
}

func TestScopes(t *testing.T) {
	cfg, err := NewDeviceConfig("Front Door Cam", 8080, "127.0.0.1",
		"rtsp://h/s", "u", "p", false, false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"onvif://www.onvif.org/Profile/Streaming",
		"onvif://www.onvif.org/name/Front_Door_Cam",
	}, cfg.Scopes())
}

func TestSerialNumber(t *testing.T) {
	cfg := testConfig(t)
	assert.Equal(t, "EMU-TestCa", cfg.SerialNumber())

	short, err := NewDeviceConfig("Cam", 8080, "127.0.0.1", "rtsp://h/s", "u", "p", false, false)
	require.NoError(t, err)
	assert.Equal(t, "EMU-Cam", short.SerialNumber())
}
