package onvifcam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProfiles(t *testing.T) {
	resp := buildOK(t, testBuilder(t), OpGetProfiles)
	assert.Contains(t, resp, `<trt:Profiles token="MainProfile" fixed="true">`)
	assert.Contains(t, resp, "<tt:Encoding>H264</tt:Encoding>")
	assert.Contains(t, resp, "<tt:Width>1920</tt:Width>")
	assert.Contains(t, resp, "<tt:Height>1080</tt:Height>")
	assert.Contains(t, resp, "<tt:FrameRateLimit>30</tt:FrameRateLimit>")
	assert.Contains(t, resp, "<tt:BitrateLimit>8000</tt:BitrateLimit>")
	assert.Contains(t, resp, "<tt:GovLength>30</tt:GovLength>")
	assert.Contains(t, resp, "<tt:H264Profile>Main</tt:H264Profile>")
	assert.Contains(t, resp, "<tt:SessionTimeout>PT60S</tt:SessionTimeout>")
	assert.Contains(t, resp, "<tt:SourceToken>VideoSource_1</tt:SourceToken>")

	// Audio is embedded in the profile even though no standalone audio
	// operations are exposed.
	assert.Contains(t, resp, "<tt:Encoding>AAC</tt:Encoding>")
	assert.Contains(t, resp, "<tt:Bitrate>64000</tt:Bitrate>")
	assert.Contains(t, resp, "<tt:SampleRate>48000</tt:SampleRate>")
}

func TestBuildStreamUri(t *testing.T) {
	resp := buildOK(t, testBuilder(t), OpGetStreamUri)
	assert.Contains(t, resp, "<tt:Uri xmlns:tt=\"http://www.onvif.org/ver10/schema\">rtsp://127.0.0.1:8554/stream</tt:Uri>")
	assert.Contains(t, resp, "<tt:InvalidAfterConnect")
	assert.Contains(t, resp, "PT60S")
}

func TestBuildStreamUriEscapesURL(t *testing.T) {
	cfg, err := NewDeviceConfig("Cam", 8080, "127.0.0.1",
		"rtsp://host:8554/stream?user=a&token=b", "u", "p", false, false)
	require.NoError(t, err)
	resp := buildOK(t, NewBuilder(cfg), OpGetStreamUri)
	assert.Contains(t, resp, "rtsp://host:8554/stream?user=a&amp;token=b")
}

func TestBuildVideoSources(t *testing.T) {
	resp := buildOK(t, testBuilder(t), OpGetVideoSources)
	assert.Contains(t, resp, `<trt:VideoSources token="VideoSource_1">`)
	assert.Contains(t, resp, "<tt:Framerate xmlns:tt=\"http://www.onvif.org/ver10/schema\">30</tt:Framerate>")
	assert.Contains(t, resp, "<tt:Width>1920</tt:Width>")
	assert.Contains(t, resp, "<tt:Height>1080</tt:Height>")
}

func TestBuildServiceCapabilities(t *testing.T) {
	resp := buildOK(t, testBuilder(t), OpGetServiceCapabilities)
	assert.Contains(t, resp, "<tt:MaximumNumberOfProfiles>2</tt:MaximumNumberOfProfiles>")
	assert.Contains(t, resp, "<tt:RTP_RTSP_TCP>true</tt:RTP_RTSP_TCP>")
	assert.Contains(t, resp, "<tt:RTPMulticast>false</tt:RTPMulticast>")
}

func TestBuildVideoSourceConfigurations(t *testing.T) {
	resp := buildOK(t, testBuilder(t), OpGetVideoSourceConfigurations)
	assert.Contains(t, resp, `<trt:Configurations token="VideoSourceConfig">`)
	assert.Contains(t, resp, "VideoSource_1")
	assert.Contains(t, resp, `width="1920" height="1080"`)
}

func TestBuildVideoEncoderConfigurations(t *testing.T) {
	resp := buildOK(t, testBuilder(t), OpGetVideoEncoderConfigurations)
	assert.Contains(t, resp, `<trt:Configurations token="VideoEncoderConfig">`)
	assert.Contains(t, resp, "<tt:Encoding xmlns:tt=\"http://www.onvif.org/ver10/schema\">H264</tt:Encoding>")
	assert.Contains(t, resp, "<tt:Width>1920</tt:Width>")
	assert.Contains(t, resp, "<tt:GovLength>30</tt:GovLength>")
	assert.Contains(t, resp, "<tt:SessionTimeout xmlns:tt=\"http://www.onvif.org/ver10/schema\">PT60S</tt:SessionTimeout>")
}
