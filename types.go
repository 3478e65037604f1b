// Package onvifcam emulates an ONVIF-compliant network video transmitter:
// it answers SOAP requests over HTTP for device and media metadata, enforces
// the three ONVIF authentication schemes, and announces itself on the network
// via WS-Discovery multicast.
package onvifcam

import (
	"time"
)

// DeviceConfig holds the process-lifetime device identity. It is created once
// at startup and shared read-only between the dispatcher, the authentication
// engine and the discovery responder.
type DeviceConfig struct {
	DeviceName  string
	OnvifPort   int
	Address     string // advertised IP for XAddrs and the multicast interface
	StreamURL   string // RTSP URI returned verbatim by GetStreamUri
	Username    string
	Password    string
	WSDiscovery bool
	Debug       bool // verbose request logging, logs sensitive material
}

// Credential is the single username/password pair accepted by the device.
type Credential struct {
	Username string
	Password string
}

// SoapOperation identifies a supported ONVIF request, resolved from the first
// child element of the SOAP Body regardless of namespace prefix.
type SoapOperation int

const (
	OpUnsupported SoapOperation = iota
	OpGetCapabilities
	OpGetDeviceInformation
	OpGetServiceCapabilities
	OpGetSystemDateAndTime
	OpGetServices
	OpGetProfiles
	OpGetStreamUri
	OpGetVideoSources
	OpGetVideoSourceConfigurations
	OpGetVideoEncoderConfigurations
)

// operations maps SOAP Body local names to operations. Anything not listed
// resolves to OpUnsupported.
var operations = map[string]SoapOperation{
	"GetCapabilities":               OpGetCapabilities,
	"GetDeviceInformation":          OpGetDeviceInformation,
	"GetServiceCapabilities":        OpGetServiceCapabilities,
	"GetSystemDateAndTime":          OpGetSystemDateAndTime,
	"GetServices":                   OpGetServices,
	"GetProfiles":                   OpGetProfiles,
	"GetStreamUri":                  OpGetStreamUri,
	"GetVideoSources":               OpGetVideoSources,
	"GetVideoSourceConfigurations":  OpGetVideoSourceConfigurations,
	"GetVideoEncoderConfigurations": OpGetVideoEncoderConfigurations,
}

// publicOperations are the discovery-class operations that ONVIF clients may
// call before they have credentials. Everything else requires authentication.
var publicOperations = map[SoapOperation]bool{
	OpGetCapabilities:        true,
	OpGetDeviceInformation:   true,
	OpGetServiceCapabilities: true,
	OpGetSystemDateAndTime:   true,
	OpGetServices:            true,
}

func (op SoapOperation) String() string {
	for name, o := range operations {
		if o == op {
			return name
		}
	}
	return "Unsupported"
}

// Public reports whether the operation may be served without credentials.
func (op SoapOperation) Public() bool {
	return publicOperations[op]
}

// AuthReason classifies why a request was not authenticated.
type AuthReason int

const (
	ReasonNone AuthReason = iota
	ReasonMissingCredentials
	ReasonInvalidCredentials
	ReasonStaleNonce
	ReasonExpiredTimestamp
	ReasonMalformedHeader
)

func (r AuthReason) String() string {
	switch r {
	case ReasonMissingCredentials:
		return "MissingCredentials"
	case ReasonInvalidCredentials:
		return "InvalidCredentials"
	case ReasonStaleNonce:
		return "StaleNonce"
	case ReasonExpiredTimestamp:
		return "ExpiredTimestamp"
	case ReasonMalformedHeader:
		return "MalformedHeader"
	}
	return "None"
}

// AuthResult is the outcome of one authentication attempt.
type AuthResult struct {
	Authenticated bool
	Reason        AuthReason
}

// DiscoveryKind is the WS-Discovery message kind carried by one datagram.
type DiscoveryKind int

const (
	KindUnknown DiscoveryKind = iota
	KindProbe
	KindProbeMatch
	KindHello
	KindBye
)

// DiscoveryMessage is a parsed WS-Discovery datagram. It lives for the
// duration of one datagram and is never persisted.
type DiscoveryMessage struct {
	Kind      DiscoveryKind
	MessageID string
	RelatesTo string
	Types     []string
	Scopes    []string
}

// Resolution represents video resolution.
type Resolution struct {
	Width  int
	Height int
}

// Fixed encoder characteristics of the emulated main profile. These mirror
// the upstream encode and are not configurable.
var (
	MainResolution = Resolution{1920, 1080}
	MainFramerate  = 30
)

const (
	// DefaultMulticastAddr is the WS-Discovery multicast group.
	DefaultMulticastAddr = "239.255.255.250:3702"

	// AuthRealm is the realm presented in Basic and Digest challenges.
	AuthRealm = "ONVIF Camera"

	// FreshnessWindow bounds both Digest nonce lifetime and the accepted
	// clock skew for WS-Security Created timestamps.
	FreshnessWindow = 5 * time.Minute

	// HelloInterval is how often the unsolicited Hello is re-announced.
	HelloInterval = 60 * time.Second
)

// Namespace URIs used across SOAP parsing and response templates.
const (
	nsAddressing     = "http://www.w3.org/2005/08/addressing"
	nsDiscovery      = "http://schemas.xmlsoap.org/ws/2005/04/discovery"
	nsPasswordDigest = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordDigest"
)
