package onvifcam

import (
	"fmt"
	"time"

	"github.com/juju/errors"
)

// Builder renders the SOAP response envelope for each supported operation.
// Every build is a pure function of the immutable device configuration; only
// GetSystemDateAndTime consults the clock.
type Builder struct {
	cfg *DeviceConfig
	now func() time.Time
}

// NewBuilder creates a response builder over the device configuration.
func NewBuilder(cfg *DeviceConfig) *Builder {
	return &Builder{cfg: cfg, now: time.Now}
}

// Build returns the response body for the operation. Unsupported operations
// are filtered by the dispatcher and never reach this point.
func (b *Builder) Build(op SoapOperation) (string, error) {
	switch op {
	case OpGetCapabilities:
		return b.buildCapabilities(), nil
	case OpGetDeviceInformation:
		return b.buildDeviceInformation(), nil
	case OpGetServices:
		return b.buildServices(), nil
	case OpGetSystemDateAndTime:
		return b.buildSystemDateAndTime(), nil
	case OpGetServiceCapabilities:
		return b.buildServiceCapabilities(), nil
	case OpGetProfiles:
		return b.buildProfiles(), nil
	case OpGetStreamUri:
		return b.buildStreamUri(), nil
	case OpGetVideoSources:
		return b.buildVideoSources(), nil
	case OpGetVideoSourceConfigurations:
		return b.buildVideoSourceConfigurations(), nil
	case OpGetVideoEncoderConfigurations:
		return b.buildVideoEncoderConfigurations(), nil
	}
	return "", errors.NotSupportedf("operation %s", op)
}

func (b *Builder) buildCapabilities() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
<soap:Body>
<tds:GetCapabilitiesResponse xmlns:tds="http://www.onvif.org/ver10/device/wsdl">
<tds:Capabilities>
<tt:Device xmlns:tt="http://www.onvif.org/ver10/schema">
<tt:XAddr>%s</tt:XAddr>
<tt:Network>
<tt:IPFilter>false</tt:IPFilter>
<tt:ZeroConfiguration>false</tt:ZeroConfiguration>
<tt:IPVersion6>false</tt:IPVersion6>
<tt:DynDNS>false</tt:DynDNS>
</tt:Network>
<tt:System>
<tt:DiscoveryResolve>false</tt:DiscoveryResolve>
<tt:DiscoveryBye>true</tt:DiscoveryBye>
<tt:RemoteDiscovery>false</tt:RemoteDiscovery>
<tt:SystemBackup>false</tt:SystemBackup>
<tt:SystemLogging>false</tt:SystemLogging>
<tt:FirmwareUpgrade>false</tt:FirmwareUpgrade>
<tt:SupportedVersions>
<tt:Major>2</tt:Major>
<tt:Minor>60</tt:Minor>
</tt:SupportedVersions>
</tt:System>
<tt:IO>
<tt:InputConnectors>0</tt:InputConnectors>
<tt:RelayOutputs>0</tt:RelayOutputs>
</tt:IO>
<tt:Security>
<tt:TLS1.1>false</tt:TLS1.1>
<tt:TLS1.2>false</tt:TLS1.2>
<tt:OnboardKeyGeneration>false</tt:OnboardKeyGeneration>
<tt:AccessPolicyConfig>false</tt:AccessPolicyConfig>
<tt:X.509Token>false</tt:X.509Token>
<tt:SAMLToken>false</tt:SAMLToken>
<tt:KerberosToken>false</tt:KerberosToken>
<tt:RELToken>false</tt:RELToken>
</tt:Security>
</tt:Device>
<tt:Media xmlns:tt="http://www.onvif.org/ver10/schema">
<tt:XAddr>%s</tt:XAddr>
<tt:StreamingCapabilities>
<tt:RTPMulticast>false</tt:RTPMulticast>
<tt:RTP_TCP>true</tt:RTP_TCP>
<tt:RTP_RTSP_TCP>true</tt:RTP_RTSP_TCP>
</tt:StreamingCapabilities>
</tt:Media>
<tt:Events xmlns:tt="http://www.onvif.org/ver10/schema">
<tt:XAddr>%s</tt:XAddr>
<tt:WSSubscriptionPolicySupport>false</tt:WSSubscriptionPolicySupport>
<tt:WSPullPointSupport>false</tt:WSPullPointSupport>
<tt:WSPausableSubscriptionManagerInterfaceSupport>false</tt:WSPausableSubscriptionManagerInterfaceSupport>
</tt:Events>
</tds:Capabilities>
</tds:GetCapabilitiesResponse>
</soap:Body>
</soap:Envelope>`, xmlEscape(b.cfg.DeviceServiceURL()), xmlEscape(b.cfg.MediaServiceURL()),
		xmlEscape(b.cfg.DeviceServiceURL()))
}

func (b *Builder) buildDeviceInformation() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
<soap:Body>
<tds:GetDeviceInformationResponse xmlns:tds="http://www.onvif.org/ver10/device/wsdl">
<tds:Manufacturer>ONVIF Media Solutions</tds:Manufacturer>
<tds:Model>%s</tds:Model>
<tds:FirmwareVersion>1.0.0</tds:FirmwareVersion>
<tds:SerialNumber>%s</tds:SerialNumber>
<tds:HardwareId>onvif-media-transcoder</tds:HardwareId>
</tds:GetDeviceInformationResponse>
</soap:Body>
</soap:Envelope>`, xmlEscape(b.cfg.DeviceName), xmlEscape(b.cfg.SerialNumber()))
}

func (b *Builder) buildServices() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
<soap:Body>
<tds:GetServicesResponse xmlns:tds="http://www.onvif.org/ver10/device/wsdl">
<tds:Service>
<tds:Namespace>http://www.onvif.org/ver10/device/wsdl</tds:Namespace>
<tds:XAddr>%s</tds:XAddr>
<tds:Version>
<tt:Major xmlns:tt="http://www.onvif.org/ver10/schema">2</tt:Major>
<tt:Minor xmlns:tt="http://www.onvif.org/ver10/schema">60</tt:Minor>
</tds:Version>
</tds:Service>
<tds:Service>
<tds:Namespace>http://www.onvif.org/ver10/media/wsdl</tds:Namespace>
<tds:XAddr>%s</tds:XAddr>
<tds:Version>
<tt:Major xmlns:tt="http://www.onvif.org/ver10/schema">2</tt:Major>
<tt:Minor xmlns:tt="http://www.onvif.org/ver10/schema">60</tt:Minor>
</tds:Version>
</tds:Service>
</tds:GetServicesResponse>
</soap:Body>
</soap:Envelope>`, xmlEscape(b.cfg.DeviceServiceURL()), xmlEscape(b.cfg.MediaServiceURL()))
}

func (b *Builder) buildSystemDateAndTime() string {
	now := b.now().UTC()
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
<soap:Body>
<tds:GetSystemDateAndTimeResponse xmlns:tds="http://www.onvif.org/ver10/device/wsdl">
<tds:SystemDateAndTime>
<tt:DateTimeType xmlns:tt="http://www.onvif.org/ver10/schema">NTP</tt:DateTimeType>
<tt:DaylightSavings xmlns:tt="http://www.onvif.org/ver10/schema">false</tt:DaylightSavings>
<tt:TimeZone xmlns:tt="http://www.onvif.org/ver10/schema">
<tt:TZ>UTC</tt:TZ>
</tt:TimeZone>
<tt:UTCDateTime xmlns:tt="http://www.onvif.org/ver10/schema">
<tt:Time>
<tt:Hour>%d</tt:Hour>
<tt:Minute>%d</tt:Minute>
<tt:Second>%d</tt:Second>
</tt:Time>
<tt:Date>
<tt:Year>%d</tt:Year>
<tt:Month>%d</tt:Month>
<tt:Day>%d</tt:Day>
</tt:Date>
</tt:UTCDateTime>
</tds:SystemDateAndTime>
</tds:GetSystemDateAndTimeResponse>
</soap:Body>
</soap:Envelope>`, now.Hour(), now.Minute(), now.Second(), now.Year(), int(now.Month()), now.Day())
}
