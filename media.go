package onvifcam

import "fmt"

func (b *Builder) buildProfiles() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
<soap:Body>
<trt:GetProfilesResponse xmlns:trt="http://www.onvif.org/ver10/media/wsdl">
<trt:Profiles token="MainProfile" fixed="true">
<tt:Name xmlns:tt="http://www.onvif.org/ver10/schema">%s</tt:Name>
<tt:VideoSourceConfiguration xmlns:tt="http://www.onvif.org/ver10/schema" token="VideoSourceConfig">
<tt:Name>VideoSourceConfig</tt:Name>
<tt:UseCount>1</tt:UseCount>
<tt:SourceToken>VideoSource_1</tt:SourceToken>
<tt:Bounds x="0" y="0" width="%d" height="%d"/>
</tt:VideoSourceConfiguration>
<tt:VideoEncoderConfiguration xmlns:tt="http://www.onvif.org/ver10/schema" token="VideoEncoderConfig">
<tt:Name>VideoEncoderConfig</tt:Name>
<tt:UseCount>1</tt:UseCount>
<tt:Encoding>H264</tt:Encoding>
<tt:Resolution>
<tt:Width>%d</tt:Width>
<tt:Height>%d</tt:Height>
</tt:Resolution>
<tt:Quality>5</tt:Quality>
<tt:RateControl>
<tt:FrameRateLimit>%d</tt:FrameRateLimit>
<tt:EncodingInterval>1</tt:EncodingInterval>
<tt:BitrateLimit>8000</tt:BitrateLimit>
</tt:RateControl>
<tt:H264>
<tt:GovLength>30</tt:GovLength>
<tt:H264Profile>Main</tt:H264Profile>
</tt:H264>
<tt:SessionTimeout>PT60S</tt:SessionTimeout>
</tt:VideoEncoderConfiguration>
<tt:AudioSourceConfiguration xmlns:tt="http://www.onvif.org/ver10/schema" token="AudioSourceConfig">
<tt:Name>AudioSourceConfig</tt:Name>
<tt:UseCount>1</tt:UseCount>
<tt:SourceToken>AudioSource_1</tt:SourceToken>
</tt:AudioSourceConfiguration>
<tt:AudioEncoderConfiguration xmlns:tt="http://www.onvif.org/ver10/schema" token="AudioEncoderConfig">
<tt:Name>AudioEncoderConfig</tt:Name>
<tt:UseCount>1</tt:UseCount>
<tt:Encoding>AAC</tt:Encoding>
<tt:Bitrate>64000</tt:Bitrate>
<tt:SampleRate>48000</tt:SampleRate>
<tt:SessionTimeout>PT60S</tt:SessionTimeout>
</tt:AudioEncoderConfiguration>
</trt:Profiles>
</trt:GetProfilesResponse>
</soap:Body>
</soap:Envelope>`, xmlEscape(b.cfg.DeviceName),
		MainResolution.Width, MainResolution.Height,
		MainResolution.Width, MainResolution.Height,
		MainFramerate)
}

func (b *Builder) buildStreamUri() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
<soap:Body>
<trt:GetStreamUriResponse xmlns:trt="http://www.onvif.org/ver10/media/wsdl">
<trt:MediaUri>
<tt:Uri xmlns:tt="http://www.onvif.org/ver10/schema">%s</tt:Uri>
<tt:InvalidAfterConnect xmlns:tt="http://www.onvif.org/ver10/schema">false</tt:InvalidAfterConnect>
<tt:InvalidAfterReboot xmlns:tt="http://www.onvif.org/ver10/schema">false</tt:InvalidAfterReboot>
<tt:Timeout xmlns:tt="http://www.onvif.org/ver10/schema">PT60S</tt:Timeout>
</trt:MediaUri>
</trt:GetStreamUriResponse>
</soap:Body>
</soap:Envelope>`, xmlEscape(b.cfg.StreamURL))
}

func (b *Builder) buildVideoSources() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
<soap:Body>
<trt:GetVideoSourcesResponse xmlns:trt="http://www.onvif.org/ver10/media/wsdl">
<trt:VideoSources token="VideoSource_1">
<tt:Framerate xmlns:tt="http://www.onvif.org/ver10/schema">%d</tt:Framerate>
<tt:Resolution xmlns:tt="http://www.onvif.org/ver10/schema">
<tt:Width>%d</tt:Width>
<tt:Height>%d</tt:Height>
</tt:Resolution>
</trt:VideoSources>
</trt:GetVideoSourcesResponse>
</soap:Body>
</soap:Envelope>`, MainFramerate, MainResolution.Width, MainResolution.Height)
}

func (b *Builder) buildServiceCapabilities() string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
<soap:Body>
<trt:GetServiceCapabilitiesResponse xmlns:trt="http://www.onvif.org/ver10/media/wsdl">
<trt:Capabilities>
<tt:ProfileCapabilities xmlns:tt="http://www.onvif.org/ver10/schema">
<tt:MaximumNumberOfProfiles>2</tt:MaximumNumberOfProfiles>
</tt:ProfileCapabilities>
<tt:StreamingCapabilities xmlns:tt="http://www.onvif.org/ver10/schema">
<tt:RTPMulticast>false</tt:RTPMulticast>
<tt:RTP_TCP>true</tt:RTP_TCP>
<tt:RTP_RTSP_TCP>true</tt:RTP_RTSP_TCP>
</tt:StreamingCapabilities>
</trt:Capabilities>
</trt:GetServiceCapabilitiesResponse>
</soap:Body>
</soap:Envelope>`
}

func (b *Builder) buildVideoSourceConfigurations() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
<soap:Body>
<trt:GetVideoSourceConfigurationsResponse xmlns:trt="http://www.onvif.org/ver10/media/wsdl">
<trt:Configurations token="VideoSourceConfig">
<tt:Name xmlns:tt="http://www.onvif.org/ver10/schema">VideoSourceConfig</tt:Name>
<tt:UseCount xmlns:tt="http://www.onvif.org/ver10/schema">1</tt:UseCount>
<tt:SourceToken xmlns:tt="http://www.onvif.org/ver10/schema">VideoSource_1</tt:SourceToken>
<tt:Bounds xmlns:tt="http://www.onvif.org/ver10/schema" x="0" y="0" width="%d" height="%d"/>
</trt:Configurations>
</trt:GetVideoSourceConfigurationsResponse>
</soap:Body>
</soap:Envelope>`, MainResolution.Width, MainResolution.Height)
}

func (b *Builder) buildVideoEncoderConfigurations() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
<soap:Body>
<trt:GetVideoEncoderConfigurationsResponse xmlns:trt="http://www.onvif.org/ver10/media/wsdl">
<trt:Configurations token="VideoEncoderConfig">
<tt:Name xmlns:tt="http://www.onvif.org/ver10/schema">VideoEncoderConfig</tt:Name>
<tt:UseCount xmlns:tt="http://www.onvif.org/ver10/schema">1</tt:UseCount>
<tt:Encoding xmlns:tt="http://www.onvif.org/ver10/schema">H264</tt:Encoding>
<tt:Resolution xmlns:tt="http://www.onvif.org/ver10/schema">
<tt:Width>%d</tt:Width>
<tt:Height>%d</tt:Height>
</tt:Resolution>
<tt:Quality xmlns:tt="http://www.onvif.org/ver10/schema">5</tt:Quality>
<tt:RateControl xmlns:tt="http://www.onvif.org/ver10/schema">
<tt:FrameRateLimit>%d</tt:FrameRateLimit>
<tt:EncodingInterval>1</tt:EncodingInterval>
<tt:BitrateLimit>8000</tt:BitrateLimit>
</tt:RateControl>
<tt:H264 xmlns:tt="http://www.onvif.org/ver10/schema">
<tt:GovLength>30</tt:GovLength>
<tt:H264Profile>Main</tt:H264Profile>
</tt:H264>
<tt:SessionTimeout xmlns:tt="http://www.onvif.org/ver10/schema">PT60S</tt:SessionTimeout>
</trt:Configurations>
</trt:GetVideoEncoderConfigurationsResponse>
</soap:Body>
</soap:Envelope>`, MainResolution.Width, MainResolution.Height, MainFramerate)
}
