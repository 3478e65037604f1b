package onvifcam

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probeDatagram(messageID, types, scopes string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:wsa="%s" xmlns:wsd="%s" xmlns:tdn="http://www.onvif.org/ver10/network/wsdl">
<soap:Header>
<wsa:Action>%s/Probe</wsa:Action>
<wsa:MessageID>%s</wsa:MessageID>
<wsa:To>urn:schemas-xmlsoap-org:ws:2005:04:discovery</wsa:To>
</soap:Header>
<soap:Body>
<wsd:Probe>
<wsd:Types>%s</wsd:Types>
<wsd:Scopes>%s</wsd:Scopes>
</wsd:Probe>
</soap:Body>
</soap:Envelope>`, nsAddressing, nsDiscovery, nsDiscovery, messageID, types, scopes))
}

func testResponder(t *testing.T) *Responder {
	t.Helper()
	return NewResponder(testConfig(t), zerolog.Nop())
}

func TestParseDiscoveryProbe(t *testing.T) {
	msg, err := parseDiscoveryMessage(probeDatagram(
		"urn:uuid:1234", "tdn:NetworkVideoTransmitter", ""))
	require.NoError(t, err)
	assert.Equal(t, KindProbe, msg.Kind)
	assert.Equal(t, "urn:uuid:1234", msg.MessageID)
	assert.Equal(t, []string{"tdn:NetworkVideoTransmitter"}, msg.Types)
	assert.Empty(t, msg.Scopes)
}

func TestParseDiscoveryMalformed(t *testing.T) {
	for name, data := range map[string]string{
		"garbage":    "\x00\x01\x02 not xml",
		"wrong root": "<Hello/>",
		"no body":    `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope"><soap:Header/></soap:Envelope>`,
	} {
		_, err := parseDiscoveryMessage([]byte(data))
		assert.Error(t, err, name)
	}
}

func TestParseDiscoveryOtherKinds(t *testing.T) {
	hello := []byte(`<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope">
<s:Header><a:Action xmlns:a="x">` + nsDiscovery + `/Hello</a:Action></s:Header>
<s:Body><Hello/></s:Body>
</s:Envelope>`)
	msg, err := parseDiscoveryMessage(hello)
	require.NoError(t, err)
	assert.Equal(t, KindHello, msg.Kind)
}

func TestMatchesProbeTypes(t *testing.T) {
	r := testResponder(t)

	match := func(types, scopes string) bool {
		msg, err := parseDiscoveryMessage(probeDatagram("urn:uuid:1", types, scopes))
		require.NoError(t, err)
		return r.matchesProbe(msg)
	}

	assert.True(t, match("", ""), "empty filter matches everything")
	assert.True(t, match("tdn:NetworkVideoTransmitter", ""))
	assert.True(t, match("dn:NetworkVideoTransmitter", ""), "any prefix binding matches")
	assert.True(t, match("tdn:NetworkVideoTransmitter wsdp:Device", ""), "one matching type is enough")
	assert.False(t, match("wsdp:PrinterService", ""))
}

func TestMatchesProbeScopes(t *testing.T) {
	r := testResponder(t)

	match := func(scopes string) bool {
		msg, err := parseDiscoveryMessage(probeDatagram("urn:uuid:1", "", scopes))
		require.NoError(t, err)
		return r.matchesProbe(msg)
	}

	assert.True(t, match("onvif://www.onvif.org/Profile/Streaming"))
	assert.True(t, match("onvif://www.onvif.org/name"), "prefix of a device scope")
	assert.True(t, match("onvif://www.onvif.org/Profile/Streaming onvif://www.onvif.org/name/TestCam"))
	assert.False(t, match("onvif://www.onvif.org/Profile/T"), "not a prefix of any device scope")
	assert.False(t, match("onvif://www.onvif.org/hardware/other"))
}

func TestProbeMatchMessage(t *testing.T) {
	cfg := testConfig(t)
	reply := probeMatchMessage(cfg, "abc-123", "urn:uuid:the-probe-id")

	assert.Contains(t, reply, "<wsa:RelatesTo>urn:uuid:the-probe-id</wsa:RelatesTo>")
	assert.Contains(t, reply, "<wsa:MessageID>urn:uuid:abc-123</wsa:MessageID>")
	assert.Contains(t, reply, "<wsd:Types>tdn:NetworkVideoTransmitter</wsd:Types>")
	assert.Contains(t, reply, "<wsd:XAddrs>http://127.0.0.1:8080/onvif/device_service</wsd:XAddrs>")
	assert.Contains(t, reply, "<wsd:MetadataVersion>1</wsd:MetadataVersion>")
	assert.Contains(t, reply, cfg.EndpointReference())

	// The reply itself must round-trip through the parser.
	msg, err := parseDiscoveryMessage([]byte(reply))
	require.NoError(t, err)
	assert.Equal(t, KindProbeMatch, msg.Kind)
}

func TestHelloAndByeMessages(t *testing.T) {
	cfg := testConfig(t)

	hello := helloMessage(cfg, "id-1")
	assert.Contains(t, hello, nsDiscovery+"/Hello")
	assert.Contains(t, hello, "onvif://www.onvif.org/Profile/Streaming onvif://www.onvif.org/name/TestCam")
	msg, err := parseDiscoveryMessage([]byte(hello))
	require.NoError(t, err)
	assert.Equal(t, KindHello, msg.Kind)

	bye := byeMessage(cfg, "id-2")
	assert.Contains(t, bye, nsDiscovery+"/Bye")
	msg, err = parseDiscoveryMessage([]byte(bye))
	require.NoError(t, err)
	assert.Equal(t, KindBye, msg.Kind)
}

func TestLocalName(t *testing.T) {
	assert.Equal(t, "NetworkVideoTransmitter", localName("tdn:NetworkVideoTransmitter"))
	assert.Equal(t, "NetworkVideoTransmitter", localName("NetworkVideoTransmitter"))
}
