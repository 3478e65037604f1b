package onvifcam

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/gofrs/uuid"
	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"golang.org/x/net/ipv4"
)

const deviceType = "NetworkVideoTransmitter"

// Responder answers WS-Discovery probes on the multicast group and
// announces the device with Hello and Bye messages.
type Responder struct {
	cfg  *DeviceConfig
	log  zerolog.Logger
	conn *net.UDPConn

	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

// NewResponder creates a discovery responder for the device. It does not
// touch the network until Start is called.
func NewResponder(cfg *DeviceConfig, log zerolog.Logger) *Responder {
	return &Responder{
		cfg: cfg,
		log: log.With().Str("component", "discovery").Logger(),
	}
}

// Start binds the multicast socket, announces the device with a Hello, and
// begins answering probes. The responder runs until the context is
// cancelled or Stop is called. A bind or join failure is returned to the
// caller and leaves no goroutine behind.
func (r *Responder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return errors.New("discovery responder already started")
	}

	group, err := net.ResolveUDPAddr("udp4", DefaultMulticastAddr)
	if err != nil {
		return errors.Annotate(err, "resolving multicast group")
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: group.Port})
	if err != nil {
		return errors.Annotatef(err, "binding udp port %d", group.Port)
	}

	pc := ipv4.NewPacketConn(conn)
	iface, err := interfaceForAddress(r.cfg.Address)
	if err != nil {
		conn.Close()
		return errors.Trace(err)
	}
	if err := pc.JoinGroup(iface, &net.UDPAddr{IP: group.IP}); err != nil {
		conn.Close()
		return errors.Annotatef(err, "joining multicast group %s", group.IP)
	}

	r.conn = conn
	r.started = true
	r.log.Info().
		Str("group", DefaultMulticastAddr).
		Str("interface", iface.Name).
		Msg("discovery responder listening")

	r.announce(group, helloMessage(r.cfg, newMessageID()), "hello")

	r.wg.Add(1)
	go r.run(ctx, group)
	return nil
}

// Stop announces departure with a best effort Bye and closes the socket.
func (r *Responder) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	conn := r.conn
	r.mu.Unlock()

	group, err := net.ResolveUDPAddr("udp4", DefaultMulticastAddr)
	if err == nil {
		r.announce(group, byeMessage(r.cfg, newMessageID()), "bye")
	}
	conn.Close()
	r.wg.Wait()
}

func (r *Responder) run(ctx context.Context, group *net.UDPAddr) {
	defer r.wg.Done()

	hello := time.NewTicker(HelloInterval)
	defer hello.Stop()

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hello.C:
			r.announce(group, helloMessage(r.cfg, newMessageID()), "hello")
		default:
		}

		r.conn.SetReadDeadline(time.Now().Add(time.Second))
		n, src, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			// Closed socket on shutdown, or an unrecoverable read error.
			if ctx.Err() == nil {
				r.log.Debug().Err(err).Msg("discovery read ended")
			}
			return
		}
		r.handleDatagram(buf[:n], src)
	}
}

func (r *Responder) handleDatagram(data []byte, src *net.UDPAddr) {
	msg, err := parseDiscoveryMessage(data)
	if err != nil {
		// Anything can arrive on the multicast group. Drop it quietly.
		r.log.Debug().Err(err).Str("src", src.String()).Msg("dropping datagram")
		return
	}
	if msg.Kind != KindProbe {
		return
	}
	if !r.matchesProbe(msg) {
		r.log.Debug().
			Strs("types", msg.Types).
			Strs("scopes", msg.Scopes).
			Str("src", src.String()).
			Msg("probe does not match device")
		return
	}

	reply := probeMatchMessage(r.cfg, newMessageID(), msg.MessageID)
	if _, err := r.conn.WriteToUDP([]byte(reply), src); err != nil {
		r.log.Warn().Err(err).Str("src", src.String()).Msg("failed to send probe match")
		return
	}
	r.log.Info().Str("src", src.String()).Str("relates_to", msg.MessageID).Msg("sent probe match")
}

// matchesProbe applies the WS-Discovery matching rules. An empty Types list
// matches everything; otherwise the probe must name NetworkVideoTransmitter,
// compared by local name so any prefix binding matches. Every probed scope
// must be a prefix of one of the device scopes.
func (r *Responder) matchesProbe(msg *DiscoveryMessage) bool {
	if len(msg.Types) > 0 {
		found := false
		for _, t := range msg.Types {
			if localName(t) == deviceType {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	deviceScopes := r.cfg.Scopes()
	for _, probed := range msg.Scopes {
		matched := false
		for _, s := range deviceScopes {
			if strings.HasPrefix(s, probed) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (r *Responder) announce(group *net.UDPAddr, message, kind string) {
	if _, err := r.conn.WriteToUDP([]byte(message), group); err != nil {
		r.log.Warn().Err(err).Str("kind", kind).Msg("failed to send announcement")
		return
	}
	r.log.Info().Str("kind", kind).Msg("sent announcement")
}

// parseDiscoveryMessage decodes a WS-Discovery datagram. The header Action
// determines the kind; Probe bodies contribute the Types and Scopes filters.
func parseDiscoveryMessage(data []byte) (*DiscoveryMessage, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, errors.Annotate(err, "parsing datagram")
	}
	root := doc.Root()
	if root == nil || root.Tag != "Envelope" {
		return nil, errors.NotValidf("datagram root")
	}

	msg := &DiscoveryMessage{Kind: KindUnknown}
	header := childElement(root, "Header")
	if header != nil {
		switch action := childText(header, "Action"); {
		case strings.HasSuffix(action, "/Probe"):
			msg.Kind = KindProbe
		case strings.HasSuffix(action, "/ProbeMatches"):
			msg.Kind = KindProbeMatch
		case strings.HasSuffix(action, "/Hello"):
			msg.Kind = KindHello
		case strings.HasSuffix(action, "/Bye"):
			msg.Kind = KindBye
		}
		msg.MessageID = strings.TrimSpace(childText(header, "MessageID"))
	}

	body := childElement(root, "Body")
	if body == nil {
		return nil, errors.NotValidf("datagram without body")
	}
	if probe := childElement(body, "Probe"); probe != nil {
		if msg.Kind == KindUnknown {
			msg.Kind = KindProbe
		}
		msg.Types = strings.Fields(childText(probe, "Types"))
		msg.Scopes = strings.Fields(childText(probe, "Scopes"))
	}
	return msg, nil
}

// localName strips any namespace prefix from a qualified name.
func localName(qname string) string {
	if i := strings.LastIndex(qname, ":"); i >= 0 {
		return qname[i+1:]
	}
	return qname
}

// interfaceForAddress finds the network interface carrying the given IP.
func interfaceForAddress(address string) (*net.Interface, error) {
	want := net.ParseIP(address)
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, errors.Annotate(err, "listing interfaces")
	}
	for i := range ifaces {
		addrs, err := ifaces[i].Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.Equal(want) {
				return &ifaces[i], nil
			}
		}
	}
	return nil, errors.NotFoundf("interface with address %s", address)
}

func newMessageID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return id.String()
}

func helloMessage(cfg *DeviceConfig, messageID string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:wsa="%s" xmlns:wsd="%s">
<soap:Header>
<wsa:Action>%s/Hello</wsa:Action>
<wsa:MessageID>urn:uuid:%s</wsa:MessageID>
<wsa:To>urn:schemas-xmlsoap-org:ws:2005:04:discovery</wsa:To>
</soap:Header>
<soap:Body>
<wsd:Hello>
<wsa:EndpointReference>
<wsa:Address>%s</wsa:Address>
</wsa:EndpointReference>
<wsd:Types>tdn:%s</wsd:Types>
<wsd:Scopes>%s</wsd:Scopes>
<wsd:XAddrs>%s</wsd:XAddrs>
<wsd:MetadataVersion>1</wsd:MetadataVersion>
</wsd:Hello>
</soap:Body>
</soap:Envelope>`, nsAddressing, nsDiscovery, nsDiscovery, messageID,
		cfg.EndpointReference(), deviceType,
		xmlEscape(strings.Join(cfg.Scopes(), " ")), xmlEscape(cfg.DeviceServiceURL()))
}

func byeMessage(cfg *DeviceConfig, messageID string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:wsa="%s" xmlns:wsd="%s">
<soap:Header>
<wsa:Action>%s/Bye</wsa:Action>
<wsa:MessageID>urn:uuid:%s</wsa:MessageID>
<wsa:To>urn:schemas-xmlsoap-org:ws:2005:04:discovery</wsa:To>
</soap:Header>
<soap:Body>
<wsd:Bye>
<wsa:EndpointReference>
<wsa:Address>%s</wsa:Address>
</wsa:EndpointReference>
<wsd:Types>tdn:%s</wsd:Types>
<wsd:Scopes>%s</wsd:Scopes>
<wsd:XAddrs>%s</wsd:XAddrs>
<wsd:MetadataVersion>1</wsd:MetadataVersion>
</wsd:Bye>
</soap:Body>
</soap:Envelope>`, nsAddressing, nsDiscovery, nsDiscovery, messageID,
		cfg.EndpointReference(), deviceType,
		xmlEscape(strings.Join(cfg.Scopes(), " ")), xmlEscape(cfg.DeviceServiceURL()))
}

func probeMatchMessage(cfg *DeviceConfig, messageID, relatesTo string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:wsa="%s" xmlns:wsd="%s">
<soap:Header>
<wsa:Action>%s/ProbeMatches</wsa:Action>
<wsa:MessageID>urn:uuid:%s</wsa:MessageID>
<wsa:RelatesTo>%s</wsa:RelatesTo>
<wsa:To>http://www.w3.org/2005/08/addressing/anonymous</wsa:To>
</soap:Header>
<soap:Body>
<wsd:ProbeMatches>
<wsd:ProbeMatch>
<wsa:EndpointReference>
<wsa:Address>%s</wsa:Address>
</wsa:EndpointReference>
<wsd:Types>tdn:%s</wsd:Types>
<wsd:Scopes>%s</wsd:Scopes>
<wsd:XAddrs>%s</wsd:XAddrs>
<wsd:MetadataVersion>1</wsd:MetadataVersion>
</wsd:ProbeMatch>
</wsd:ProbeMatches>
</soap:Body>
</soap:Envelope>`, nsAddressing, nsDiscovery, nsDiscovery, messageID, xmlEscape(relatesTo),
		cfg.EndpointReference(), deviceType,
		xmlEscape(strings.Join(cfg.Scopes(), " ")), xmlEscape(cfg.DeviceServiceURL()))
}
