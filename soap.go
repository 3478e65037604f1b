package onvifcam

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/juju/errors"
)

// SoapEnvelope is one parsed request envelope: the resolved operation and,
// when present, the WS-Security token carried in the header.
type SoapEnvelope struct {
	Operation     SoapOperation
	OperationName string
	Security      *UsernameToken
}

// ParseEnvelope parses a SOAP request body and resolves the requested
// operation from the Body's first child element. Matching is on local names
// only, so any namespace prefix convention a client uses is accepted.
func ParseEnvelope(body []byte) (*SoapEnvelope, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, errors.Annotate(err, "unparsable XML")
	}

	root := doc.Root()
	if root == nil || root.Tag != "Envelope" {
		return nil, errors.New("missing SOAP Envelope")
	}

	env := &SoapEnvelope{}
	var bodyEl *etree.Element
	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "Body":
			bodyEl = child
		case "Header":
			if sec := childElement(child, "Security"); sec != nil {
				env.Security = parseUsernameToken(sec)
			}
		}
	}
	if bodyEl == nil {
		return nil, errors.New("missing SOAP Body")
	}

	children := bodyEl.ChildElements()
	if len(children) == 0 {
		return nil, errors.New("empty SOAP Body")
	}

	env.OperationName = children[0].Tag
	env.Operation = operations[env.OperationName]
	return env, nil
}

// childElement returns the first direct child with the given local name,
// ignoring namespace prefixes.
func childElement(parent *etree.Element, tag string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

// childText returns the trimmed text of the first direct child with the
// given local name, or "" when absent.
func childText(parent *etree.Element, tag string) string {
	if el := childElement(parent, tag); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// xmlEscape escapes XML-significant characters in values interpolated into
// response templates.
func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}

// soapFault renders an ONVIF SOAP Fault with the given ter: subcode and
// human-readable reason. Reasons stay generic; internal state never appears
// in a response body.
func soapFault(subcode, reason string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://www.w3.org/2003/05/soap-envelope" xmlns:ter="http://www.onvif.org/ver10/error">
<SOAP-ENV:Body>
<SOAP-ENV:Fault>
<SOAP-ENV:Code>
<SOAP-ENV:Value>SOAP-ENV:Sender</SOAP-ENV:Value>
<SOAP-ENV:Subcode>
<SOAP-ENV:Value>ter:%s</SOAP-ENV:Value>
</SOAP-ENV:Subcode>
</SOAP-ENV:Code>
<SOAP-ENV:Reason>
<SOAP-ENV:Text xml:lang="en">%s</SOAP-ENV:Text>
</SOAP-ENV:Reason>
</SOAP-ENV:Fault>
</SOAP-ENV:Body>
</SOAP-ENV:Envelope>`, subcode, xmlEscape(reason))
}

func faultActionNotSupported(detail string) string {
	return soapFault("ActionNotSupported", detail)
}

func faultNotAuthorized() string {
	return soapFault("NotAuthorized", "The action requested requires authorization")
}

func faultWellFormed() string {
	return soapFault("WellFormed", "The request could not be parsed as a SOAP envelope")
}
