package onvifcam

import (
	"crypto/sha1"
	"encoding/base64"

	"github.com/beevik/etree"
)

// UsernameToken is a WS-Security UsernameToken lifted out of the SOAP header.
// The Password carries either plaintext or a digest depending on PasswordType.
type UsernameToken struct {
	Username     string
	Password     string
	PasswordType string
	Nonce        string // base64
	Created      string // ISO-8601
}

// parseUsernameToken extracts the UsernameToken from a Security header
// element. It tolerates any namespace prefixes; field validation is the
// authentication engine's job. Returns nil when no token is present.
func parseUsernameToken(security *etree.Element) *UsernameToken {
	tokenEl := childElement(security, "UsernameToken")
	if tokenEl == nil {
		return nil
	}

	token := &UsernameToken{
		Username: childText(tokenEl, "Username"),
		Nonce:    childText(tokenEl, "Nonce"),
		Created:  childText(tokenEl, "Created"),
	}
	if pw := childElement(tokenEl, "Password"); pw != nil {
		token.Password = pw.Text()
		token.PasswordType = pw.SelectAttrValue("Type", "")
	}
	return token
}

// passwordDigest computes the WS-Security UsernameToken proof:
// Base64(SHA1(nonce + created + password)).
func passwordDigest(nonce []byte, created, password string) string {
	h := sha1.New()
	h.Write(nonce)
	h.Write([]byte(created))
	h.Write([]byte(password))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
