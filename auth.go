package onvifcam

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Engine validates request credentials against the configured Credential.
// Three schemes are tried in fixed precedence: a WS-Security UsernameToken in
// the SOAP header, then an HTTP Authorization header as Digest, then as
// Basic. The nonce store and replay cache are injected so their lifecycle is
// owned by the caller.
type Engine struct {
	cred   Credential
	realm  string
	nonces *NonceStore
	replay *ReplayCache
	log    zerolog.Logger
	now    func() time.Time
}

// NewEngine creates the authentication engine for the configured credential.
func NewEngine(cfg *DeviceConfig, nonces *NonceStore, replay *ReplayCache, log zerolog.Logger) *Engine {
	return &Engine{
		cred:   cfg.Credential(),
		realm:  AuthRealm,
		nonces: nonces,
		replay: replay,
		log:    log,
		now:    time.Now,
	}
}

// Authenticate validates whatever credential material the request carries.
// The env may be nil when the SOAP body never parsed.
func (e *Engine) Authenticate(r *http.Request, env *SoapEnvelope) AuthResult {
	if env != nil && env.Security != nil {
		return e.validateUsernameToken(env.Security)
	}

	authz := r.Header.Get("Authorization")
	switch {
	case authz == "":
		return failure(ReasonMissingCredentials)
	case strings.HasPrefix(authz, "Digest "):
		return e.validateDigest(r, strings.TrimPrefix(authz, "Digest "))
	case strings.HasPrefix(authz, "Basic "):
		return e.validateBasic(strings.TrimPrefix(authz, "Basic "))
	}
	return failure(ReasonMalformedHeader)
}

// Challenge returns the WWW-Authenticate header values for a 401 response:
// a Basic realm and a Digest challenge carrying a freshly issued nonce.
func (e *Engine) Challenge(stale bool) []string {
	ch := e.nonces.Issue()
	digest := fmt.Sprintf(`Digest realm="%s", qop="auth", nonce="%s", opaque="%s", algorithm=MD5`,
		e.realm, ch.Nonce, ch.Opaque)
	if stale {
		digest += ", stale=true"
	}
	return []string{
		fmt.Sprintf(`Basic realm="%s"`, e.realm),
		digest,
	}
}

func (e *Engine) validateBasic(encoded string) AuthResult {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return failure(ReasonMalformedHeader)
	}
	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return failure(ReasonMalformedHeader)
	}

	userOK := equalConstantTime(user, e.cred.Username)
	passOK := equalConstantTime(pass, e.cred.Password)
	if !userOK || !passOK {
		return failure(ReasonInvalidCredentials)
	}
	return AuthResult{Authenticated: true}
}

func (e *Engine) validateDigest(r *http.Request, header string) AuthResult {
	params := parseDigestParams(header)

	nonce := params["nonce"]
	uri := params["uri"]
	response := params["response"]
	if params["username"] == "" || nonce == "" || uri == "" || response == "" {
		return failure(ReasonMalformedHeader)
	}
	if alg := params["algorithm"]; alg != "" && !strings.EqualFold(alg, "MD5") {
		return failure(ReasonMalformedHeader)
	}

	if _, ok := e.nonces.Lookup(nonce); !ok {
		return failure(ReasonStaleNonce)
	}
	if params["realm"] != e.realm {
		return failure(ReasonInvalidCredentials)
	}
	if !equalConstantTime(params["username"], e.cred.Username) {
		return failure(ReasonInvalidCredentials)
	}
	// The digest-uri must name the resource actually being requested.
	if uri != r.URL.RequestURI() {
		return failure(ReasonInvalidCredentials)
	}

	// response = MD5(HA1:nonce[:nc:cnonce:qop]:HA2) with
	// HA1 = MD5(user:realm:pass) and HA2 = MD5(method:uri).
	ha1 := md5hex(e.cred.Username + ":" + e.realm + ":" + e.cred.Password)
	ha2 := md5hex(r.Method + ":" + uri)

	var expected string
	if qop := params["qop"]; qop != "" {
		if qop != "auth" || params["nc"] == "" || params["cnonce"] == "" {
			return failure(ReasonMalformedHeader)
		}
		expected = md5hex(strings.Join([]string{ha1, nonce, params["nc"], params["cnonce"], qop, ha2}, ":"))
	} else {
		expected = md5hex(ha1 + ":" + nonce + ":" + ha2)
	}

	if !equalConstantTime(response, expected) {
		return failure(ReasonInvalidCredentials)
	}

	// Nonces are single-use. Consume only after the proof checks out, and
	// let the atomic removal decide the winner when requests race.
	if !e.nonces.Consume(nonce) {
		return failure(ReasonStaleNonce)
	}
	return AuthResult{Authenticated: true}
}

func (e *Engine) validateUsernameToken(token *UsernameToken) AuthResult {
	if token.Username == "" || token.Password == "" {
		return failure(ReasonMalformedHeader)
	}
	if !equalConstantTime(token.Username, e.cred.Username) {
		return failure(ReasonInvalidCredentials)
	}

	if token.PasswordType != nsPasswordDigest {
		// PasswordText: direct comparison. The Created bound still applies
		// when the client sends one.
		if token.Created != "" {
			if reason, ok := e.checkCreated(token.Created); !ok {
				return failure(reason)
			}
		}
		if !equalConstantTime(token.Password, e.cred.Password) {
			return failure(ReasonInvalidCredentials)
		}
		return AuthResult{Authenticated: true}
	}

	if token.Nonce == "" || token.Created == "" {
		return failure(ReasonMalformedHeader)
	}
	if reason, ok := e.checkCreated(token.Created); !ok {
		return failure(reason)
	}

	nonceBytes, err := base64.StdEncoding.DecodeString(token.Nonce)
	if err != nil {
		return failure(ReasonMalformedHeader)
	}

	expected := passwordDigest(nonceBytes, token.Created, e.cred.Password)
	if !equalConstantTime(token.Password, expected) {
		return failure(ReasonInvalidCredentials)
	}

	if !e.replay.Observe(token.Nonce, token.Created) {
		e.log.Warn().Str("user", token.Username).Msg("ws-security token replayed")
		return failure(ReasonStaleNonce)
	}
	return AuthResult{Authenticated: true}
}

// checkCreated bounds the token timestamp to the freshness window around
// server time, rejecting stale and future-dated tokens alike.
func (e *Engine) checkCreated(created string) (AuthReason, bool) {
	ts, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return ReasonMalformedHeader, false
	}
	drift := e.now().Sub(ts)
	if drift > FreshnessWindow || drift < -FreshnessWindow {
		return ReasonExpiredTimestamp, false
	}
	return ReasonNone, true
}

// parseDigestParams splits an Authorization: Digest parameter list into a
// key/value map, unquoting values.
func parseDigestParams(header string) map[string]string {
	params := make(map[string]string)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		params[strings.ToLower(key)] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	return params
}

func failure(reason AuthReason) AuthResult {
	return AuthResult{Reason: reason}
}

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// equalConstantTime compares two strings without leaking where they diverge.
// Hashing first keeps the comparison length-independent.
func equalConstantTime(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
