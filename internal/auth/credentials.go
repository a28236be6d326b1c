package auth

import (
	"net/http"
	"strings"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "

	// TokenParam is the handshake field carried on the upgrade request.
	TokenParam  = "token"
	TokenCookie = "token"
)

// CredentialSource tells where a token was found.
type CredentialSource string

const (
	SourceNone      CredentialSource = ""
	SourceHandshake CredentialSource = "handshake"
	SourceCookie    CredentialSource = "cookie"
	SourceBearer    CredentialSource = "bearer"
)

// Resolver turns a raw credential into an identity.
type Resolver interface {
	Resolve(token string) (Identity, error)
}

// TokenFromRequest extracts a credential in fixed precedence order:
// handshake field, then cookie, then bearer header. First match wins.
func TokenFromRequest(r *http.Request) (string, CredentialSource) {
	if tok := strings.TrimSpace(r.URL.Query().Get(TokenParam)); tok != "" {
		return tok, SourceHandshake
	}
	if ck, err := r.Cookie(TokenCookie); err == nil {
		if tok := strings.TrimSpace(ck.Value); tok != "" {
			return tok, SourceCookie
		}
	}
	raw := strings.TrimSpace(r.Header.Get(authorizationHeader))
	if strings.HasPrefix(raw, bearerPrefix) {
		if tok := strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix)); tok != "" {
			return tok, SourceBearer
		}
	}
	return "", SourceNone
}

// IdentityFromRequest resolves the request credential. Missing or invalid
// credentials yield the anonymous identity together with the reason.
func IdentityFromRequest(r *http.Request, res Resolver) (Identity, CredentialSource, error) {
	tok, src := TokenFromRequest(r)
	if src == SourceNone {
		return Identity{}, src, ErrMissingToken
	}
	id, err := res.Resolve(tok)
	if err != nil {
		return Identity{}, src, err
	}
	return id, src, nil
}
