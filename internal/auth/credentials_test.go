package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubResolver map[string]Identity

func (s stubResolver) Resolve(tok string) (Identity, error) {
	if id, ok := s[tok]; ok {
		return id, nil
	}
	return Identity{}, ErrInvalidToken
}

func TestTokenFromRequest_Precedence(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		cookie  string
		bearer  string
		wantTok string
		wantSrc CredentialSource
	}{
		{name: "none", wantSrc: SourceNone},
		{name: "bearer only", bearer: "b", wantTok: "b", wantSrc: SourceBearer},
		{name: "cookie beats bearer", cookie: "c", bearer: "b", wantTok: "c", wantSrc: SourceCookie},
		{name: "handshake beats all", query: "h", cookie: "c", bearer: "b", wantTok: "h", wantSrc: SourceHandshake},
		{name: "blank handshake falls through", query: "", cookie: "c", wantTok: "c", wantSrc: SourceCookie},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/ws"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			r := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: TokenCookie, Value: tt.cookie})
			}
			if tt.bearer != "" {
				r.Header.Set("Authorization", "Bearer "+tt.bearer)
			}

			tok, src := TokenFromRequest(r)
			if tok != tt.wantTok || src != tt.wantSrc {
				t.Fatalf("got (%q, %q), want (%q, %q)", tok, src, tt.wantTok, tt.wantSrc)
			}
		})
	}
}

func TestIdentityFromRequest_FirstCredentialWinsEvenIfInvalid(t *testing.T) {
	res := stubResolver{"good": {ID: "u1", Role: "patient"}}

	r := httptest.NewRequest(http.MethodGet, "/ws?token=bad", nil)
	r.Header.Set("Authorization", "Bearer good")

	id, src, err := IdentityFromRequest(r, res)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if src != SourceHandshake || !id.Anonymous() {
		t.Fatalf("expected anonymous identity from handshake, got %+v %q", id, src)
	}
}

func TestIdentityFromRequest_Resolved(t *testing.T) {
	res := stubResolver{"good": {ID: "u1", Role: "patient"}}
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "good"})

	id, src, err := IdentityFromRequest(r, res)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id.ID != "u1" || src != SourceCookie {
		t.Fatalf("unexpected identity %+v from %q", id, src)
	}
}
