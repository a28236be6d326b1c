package auth

// Identity is an authenticated user as resolved from a credential.
// The zero value is the anonymous identity.
type Identity struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

func (i Identity) Anonymous() bool { return i.ID == "" }

// DisplayName falls back to fallback when the token carries no name.
func (i Identity) DisplayName(fallback string) string {
	if i.Name != "" {
		return i.Name
	}
	return fallback
}
