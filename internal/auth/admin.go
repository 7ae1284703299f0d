package auth

// AdminGate authorizes requests to the admin surface. An empty hash means
// the surface is disabled: every request is rejected after a dummy hash to
// keep timing uniform.
type AdminGate struct {
	keyHash string
}

func NewAdminGate(keyHash string) *AdminGate {
	return &AdminGate{keyHash: keyHash}
}

// Enabled reports whether an admin key hash is configured.
func (g *AdminGate) Enabled() bool {
	return g.keyHash != ""
}

// Authorize checks a presented admin key.
func (g *AdminGate) Authorize(key string) bool {
	if g.keyHash == "" || key == "" {
		dummyVerify()
		return false
	}
	ok, err := VerifyAdminKey(key, g.keyHash)
	return err == nil && ok
}
