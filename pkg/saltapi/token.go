// pkg/saltapi/token.go

package saltapi

import "time"

// Token is the credential structure returned by the salt-api login call.
// Start and Expire are unix timestamps in seconds.
type Token struct {
	Token  string         `yaml:"token" json:"token" mapstructure:"token"`
	Start  float64        `yaml:"start" json:"start" mapstructure:"start"`
	Expire float64        `yaml:"expire" json:"expire" mapstructure:"expire"`
	Extra  map[string]any `yaml:",inline" json:"-" mapstructure:",remain"`
}

// ValidAt reports whether now lies in [Start, Expire).
func (t *Token) ValidAt(now time.Time) bool {
	if t == nil {
		return false
	}
	ts := float64(now.UnixNano()) / float64(time.Second)
	return ts >= t.Start && ts < t.Expire
}

// Valid reports whether the token is valid at the current time.
func (t *Token) Valid() bool {
	return t.ValidAt(time.Now())
}

// ExpiresAt returns the expiry as a time.Time.
func (t *Token) ExpiresAt() time.Time {
	sec := int64(t.Expire)
	return time.Unix(sec, int64((t.Expire-float64(sec))*float64(time.Second)))
}

// User returns the backend-reported user name, if any.
func (t *Token) User() string {
	if u, ok := t.Extra["user"].(string); ok {
		return u
	}
	return ""
}

// TokenValid reports whether t is present and currently valid.
func TokenValid(t *Token) bool {
	return t.Valid()
}
