package config

import (
	"strings"

	"github.com/awnumar/memguard"
)

// Secret keeps a credential encrypted in memory. The plaintext only exists
// in a locked buffer while Reveal copies it out.
type Secret struct {
	enclave *memguard.Enclave
}

// NewSecret seals value. An empty value gives an unset secret.
func NewSecret(value string) *Secret {
	if value == "" {
		return &Secret{}
	}
	// NewEnclave wipes the slice it is given
	return &Secret{enclave: memguard.NewEnclave([]byte(value))}
}

// IsSet reports whether the secret holds a value
func (s *Secret) IsSet() bool {
	return s != nil && s.enclave != nil
}

// Reveal returns the plaintext, or "" when the secret is unset
func (s *Secret) Reveal() (string, error) {
	if !s.IsSet() {
		return "", nil
	}
	buf, err := s.enclave.Open()
	if err != nil {
		return "", err
	}
	defer buf.Destroy()
	return strings.Clone(buf.String()), nil
}

// Destroy drops the sealed value
func (s *Secret) Destroy() {
	if s != nil {
		s.enclave = nil
	}
}

// String never prints the value
func (s *Secret) String() string {
	if !s.IsSet() {
		return "<unset>"
	}
	return "<redacted>"
}
