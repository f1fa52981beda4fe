package config

const redacted = "******"

// Secret holds a credential. Formatting it with fmt or a logger prints a
// placeholder; Reveal returns the real value.
type Secret string

// String returns the placeholder, even for an empty credential.
func (s Secret) String() string { return redacted }

func (s Secret) GoString() string { return s.String() }

// MarshalText keeps the value out of JSON and YAML output.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Reveal returns the raw credential.
func (s Secret) Reveal() string { return string(s) }
