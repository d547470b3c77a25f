package market

// Identity is the static identity of an exchange adapter.
type Identity struct {
	Name        string
	Implemented bool
}

// Credentials authenticate private API calls. They are owned by configuration
// and only borrowed by signers; String never prints the values.
type Credentials struct {
	APIKey    string
	APISecret string
}

// Complete reports whether both the key and the secret are set.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != ""
}

func (c Credentials) String() string {
	if c.APIKey == "" {
		return "credentials{unset}"
	}
	return "credentials{redacted}"
}

// GoString keeps %#v from leaking the secret.
func (c Credentials) GoString() string {
	return c.String()
}
