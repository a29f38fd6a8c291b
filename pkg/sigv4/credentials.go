package sigv4

import (
	"errors"
	"log/slog"
)

// ErrMissingCredentials is returned by Credentials.Validate.
var ErrMissingCredentials = errors.New("sigv4: access key id and secret access key are required")

// Credentials is an AWS access key pair.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// Validate reports whether both halves of the key pair are set.
func (c Credentials) Validate() error {
	if c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return ErrMissingCredentials
	}
	return nil
}

func (c Credentials) String() string {
	return "sigv4.Credentials{AccessKeyID:" + c.AccessKeyID + " SecretAccessKey:" + redacted + "}"
}

// LogValue keeps the secret out of structured logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("access_key_id", c.AccessKeyID),
		slog.String("secret_access_key", redacted),
	)
}
