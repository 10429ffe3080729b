package opensearch

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/poiesic/storefront/core"
)

// DefaultIndex is the index used for the flat document layout.
const DefaultIndex = "products"

var (
	// ErrNoAddress indicates the configuration names no cluster address.
	ErrNoAddress = errors.New("opensearch: no address configured")
)

// Config holds connection settings for an OpenSearch cluster.
type Config struct {
	// URI is the cluster endpoint. Credentials embedded as userinfo are
	// extracted and sent as basic auth.
	URI string
	// Username and Password override any credentials in URI.
	Username string
	Password string
	// Index is the product index name. Default: DefaultIndex.
	Index string
	// Variant selects the document layout. Default: core.SchemaFlat.
	Variant core.SchemaVariant
	// CACertFile is an optional PEM bundle used to verify the cluster.
	CACertFile string
	// Insecure disables certificate verification.
	Insecure bool
}

// resolve splits credentials out of the URI and fills defaults.
func (c Config) resolve() (address, username, password string, err error) {
	if c.URI == "" {
		return "", "", "", ErrNoAddress
	}
	u, err := url.Parse(c.URI)
	if err != nil {
		return "", "", "", fmt.Errorf("opensearch: invalid URI: %w", err)
	}
	if u.User != nil {
		username = u.User.Username()
		password, _ = u.User.Password()
		u.User = nil
	}
	if c.Username != "" {
		username = c.Username
		password = c.Password
	}
	return u.String(), username, password, nil
}

// transport builds the HTTP transport honoring the TLS settings.
func (c Config) transport() (http.RoundTripper, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: c.Insecure,
	}
	if c.CACertFile != "" {
		pem, err := os.ReadFile(c.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("opensearch: reading CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("opensearch: no certificates in %s", c.CACertFile)
		}
		tlsConfig.RootCAs = pool
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	return transport, nil
}

func (c Config) index() string {
	if c.Index != "" {
		return c.Index
	}
	return DefaultIndex
}

func (c Config) variant() core.SchemaVariant {
	if c.Variant == 0 {
		return core.SchemaFlat
	}
	return c.Variant
}
