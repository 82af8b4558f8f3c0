package clickhouse

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/pseudomuto/chmigrate/pkg/failure"
)

// TLSSettings points at the PEM files used to secure the connection. CAFile
// alone verifies the server; adding CertFile and KeyFile enables mTLS.
type TLSSettings struct {
	CAFile   string
	CertFile string
	KeyFile  string
}

// Enabled reports whether any TLS material was configured.
func (s TLSSettings) Enabled() bool {
	return s.CAFile != "" || s.CertFile != "" || s.KeyFile != ""
}

// GetTLSConfig builds the client TLS configuration from opts.TLSSettings. It
// returns nil when no TLS material is configured, in which case an https host
// is verified against the system roots.
//
// A certificate without its key is a failure.Config error. PEM files that
// cannot be read or parsed are failure.Connection errors.
//
// Example usage:
//
//	tlsConfig, err := GetTLSConfig(ClientOptions{
//		TLSSettings: TLSSettings{CAFile: "ca.crt", CertFile: "client.crt", KeyFile: "client.key"},
//	})
//	if err != nil {
//		return err
//	}
func GetTLSConfig(opts ClientOptions) (*tls.Config, error) {
	s := opts.TLSSettings
	if !s.Enabled() {
		return nil, nil
	}

	if (s.CertFile == "") != (s.KeyFile == "") {
		return nil, failure.New(failure.Config, "client certificate and key must be provided together")
	}

	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if s.CertFile != "" {
		pair, err := tls.LoadX509KeyPair(s.CertFile, s.KeyFile)
		if err != nil {
			return nil, failure.Wrap(err, failure.Connection, "failed to load client certificate %s", s.CertFile)
		}
		cfg.Certificates = []tls.Certificate{pair}
	}

	if s.CAFile != "" {
		pem, err := os.ReadFile(s.CAFile)
		if err != nil {
			return nil, failure.Wrap(err, failure.Connection, "failed to read CA file %s", s.CAFile)
		}

		roots := x509.NewCertPool()
		if !roots.AppendCertsFromPEM(pem) {
			return nil, failure.New(failure.Connection, "no certificates found in CA file %s", s.CAFile)
		}
		cfg.RootCAs = roots
	}

	return cfg, nil
}
