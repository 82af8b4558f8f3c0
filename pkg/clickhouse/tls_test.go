package clickhouse

import (
	"crypto/tls"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/chmigrate/pkg/failure"
	"github.com/stretchr/testify/require"
)

// The fixtures in testdata/tls were generated with:
//
//	openssl req -x509 -new -nodes -newkey rsa:2048 -keyout ca.key -sha256 -days 3650 \
//	  -out ca.crt -subj "/O=chmigrate/CN=chmigrate test CA"
//	openssl req -new -nodes -newkey rsa:2048 -keyout client.key -out client.csr \
//	  -subj "/O=chmigrate/CN=migrator"
//	openssl x509 -req -in client.csr -CA ca.crt -CAkey ca.key -CAcreateserial \
//	  -out client.crt -days 3650 -sha256
var (
	caFile   = filepath.Join("testdata", "tls", "ca.crt")
	certFile = filepath.Join("testdata", "tls", "client.crt")
	keyFile  = filepath.Join("testdata", "tls", "client.key")
)

func TestGetTLSConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings TLSSettings
		certs    int
		roots    bool
		err      string
		kind     failure.Kind
	}{
		{
			name:     "mutual TLS",
			settings: TLSSettings{CAFile: caFile, CertFile: certFile, KeyFile: keyFile},
			certs:    1,
			roots:    true,
		},
		{
			name:     "CA only",
			settings: TLSSettings{CAFile: caFile},
			roots:    true,
		},
		{
			name:     "client certificate with system roots",
			settings: TLSSettings{CertFile: certFile, KeyFile: keyFile},
			certs:    1,
		},
		{
			name:     "certificate without key",
			settings: TLSSettings{CAFile: caFile, CertFile: certFile},
			err:      "client certificate and key must be provided together",
			kind:     failure.Config,
		},
		{
			name:     "key without certificate",
			settings: TLSSettings{KeyFile: keyFile},
			err:      "client certificate and key must be provided together",
			kind:     failure.Config,
		},
		{
			name:     "CA file holding a key",
			settings: TLSSettings{CAFile: keyFile},
			err:      "no certificates found in CA file",
			kind:     failure.Connection,
		},
		{
			name:     "missing CA file",
			settings: TLSSettings{CAFile: filepath.Join("testdata", "tls", "missing.crt")},
			err:      "failed to read CA file",
			kind:     failure.Connection,
		},
		{
			name:     "missing certificate",
			settings: TLSSettings{CertFile: "missing.crt", KeyFile: keyFile},
			err:      "failed to load client certificate missing.crt",
			kind:     failure.Connection,
		},
		{
			name:     "mismatched pair",
			settings: TLSSettings{CertFile: caFile, KeyFile: keyFile},
			err:      "failed to load client certificate",
			kind:     failure.Connection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := GetTLSConfig(ClientOptions{TLSSettings: tt.settings})
			if tt.err != "" {
				require.ErrorContains(t, err, tt.err)
				require.Equal(t, tt.kind, failure.KindOf(err))
				require.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			require.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
			require.Len(t, cfg.Certificates, tt.certs)
			require.Equal(t, tt.roots, cfg.RootCAs != nil)
		})
	}
}

func TestGetTLSConfig_Disabled(t *testing.T) {
	require.False(t, TLSSettings{}.Enabled())

	cfg, err := GetTLSConfig(ClientOptions{Host: "https://ch.internal:8443"})
	require.NoError(t, err)
	require.Nil(t, cfg)
}
