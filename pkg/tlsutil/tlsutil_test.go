package tlsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/fdrgateway/errors"
)

// writeSelfSignedPair generates a throwaway certificate pair on disk.
func writeSelfSignedPair(t *testing.T) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "fdr-client"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	require.NoError(t, os.WriteFile(certFile, certPEM, 0o600))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0o600))

	return certFile, keyFile
}

func TestLoadClientTLSConfig_Defaults(t *testing.T) {
	cfg, err := LoadClientTLSConfig(ClientConfig{})
	require.NoError(t, err)

	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.NotNil(t, cfg.RootCAs)
	assert.Empty(t, cfg.Certificates)
	assert.False(t, cfg.InsecureSkipVerify)
}

func TestLoadClientTLSConfig_ClientCertificate(t *testing.T) {
	certFile, keyFile := writeSelfSignedPair(t)

	cfg, err := LoadClientTLSConfig(ClientConfig{
		CertFile:   certFile,
		KeyFile:    keyFile,
		MinVersion: "1.3",
	})
	require.NoError(t, err)

	assert.Len(t, cfg.Certificates, 1)
	assert.Equal(t, uint16(tls.VersionTLS13), cfg.MinVersion)
}

func TestLoadClientTLSConfig_HalfPairRejected(t *testing.T) {
	certFile, _ := writeSelfSignedPair(t)

	_, err := LoadClientTLSConfig(ClientConfig{CertFile: certFile})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestLoadClientTLSConfig_ExtraCA(t *testing.T) {
	certFile, _ := writeSelfSignedPair(t)

	cfg, err := LoadClientTLSConfig(ClientConfig{CAFiles: []string{certFile}})
	require.NoError(t, err)
	assert.NotNil(t, cfg.RootCAs)
}

func TestLoadClientTLSConfig_BadCA(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a certificate"), 0o600))

	_, err := LoadClientTLSConfig(ClientConfig{CAFiles: []string{bad}})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))

	_, err = LoadClientTLSConfig(ClientConfig{CAFiles: []string{filepath.Join(t.TempDir(), "missing.pem")}})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestParseTLSVersion(t *testing.T) {
	assert.Equal(t, uint16(tls.VersionTLS13), parseTLSVersion("1.3"))
	assert.Equal(t, uint16(tls.VersionTLS12), parseTLSVersion("1.2"))
	assert.Equal(t, uint16(tls.VersionTLS12), parseTLSVersion(""))
	assert.Equal(t, uint16(tls.VersionTLS12), parseTLSVersion("ssl3"))
}
