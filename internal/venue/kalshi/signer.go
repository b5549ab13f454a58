package kalshi

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Signer implements Kalshi's RSA-PSS-SHA256 request signing:
// KALSHI-ACCESS-SIGNATURE is base64(RSA-PSS-SHA256(timestamp+method+path))
// with MGF1-SHA256 and salt length equal to the digest size. This is fully
// served by stdlib crypto/rsa + crypto/sha256 — no third-party crypto
// library adds anything PSS-specific over the standard library here.
type Signer struct {
	accessKey  string
	privateKey *rsa.PrivateKey
}

// NewSigner parses a PEM-encoded RSA private key and the API access key.
func NewSigner(accessKey, pemPrivateKey string) (*Signer, error) {
	block, _ := pem.Decode([]byte(pemPrivateKey))
	if block == nil {
		return nil, fmt.Errorf("%w: decode PEM block", types.ErrSigningError)
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse RSA private key: %v", types.ErrSigningError, err)
		}
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: key is not RSA", types.ErrSigningError)
	}

	return &Signer{accessKey: accessKey, privateKey: rsaKey}, nil
}

// Sign computes KALSHI-ACCESS-SIGNATURE over timestamp+method+path.
func (s *Signer) Sign(timestamp, method, path string) (string, error) {
	message := timestamp + method + path

	digest := sha256.Sum256([]byte(message))

	signature, err := rsa.SignPSS(rand.Reader, s.privateKey, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       crypto.SHA256,
	})
	if err != nil {
		return "", fmt.Errorf("%w: sign request: %v", types.ErrSigningError, err)
	}

	return base64.StdEncoding.EncodeToString(signature), nil
}
