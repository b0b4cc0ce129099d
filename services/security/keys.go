package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Key files hold base64-encoded DER, the format the deployment scripts
// write. PEM is accepted too.

func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	der, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		if rsaKey, ok := key.(*rsa.PrivateKey); ok {
			return rsaKey, nil
		}
		return nil, errors.New("private key is not RSA")
	}
	return x509.ParsePKCS1PrivateKey(der)
}

func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	der, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}
	return parsePublicKeyDER(der)
}

// ParsePublicKey decodes client-supplied public key material: raw
// base64 DER (what the app sends) or a full PEM block.
func ParsePublicKey(material string) (*rsa.PublicKey, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return nil, errors.New("empty public key")
	}
	if strings.Contains(material, "-----BEGIN") {
		block, _ := pem.Decode([]byte(material))
		if block == nil {
			return nil, errors.New("bad PEM public key")
		}
		return parsePublicKeyDER(block.Bytes)
	}
	der, err := base64.StdEncoding.DecodeString(stripWhitespace(material))
	if err != nil {
		return nil, fmt.Errorf("public key is not base64: %w", err)
	}
	return parsePublicKeyDER(der)
}

// GenerateEphemeralKeys creates a throwaway pair so the server can run
// without provisioned key files (development only; logged loudly by the
// caller).
func GenerateEphemeralKeys() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, err
	}
	return key, &key.PublicKey, nil
}

func parsePublicKeyDER(der []byte) (*rsa.PublicKey, error) {
	if key, err := x509.ParsePKIXPublicKey(der); err == nil {
		if rsaKey, ok := key.(*rsa.PublicKey); ok {
			return rsaKey, nil
		}
		return nil, errors.New("public key is not RSA")
	}
	return x509.ParsePKCS1PublicKey(der)
}

func readKeyFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(string(content))
	if strings.Contains(text, "-----BEGIN") {
		block, _ := pem.Decode([]byte(text))
		if block == nil {
			return nil, fmt.Errorf("bad PEM in %s", path)
		}
		return block.Bytes, nil
	}
	der, err := base64.StdEncoding.DecodeString(stripWhitespace(text))
	if err != nil {
		return nil, fmt.Errorf("%s is neither PEM nor base64 DER: %w", path, err)
	}
	return der, nil
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
