package config

import (
	"crypto/rsa"
	"log"
	"os"

	"forestfight/services/security"
)

// LoadServerKeys loads the RSA pair clients wrap their AES keys with.
// Without provisioned key files the server falls back to an ephemeral
// pair, which keeps development working but breaks clients that pinned
// the public key.
func LoadServerKeys() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privatePath := os.Getenv("SERVER_PRIVATE_KEY_FILE")
	publicPath := os.Getenv("SERVER_PUBLIC_KEY_FILE")

	if privatePath == "" {
		log.Println("[SECURITY] SERVER_PRIVATE_KEY_FILE not set, generating an ephemeral RSA pair")
		return security.GenerateEphemeralKeys()
	}

	private, err := security.LoadPrivateKey(privatePath)
	if err != nil {
		return nil, nil, err
	}

	if publicPath == "" {
		return private, &private.PublicKey, nil
	}
	public, err := security.LoadPublicKey(publicPath)
	if err != nil {
		return nil, nil, err
	}
	return private, public, nil
}
