package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	models "forestfight/models/postgres"

	"gorm.io/gorm"
)

// Envelope format identifiers shared with the mobile client.
const (
	MethodHybrid    = "hybrid-rsa-aes"
	MethodSymmetric = "aes-128-cbc"
)

// Defaults for the symmetric fallback, overridable via VAULT_KEY/VAULT_IV.
const (
	DefaultSymmetricKey = "SecureKey7890123"
	DefaultSymmetricIV  = "Vector4567890123"
)

var ErrMalformedEnvelope = errors.New("malformed encrypted envelope")

// Envelope is the wire form of an encrypted payload. Hybrid envelopes
// carry the AES key RSA-wrapped for one recipient; symmetric ones only
// carry data under the shared fallback key.
type Envelope struct {
	Encrypted    bool   `json:"encrypted"`
	Method       string `json:"method,omitempty"`
	EncryptedKey string `json:"encrypted_key,omitempty"`
	IV           string `json:"iv,omitempty"`
	Data         string `json:"data"`
}

// Service implements the request/response encryption collaborator.
// Responses are personalized with the recipient's registered RSA public
// key and fall back to the symmetric envelope when none is on file.
type Service struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	fallback   aesCBC
	db         *gorm.DB
}

// NewService wires the collaborator. db may be nil; then every response
// uses the symmetric fallback (useful in tests).
func NewService(private *rsa.PrivateKey, public *rsa.PublicKey, symmetricKey, symmetricIV string, db *gorm.DB) *Service {
	return &Service{
		privateKey: private,
		publicKey:  public,
		fallback:   newAESCBC(symmetricKey, symmetricIV),
		db:         db,
	}
}

// DecryptRequest unwraps an incoming payload. It accepts the hybrid
// envelope, the symmetric fallback envelope, or a plain JSON object
// passthrough, and returns the decoded message fields.
func (s *Service) DecryptRequest(raw interface{}) (map[string]interface{}, error) {
	payload, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: payload is not an object", ErrMalformedEnvelope)
	}

	method, _ := payload["method"].(string)
	if method == MethodHybrid {
		encryptedKey, _ := payload["encrypted_key"].(string)
		iv, _ := payload["iv"].(string)
		data, _ := payload["data"].(string)
		if encryptedKey == "" || iv == "" || data == "" {
			return nil, fmt.Errorf("%w: missing hybrid parameters", ErrMalformedEnvelope)
		}
		plaintext, err := s.decryptHybrid(encryptedKey, iv, data)
		if err != nil {
			return nil, err
		}
		var message map[string]interface{}
		if err := json.Unmarshal(plaintext, &message); err != nil {
			return nil, fmt.Errorf("%w: decrypted body is not JSON", ErrMalformedEnvelope)
		}
		return message, nil
	}

	if encrypted, _ := payload["encrypted"].(bool); encrypted {
		data, _ := payload["data"].(string)
		if data == "" {
			return nil, fmt.Errorf("%w: missing data", ErrMalformedEnvelope)
		}
		plaintext, err := s.fallback.decrypt(data)
		if err != nil {
			return nil, err
		}
		var message map[string]interface{}
		if err := json.Unmarshal(plaintext, &message); err != nil {
			return nil, fmt.Errorf("%w: decrypted body is not JSON", ErrMalformedEnvelope)
		}
		return message, nil
	}

	// Plain passthrough for clients that skip encryption.
	return payload, nil
}

// EncryptResponse seals a message for one recipient. It never fails:
// any problem (no registered key, bad key material, RSA failure) drops
// to the symmetric fallback so the message is still delivered.
func (s *Service) EncryptResponse(message interface{}, username string) Envelope {
	if username != "" {
		if publicKey := s.lookupPublicKey(username); publicKey != "" {
			envelope, err := s.EncryptWithPublicKey(message, publicKey)
			if err == nil {
				return envelope
			}
			log.Printf("[SECURITY] hybrid encryption for %s failed, using fallback: %v", username, err)
		}
	}
	return s.encryptSymmetric(message)
}

// EncryptWithPublicKey seals a message with an explicit RSA public key
// (base64 DER or PEM). Used directly by register/login, where the key
// arrives in the request before any user row exists.
func (s *Service) EncryptWithPublicKey(message interface{}, publicKeyMaterial string) (Envelope, error) {
	recipientKey, err := ParsePublicKey(publicKeyMaterial)
	if err != nil {
		return Envelope{}, err
	}

	body, err := json.Marshal(message)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal response: %w", err)
	}

	aesKey := make([]byte, 16)
	if _, err := rand.Read(aesKey); err != nil {
		return Envelope{}, fmt.Errorf("generate session key: %w", err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return Envelope{}, fmt.Errorf("generate iv: %w", err)
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return Envelope{}, err
	}
	padded := pkcs7Pad(body, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	// PKCS#1 v1.5 wrap to match the mobile client's cipher suite.
	wrappedKey, err := rsa.EncryptPKCS1v15(rand.Reader, recipientKey, aesKey)
	if err != nil {
		return Envelope{}, fmt.Errorf("wrap session key: %w", err)
	}

	return Envelope{
		Encrypted:    true,
		Method:       MethodHybrid,
		EncryptedKey: base64.StdEncoding.EncodeToString(wrappedKey),
		IV:           base64.StdEncoding.EncodeToString(iv),
		Data:         base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

func (s *Service) decryptHybrid(encryptedKeyB64, ivB64, dataB64 string) ([]byte, error) {
	if s.privateKey == nil {
		return nil, errors.New("no server private key loaded")
	}
	wrappedKey, err := base64.StdEncoding.DecodeString(encryptedKeyB64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad key encoding", ErrMalformedEnvelope)
	}
	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil || len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("%w: bad iv", ErrMalformedEnvelope)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(dataB64)
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: bad data", ErrMalformedEnvelope)
	}

	aesKey, err := rsa.DecryptPKCS1v15(nil, s.privateKey, wrappedKey)
	if err != nil {
		return nil, fmt.Errorf("unwrap session key: %w", err)
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("session key unusable: %w", err)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return pkcs7Unpad(plaintext, aes.BlockSize)
}

func (s *Service) encryptSymmetric(message interface{}) Envelope {
	body, err := json.Marshal(message)
	if err != nil {
		log.Printf("[SECURITY] marshal for symmetric envelope failed: %v", err)
		body = []byte("{}")
	}
	data, err := s.fallback.encrypt(body)
	if err != nil {
		log.Printf("[SECURITY] symmetric encryption failed: %v", err)
		return Envelope{Encrypted: false, Data: string(body)}
	}
	return Envelope{
		Encrypted: true,
		Method:    MethodSymmetric,
		Data:      data,
	}
}

func (s *Service) lookupPublicKey(username string) string {
	if s.db == nil {
		return ""
	}
	var user models.User
	if err := s.db.Select("public_key").Where("username = ?", username).First(&user).Error; err != nil {
		return ""
	}
	return user.PublicKey
}
