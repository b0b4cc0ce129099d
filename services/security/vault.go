package security

import (
	"encoding/json"
	"fmt"
)

// Vault seals sensitive fields (character health, chat entries) inside
// stored room documents. Same primitive as the symmetric envelope,
// separately keyed.
type Vault struct {
	cipher aesCBC
}

func NewVault(key, iv string) *Vault {
	return &Vault{cipher: newAESCBC(key, iv)}
}

// Seal encrypts a value into the at-rest envelope as raw JSON,
// ready to embed in a stored document.
func (v *Vault) Seal(value interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal for vault: %w", err)
	}
	data, err := v.cipher.encrypt(body)
	if err != nil {
		return nil, err
	}
	sealed, err := json.Marshal(Envelope{
		Encrypted: true,
		Method:    MethodSymmetric,
		Data:      data,
	})
	if err != nil {
		return nil, err
	}
	return sealed, nil
}

// Open decodes a stored field into dst. Sealed envelopes are decrypted;
// plain JSON written by older documents is decoded as-is. Empty or null
// fields leave dst untouched.
func (v *Vault) Open(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var probe struct {
		Encrypted bool   `json:"encrypted"`
		Data      string `json:"data"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil && probe.Encrypted && probe.Data != "" {
		plaintext, err := v.cipher.decrypt(probe.Data)
		if err != nil {
			return err
		}
		return json.Unmarshal(plaintext, dst)
	}

	return json.Unmarshal(raw, dst)
}
