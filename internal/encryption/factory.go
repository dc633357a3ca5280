package encryption

import (
	"fmt"

	"gitsnap/internal/config"
	"gitsnap/internal/snap"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration
// type.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (snap.Encryptor, error) {
	switch cfg.Type {
	case "age", "":
		return NewAgeEncryptor(cfg), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
