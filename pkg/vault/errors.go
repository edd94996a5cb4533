package vault

import "errors"

var (
	ErrMissingKey = errors.New("encryption key not configured")
	ErrInvalidKey = errors.New("invalid encryption key")
	ErrTooLarge   = errors.New("plaintext exceeds maximum size")
	ErrDecrypt    = errors.New("token could not be verified or decrypted")
)
