package serialization

import "errors"

var (
	// ErrBadEnvelope indicates the blob does not start with a valid header.
	ErrBadEnvelope = errors.New("invalid serialization envelope")

	// ErrShortCiphertext indicates encrypted data shorter than its nonce.
	ErrShortCiphertext = errors.New("ciphertext shorter than nonce")
)
