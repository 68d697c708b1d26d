package encryption

import (
	"errors"

	"github.com/mr-tron/base58"
)

// encodingVersion prefixes every encoded envelope.
const encodingVersion byte = 0x01

// ErrInvalidEncoding is returned by DecodePrivateKey for malformed text.
var ErrInvalidEncoding = errors.New("encryption: invalid encoded key")

// EncodePrivateKey renders a sealed envelope as base58 text for export.
func EncodePrivateKey(sealed []byte) string {
	buf := make([]byte, 0, len(sealed)+1)
	buf = append(buf, encodingVersion)
	buf = append(buf, sealed...)
	return base58.Encode(buf)
}

// DecodePrivateKey reverses EncodePrivateKey.
func DecodePrivateKey(text string) ([]byte, error) {
	raw, err := base58.Decode(text)
	if err != nil || len(raw) < 2 || raw[0] != encodingVersion {
		return nil, ErrInvalidEncoding
	}
	return raw[1:], nil
}
