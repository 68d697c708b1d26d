// Package encryption seals private keys under a passphrase.
//
// Keys are encrypted with XChaCha20-Poly1305 using a key derived from the
// passphrase with argon2id. The result is a self-describing JSON envelope
// that records the KDF parameters, so envelopes stay readable when the
// defaults change.
//
// # Usage
//
//	sealed, err := encryption.EncryptPrivateKey(priv, "passphrase")
//	text := encryption.EncodePrivateKey(sealed)  // base58, safe to print
//	raw, err := encryption.DecodePrivateKey(text)
//	priv, err = encryption.DecryptPrivateKey(raw, "passphrase")
package encryption
