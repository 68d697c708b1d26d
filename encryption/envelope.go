package encryption

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	envelopeVersion = 1
	saltSize        = 16
)

var (
	// ErrAuthFailed is returned when the passphrase is wrong or the
	// ciphertext was modified.
	ErrAuthFailed = errors.New("encryption: authentication failed")
	// ErrInvalidEnvelope is returned for data that is not a sealed key.
	ErrInvalidEnvelope = errors.New("encryption: invalid envelope")
)

// Envelope is the serialized form of an encrypted private key.
type Envelope struct {
	Version     uint32 `json:"version"`
	KDF         string `json:"kdf"`
	KDFTime     uint32 `json:"kdf_time"`
	KDFMemoryKB uint32 `json:"kdf_memory_kb"`
	KDFThreads  uint8  `json:"kdf_threads"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Ciphertext  []byte `json:"ciphertext"`
}

func (e *Envelope) params() KDFParams {
	return KDFParams{Time: e.KDFTime, MemoryKB: e.KDFMemoryKB, Threads: e.KDFThreads}
}

// Option configures EncryptPrivateKey.
type Option func(*options)

type options struct {
	kdf KDFParams
}

// WithKDF sets the argon2id parameters. Zero fields keep their defaults.
func WithKDF(p KDFParams) Option {
	return func(o *options) {
		p.ApplyDefaults()
		o.kdf = p
	}
}

// EncryptPrivateKey seals plain under passphrase and returns the JSON
// envelope.
func EncryptPrivateKey(plain []byte, passphrase string, opts ...Option) ([]byte, error) {
	o := options{kdf: DefaultKDF()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.kdf.Validate(); err != nil {
		return nil, err
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	key := o.kdf.derive(passphrase, salt)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	env := Envelope{
		Version:     envelopeVersion,
		KDF:         kdfArgon2id,
		KDFTime:     o.kdf.Time,
		KDFMemoryKB: o.kdf.MemoryKB,
		KDFThreads:  o.kdf.Threads,
		Salt:        salt,
		Nonce:       nonce,
		Ciphertext:  aead.Seal(nil, nonce, plain, nil),
	}
	return json.Marshal(env)
}

// DecryptPrivateKey opens an envelope produced by EncryptPrivateKey.
func DecryptPrivateKey(data []byte, passphrase string) ([]byte, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if env.Version != envelopeVersion || env.KDF != kdfArgon2id {
		return nil, fmt.Errorf("%w: version %d kdf %q", ErrInvalidEnvelope, env.Version, env.KDF)
	}
	if len(env.Nonce) != chacha20poly1305.NonceSizeX || len(env.Salt) == 0 {
		return nil, fmt.Errorf("%w: bad nonce or salt", ErrInvalidEnvelope)
	}
	if err := env.params().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	key := env.params().derive(passphrase, env.Salt)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	plain, err := aead.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plain, nil
}
