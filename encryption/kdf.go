package encryption

import (
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	kdfArgon2id = "argon2id"

	// maxMemoryKB bounds the memory an envelope may ask argon2 for.
	maxMemoryKB = 4 * 1024 * 1024
)

// KDFParams are the argon2id cost parameters.
type KDFParams struct {
	Time     uint32 `yaml:"time" mapstructure:"time"`
	MemoryKB uint32 `yaml:"memory_kb" mapstructure:"memory_kb"`
	Threads  uint8  `yaml:"threads" mapstructure:"threads"`
}

// DefaultKDF returns the parameters used when none are configured.
func DefaultKDF() KDFParams {
	return KDFParams{Time: 2, MemoryKB: 64 * 1024, Threads: 1}
}

// ApplyDefaults fills zero fields from DefaultKDF.
func (p *KDFParams) ApplyDefaults() {
	d := DefaultKDF()
	if p.Time == 0 {
		p.Time = d.Time
	}
	if p.MemoryKB == 0 {
		p.MemoryKB = d.MemoryKB
	}
	if p.Threads == 0 {
		p.Threads = d.Threads
	}
}

// Validate checks that p can be used to derive a key.
func (p KDFParams) Validate() error {
	if p.Time == 0 || p.Threads == 0 {
		return fmt.Errorf("kdf: time and threads must be positive")
	}
	if p.MemoryKB < 8*uint32(p.Threads) || p.MemoryKB > maxMemoryKB {
		return fmt.Errorf("kdf: memory_kb %d out of range", p.MemoryKB)
	}
	return nil
}

func (p KDFParams) derive(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, p.Time, p.MemoryKB, p.Threads, chacha20poly1305.KeySize)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
