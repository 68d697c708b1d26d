package wallet

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/kbukum/walletkit/errors"
	"github.com/kbukum/walletkit/validation"
)

// Index and setting names.
const (
	IndexKeys          = "keys"
	IndexSettings      = "settings"
	SettingEncryptedID = "encryptedId"
)

// Account identifies a key by address.
type Account struct {
	Address string `json:"address" validate:"required,base58"`
}

// AddressOf returns the address of pub: its base58 encoding.
func AddressOf(pub ed25519.PublicKey) string {
	return base58.Encode(pub)
}

// NewKey generates a fresh ed25519 key and the account it belongs to.
func NewKey() (Account, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return Account{}, nil, errors.Internal(err)
	}
	return Account{Address: AddressOf(pub)}, priv, nil
}

// Key is the record kept for an account. Persisted keys carry only the
// encrypted private key.
type Key struct {
	Address             string `json:"address"`
	PrivateKey          []byte `json:"private_key,omitempty"`
	PrivateKeyEncrypted []byte `json:"private_key_encrypted,omitempty"`
}

// Unlocked reports whether the plaintext private key is available.
func (k *Key) Unlocked() bool {
	return len(k.PrivateKey) == ed25519.PrivateKeySize
}

func (k *Key) clone() *Key {
	c := *k
	c.PrivateKey = append([]byte(nil), k.PrivateKey...)
	c.PrivateKeyEncrypted = append([]byte(nil), k.PrivateKeyEncrypted...)
	if len(c.PrivateKey) == 0 {
		c.PrivateKey = nil
	}
	if len(c.PrivateKeyEncrypted) == 0 {
		c.PrivateKeyEncrypted = nil
	}
	return &c
}

// PublicKey returns the public half of an unlocked key.
func (k *Key) PublicKey() (ed25519.PublicKey, error) {
	if !k.Unlocked() {
		return nil, errors.Locked("key " + k.Address + " is locked")
	}
	return ed25519.PrivateKey(k.PrivateKey).Public().(ed25519.PublicKey), nil
}

// SignTransaction signs tx. An empty From is filled with the key address.
func (k *Key) SignTransaction(tx Transaction) (*SignedTransaction, error) {
	if !k.Unlocked() {
		return nil, errors.Locked("key " + k.Address + " is locked")
	}
	if tx.From == "" {
		tx.From = k.Address
	}
	if tx.From != k.Address {
		return nil, errors.InvalidInput("from", fmt.Sprintf("transaction from %s cannot be signed by %s", tx.From, k.Address))
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	sig := ed25519.Sign(ed25519.PrivateKey(k.PrivateKey), hash)
	return &SignedTransaction{
		Transaction: tx,
		Hash:        base58.Encode(hash),
		Signature:   base58.Encode(sig),
	}, nil
}

// Message encodings accepted by SignMessage.
const (
	EncodingHex    = "hex"
	EncodingBase58 = "base58"
)

var encodings = []string{EncodingHex, EncodingBase58}

func checkEncoding(enc string) error {
	if appErr := validation.New().OneOf("encoding", enc, encodings).Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// SignMessage signs the SHA-256 digest of msg and encodes the signature.
func (k *Key) SignMessage(msg []byte, enc string) (string, error) {
	if err := checkEncoding(enc); err != nil {
		return "", err
	}
	if !k.Unlocked() {
		return "", errors.Locked("key " + k.Address + " is locked")
	}
	digest := sha256.Sum256(msg)
	sig := ed25519.Sign(ed25519.PrivateKey(k.PrivateKey), digest[:])
	if enc == EncodingBase58 {
		return base58.Encode(sig), nil
	}
	return hex.EncodeToString(sig), nil
}

// VerifyMessage checks a signature produced by SignMessage.
func VerifyMessage(address string, msg []byte, sig, enc string) (bool, error) {
	if err := checkEncoding(enc); err != nil {
		return false, err
	}
	pub, err := publicKeyOf(address)
	if err != nil {
		return false, err
	}
	var raw []byte
	if enc == EncodingBase58 {
		raw, err = base58.Decode(sig)
	} else {
		raw, err = hex.DecodeString(sig)
	}
	if err != nil {
		return false, errors.InvalidInput("signature", "malformed signature").WithCause(err)
	}
	digest := sha256.Sum256(msg)
	return ed25519.Verify(pub, digest[:], raw), nil
}

func publicKeyOf(address string) (ed25519.PublicKey, error) {
	if appErr := validation.New().
		Required("address", address).
		Base58("address", address, ed25519.PublicKeySize).
		Validate(); appErr != nil {
		return nil, appErr
	}
	raw, _ := base58.Decode(address)
	return ed25519.PublicKey(raw), nil
}

// Transaction is an unsigned transfer.
type Transaction struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Amount  string `json:"amount"`
	Nonce   uint64 `json:"nonce"`
	Payload []byte `json:"payload,omitempty"`
}

// Hash returns the SHA-256 digest of the transaction's JSON encoding.
func (tx Transaction) Hash() ([]byte, error) {
	raw, err := json.Marshal(tx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	sum := sha256.Sum256(raw)
	return sum[:], nil
}

// SignedTransaction is a transaction with its hash and signature, both
// base58 encoded.
type SignedTransaction struct {
	Transaction
	Hash      string `json:"hash"`
	Signature string `json:"sign"`
}

// Verify checks the hash and the signature against the sender address.
func (s *SignedTransaction) Verify() error {
	hash, err := s.Transaction.Hash()
	if err != nil {
		return err
	}
	if base58.Encode(hash) != s.Hash {
		return errors.InvalidInput("hash", "transaction hash does not match contents")
	}
	pub, err := publicKeyOf(s.From)
	if err != nil {
		return err
	}
	sig, err := base58.Decode(s.Signature)
	if err != nil || !ed25519.Verify(pub, hash, sig) {
		return errors.InvalidInput("sign", "invalid signature")
	}
	return nil
}

// EncryptedIDSetting is the app id sealed under the master passphrase.
// Decrypting it proves a passphrase correct.
type EncryptedIDSetting struct {
	Value []byte `json:"value"`
}

// normalizeKey accepts an ed25519 seed or full private key.
func normalizeKey(raw []byte) (ed25519.PrivateKey, error) {
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return append(ed25519.PrivateKey(nil), raw...), nil
	default:
		return nil, errors.InvalidInput("private_key",
			fmt.Sprintf("private key must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(raw)))
	}
}

// redacted returns a copy without the plaintext private key.
func (k *Key) redacted() *Key {
	c := k.clone()
	c.PrivateKey = nil
	return c
}
