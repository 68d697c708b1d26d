package wallet

import (
	"context"
	"crypto/ed25519"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/walletkit/encryption"
	"github.com/kbukum/walletkit/errors"
	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/observability"
	"github.com/kbukum/walletkit/storage"
	"github.com/kbukum/walletkit/validation"
)

// MinPassphraseLength is the shortest master passphrase SetupAndUnlock
// accepts.
const MinPassphraseLength = 8

// ImportSpec describes a key to import: either an exported key with its
// password, or a raw private key. A raw key wins when both are given.
type ImportSpec struct {
	Account      Account `json:"account"`
	B58Encrypted string  `json:"b58encrypted" validate:"required_with=Password"`
	Password     string  `json:"password" validate:"required_with=B58Encrypted"`
	PrivateKey   []byte  `json:"private_key,omitempty"`
}

// KeyManager tracks the keys of a wallet. Keys are cached in memory and,
// when the wallet has a keystore, persisted encrypted under the master
// passphrase.
type KeyManager struct {
	wallet *Wallet
	log    *logger.Logger
	events emitter

	mu         sync.RWMutex
	keys       map[string]*Key
	passphrase string
	unlocked   bool
}

func newKeyManager(w *Wallet) *KeyManager {
	return &KeyManager{
		wallet: w,
		log:    w.log.WithComponent("keymanager"),
		keys:   make(map[string]*Key),
	}
}

// Subscribe registers fn for every event and returns a function that
// removes it. fn runs synchronously on the goroutine that caused the event.
func (km *KeyManager) Subscribe(fn func(Event)) (unsubscribe func()) {
	return km.events.subscribe(fn)
}

// Unlocked reports whether the master passphrase is held.
func (km *KeyManager) Unlocked() bool {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.unlocked
}

func (km *KeyManager) masterPassphrase() (string, bool) {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.passphrase, km.unlocked
}

// keyIndex returns the typed keys index, or nil without a keystore.
func (km *KeyManager) keyIndex(ctx context.Context) (*storage.TypedIndex[Key], error) {
	ks, err := km.wallet.Keystore(ctx)
	if err != nil || ks == nil {
		return nil, err
	}
	return storage.Typed[Key](ks.Index(IndexKeys)), nil
}

// AddKey stores privateKey (an ed25519 seed or private key) for account.
// The key must belong to account. With a keystore the wallet must be
// unlocked; the key is persisted encrypted and only the cache holds the
// plaintext.
func (km *KeyManager) AddKey(ctx context.Context, account Account, privateKey []byte) (*Key, error) {
	if err := validation.Validate(account); err != nil {
		return nil, err
	}
	priv, err := normalizeKey(privateKey)
	if err != nil {
		return nil, err
	}
	if AddressOf(priv.Public().(ed25519.PublicKey)) != account.Address {
		clear(priv)
		return nil, errors.InvalidInput("private_key", "key does not belong to account")
	}
	key := &Key{Address: account.Address, PrivateKey: priv}

	idx, err := km.keyIndex(ctx)
	if err != nil {
		return nil, err
	}
	if idx != nil {
		pass, ok := km.masterPassphrase()
		if !ok {
			return nil, errors.Locked("unlock wallet before adding key")
		}
		sealed, err := km.wallet.EncryptPrivateKey(ctx, EncryptRequest{Plain: priv, Passphrase: pass})
		if err != nil {
			return nil, err
		}
		key.PrivateKeyEncrypted = sealed
		record := Key{Address: key.Address, PrivateKeyEncrypted: sealed}
		if err := idx.Save(ctx, key.Address, &record); err != nil {
			return nil, errors.Storage("put key", err)
		}
	}

	km.mu.Lock()
	_, existed := km.keys[key.Address]
	km.keys[key.Address] = key
	km.mu.Unlock()

	ev := EventAdd
	if existed {
		ev = EventUpdate
	}
	km.log.Info("key added", map[string]interface{}{
		logger.FieldAddress: key.Address,
		logger.FieldEvent:   string(ev),
		"persisted":         idx != nil,
	})
	km.events.emit(Event{Type: ev, Key: key.redacted()})
	return key.clone(), nil
}

// GetKey returns the key of account from the cache or the keystore. The
// returned key may be locked.
func (km *KeyManager) GetKey(ctx context.Context, account Account) (*Key, error) {
	km.mu.RLock()
	cached, ok := km.keys[account.Address]
	if ok {
		cached = cached.clone()
	}
	km.mu.RUnlock()
	if ok {
		return cached, nil
	}

	missing := errors.NotFound("key for account", account.Address)
	idx, err := km.keyIndex(ctx)
	if err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, missing
	}
	record, err := idx.Load(ctx, account.Address)
	if stderrors.Is(err, storage.ErrNotFound) {
		return nil, missing.WithCause(err)
	}
	if err != nil {
		return nil, errors.Storage("get key", err)
	}

	km.mu.Lock()
	if existing, ok := km.keys[account.Address]; ok {
		record = existing
	} else {
		km.keys[account.Address] = record
	}
	out := record.clone()
	km.mu.Unlock()
	return out, nil
}

// GetUnlockedKey returns the key of account with its private key,
// decrypting it with the master passphrase when needed.
func (km *KeyManager) GetUnlockedKey(ctx context.Context, account Account) (*Key, error) {
	observability.SetSpanAttribute(ctx, observability.AttrAddress, account.Address)
	key, err := km.GetKey(ctx, account)
	if err != nil {
		return nil, err
	}
	if key.Unlocked() {
		return key, nil
	}
	pass, ok := km.masterPassphrase()
	if !ok {
		return nil, errors.Locked("unlock wallet before using key")
	}
	if len(key.PrivateKeyEncrypted) == 0 {
		return nil, errors.Internal(fmt.Errorf("key %s has no private key material", key.Address))
	}
	plain, err := km.wallet.DecryptPrivateKey(ctx, DecryptRequest{Sealed: key.PrivateKeyEncrypted, Passphrase: pass})
	if stderrors.Is(err, encryption.ErrAuthFailed) {
		return nil, errors.InvalidPassphrase().WithCause(err)
	}
	if err != nil {
		return nil, err
	}
	priv, err := normalizeKey(plain)
	if err != nil {
		return nil, err
	}
	key.PrivateKey = priv

	km.mu.Lock()
	if cached, ok := km.keys[key.Address]; ok {
		cached.PrivateKey = append([]byte(nil), priv...)
	}
	km.mu.Unlock()
	return key, nil
}

// RemoveKey forgets the key of address in the cache and the keystore.
func (km *KeyManager) RemoveKey(ctx context.Context, address string) error {
	idx, err := km.keyIndex(ctx)
	if err != nil {
		return err
	}
	km.mu.Lock()
	delete(km.keys, address)
	km.mu.Unlock()

	if idx != nil {
		if err := idx.Delete(ctx, address); err != nil {
			return errors.Storage("delete key", err)
		}
	}
	km.log.Info("key removed", map[string]interface{}{logger.FieldAddress: address})
	km.events.emit(Event{Type: EventChange, Keys: km.snapshot()})
	return nil
}

// ClearKeys forgets every key.
func (km *KeyManager) ClearKeys(ctx context.Context) error {
	idx, err := km.keyIndex(ctx)
	if err != nil {
		return err
	}
	km.mu.Lock()
	km.keys = make(map[string]*Key)
	km.mu.Unlock()

	if idx != nil {
		if err := idx.Clear(ctx); err != nil {
			return errors.Storage("clear keys", err)
		}
	}
	km.log.Info("keys cleared")
	km.events.emit(Event{Type: EventChange, Keys: km.snapshot()})
	return nil
}

// Addresses returns the sorted addresses known to the cache or keystore.
func (km *KeyManager) Addresses(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	km.mu.RLock()
	for addr := range km.keys {
		seen[addr] = true
	}
	km.mu.RUnlock()

	idx, err := km.keyIndex(ctx)
	if err != nil {
		return nil, err
	}
	if idx != nil {
		stored, err := idx.Keys(ctx)
		if err != nil {
			return nil, errors.Storage("list keys", err)
		}
		for _, addr := range stored {
			seen[addr] = true
		}
	}

	out := make([]string, 0, len(seen))
	for addr := range seen {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out, nil
}

func (km *KeyManager) snapshot() []*Key {
	km.mu.RLock()
	defer km.mu.RUnlock()
	out := make([]*Key, 0, len(km.keys))
	for _, k := range km.keys {
		out = append(out, k.redacted())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// SignTransaction signs tx with the key of account.
func (km *KeyManager) SignTransaction(ctx context.Context, account Account, tx Transaction) (*SignedTransaction, error) {
	key, err := km.GetUnlockedKey(ctx, account)
	if err != nil {
		return nil, err
	}
	return key.SignTransaction(tx)
}

// SignMessage signs msg with the key of account. enc is EncodingHex (the
// default) or EncodingBase58.
func (km *KeyManager) SignMessage(ctx context.Context, account Account, msg []byte, enc string) (string, error) {
	key, err := km.GetUnlockedKey(ctx, account)
	if err != nil {
		return "", err
	}
	return key.SignMessage(msg, enc)
}

// ImportKey adds the key described by spec.
func (km *KeyManager) ImportKey(ctx context.Context, spec ImportSpec) (*Key, error) {
	if err := validation.Validate(spec); err != nil {
		return nil, err
	}

	var raw []byte
	if spec.B58Encrypted != "" && spec.Password != "" {
		sealed, err := encryption.DecodePrivateKey(spec.B58Encrypted)
		if err != nil {
			return nil, errors.InvalidInput("b58encrypted", "malformed encrypted key").WithCause(err)
		}
		raw, err = km.wallet.DecryptPrivateKey(ctx, DecryptRequest{Sealed: sealed, Passphrase: spec.Password})
		if stderrors.Is(err, encryption.ErrAuthFailed) {
			return nil, errors.InvalidPassphrase().WithCause(err)
		}
		if err != nil {
			return nil, err
		}
	}
	if len(spec.PrivateKey) > 0 {
		raw = spec.PrivateKey
	}
	if appErr := validation.New().
		Custom(len(raw) > 0, "private_key", "no key provided. Supply b58encrypted and password or privateKey").
		Validate(); appErr != nil {
		return nil, appErr
	}
	return km.AddKey(ctx, spec.Account, raw)
}

// ExportKey returns the key of account encrypted under password in the
// base58 form ImportKey accepts.
func (km *KeyManager) ExportKey(ctx context.Context, account Account, password string) (string, error) {
	if err := validation.Required("password", password); err != nil {
		return "", err
	}
	key, err := km.GetUnlockedKey(ctx, account)
	if err != nil {
		return "", err
	}
	sealed, err := km.wallet.EncryptPrivateKey(ctx, EncryptRequest{Plain: key.PrivateKey, Passphrase: password})
	if err != nil {
		return "", err
	}
	return encryption.EncodePrivateKey(sealed), nil
}

// Unlock verifies passphrase against the sealed app id in the datastore
// and keeps it as the master passphrase.
func (km *KeyManager) Unlock(ctx context.Context, passphrase string) error {
	ds, err := km.wallet.Datastore(ctx)
	if err != nil {
		return err
	}
	setting, err := storage.Typed[EncryptedIDSetting](ds.Index(IndexSettings)).Load(ctx, SettingEncryptedID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return errors.NotConfigured("wallet has no passphrase; run setup first").WithCause(err)
	}
	if err != nil {
		return errors.Storage("get setting", err)
	}
	_, err = km.wallet.DecryptPrivateKey(ctx, DecryptRequest{Sealed: setting.Value, Passphrase: passphrase})
	if stderrors.Is(err, encryption.ErrAuthFailed) {
		km.log.Warn("unlock failed", map[string]interface{}{logger.FieldError: err.Error()})
		return errors.InvalidPassphrase().WithCause(err)
	}
	if err != nil {
		return err
	}

	km.mu.Lock()
	km.passphrase = passphrase
	km.unlocked = true
	km.mu.Unlock()

	km.log.Info("wallet unlocked")
	km.events.emit(Event{Type: EventUnlock})
	return nil
}

// SetupAndUnlock seals appID under passphrase in the datastore, so later
// Unlock calls can check the passphrase, and unlocks the wallet. The
// passphrase needs at least MinPassphraseLength characters.
func (km *KeyManager) SetupAndUnlock(ctx context.Context, appID, passphrase string) error {
	if appErr := validation.New().
		Required("app_id", appID).
		Required("passphrase", passphrase).
		MinLength("passphrase", passphrase, MinPassphraseLength).
		Validate(); appErr != nil {
		return appErr
	}
	ds, err := km.wallet.Datastore(ctx)
	if err != nil {
		return err
	}
	sealed, err := km.wallet.EncryptPrivateKey(ctx, EncryptRequest{Plain: []byte(appID), Passphrase: passphrase})
	if err != nil {
		return err
	}
	setting := EncryptedIDSetting{Value: sealed}
	if err := storage.Typed[EncryptedIDSetting](ds.Index(IndexSettings)).Save(ctx, SettingEncryptedID, &setting); err != nil {
		return errors.Storage("put setting", err)
	}
	return km.Unlock(ctx, passphrase)
}

// Lock drops the master passphrase and the plaintext of every key that
// can be decrypted again later.
func (km *KeyManager) Lock() {
	km.mu.Lock()
	km.passphrase = ""
	km.unlocked = false
	for _, k := range km.keys {
		if len(k.PrivateKeyEncrypted) > 0 {
			clear(k.PrivateKey)
			k.PrivateKey = nil
		}
	}
	km.mu.Unlock()

	km.log.Info("wallet locked")
	km.events.emit(Event{Type: EventLock})
}
