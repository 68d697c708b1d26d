package wallet

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/kbukum/walletkit/encryption"
	"github.com/kbukum/walletkit/errors"
	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/middleware"
	"github.com/kbukum/walletkit/storage"
)

// Capability names.
const (
	CapKeystore          = "Keystore"
	CapDatastore         = "Datastore"
	CapEncryptPrivateKey = "EncryptPrivateKey"
	CapDecryptPrivateKey = "DecryptPrivateKey"
)

// Capabilities lists every capability a Wallet consults.
var Capabilities = []string{CapKeystore, CapDatastore, CapEncryptPrivateKey, CapDecryptPrivateKey}

// EncryptRequest is the input of the EncryptPrivateKey capability.
type EncryptRequest struct {
	Plain      []byte
	Passphrase string
}

// DecryptRequest is the input of the DecryptPrivateKey capability.
type DecryptRequest struct {
	Sealed     []byte
	Passphrase string
}

// Wallet is the middleware host. Do not copy a Wallet after first use.
type Wallet struct {
	middleware.Consumer

	id      string
	log     *logger.Logger
	kdf     encryption.KDFParams
	keys    *KeyManager
	closers []func() error
}

// Option configures a Wallet.
type Option func(*Wallet)

// WithLogger sets the wallet logger.
func WithLogger(log *logger.Logger) Option {
	return func(w *Wallet) { w.log = log }
}

// WithID sets the wallet id. New generates one otherwise.
func WithID(id string) Option {
	return func(w *Wallet) { w.id = id }
}

// WithKDF sets the argon2id parameters of the default key encryption.
func WithKDF(p encryption.KDFParams) Option {
	return func(w *Wallet) {
		p.ApplyDefaults()
		w.kdf = p
	}
}

// New creates a Wallet without middleware.
func New(opts ...Option) *Wallet {
	w := &Wallet{kdf: encryption.DefaultKDF()}
	for _, opt := range opts {
		opt(w)
	}
	if w.id == "" {
		w.id = uuid.NewString()
	}
	if w.log == nil {
		w.log = logger.Get("wallet")
	}
	w.log = w.log.WithFields(map[string]interface{}{logger.FieldWalletID: w.id})
	w.SetLogger(w.log.WithComponent("middleware"))
	w.keys = newKeyManager(w)
	return w
}

// Close releases resources acquired by NewFromConfig.
func (w *Wallet) Close() error {
	var errs []error
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	w.closers = nil
	return stderrors.Join(errs...)
}

// ID returns the wallet id.
func (w *Wallet) ID() string { return w.id }

// Keys returns the wallet's key manager.
func (w *Wallet) Keys() *KeyManager { return w.keys }

// Logger returns the wallet logger.
func (w *Wallet) Logger() *logger.Logger { return w.log }

// Keystore returns the store holding encrypted keys. A nil store with a nil
// error means no keystore is configured.
func (w *Wallet) Keystore(ctx context.Context) (storage.Store, error) {
	return middleware.Call[struct{}, storage.Store](ctx, w, CapKeystore,
		func(context.Context, struct{}) (storage.Store, error) { return nil, nil },
		struct{}{})
}

// Datastore returns the store holding wallet settings. It fails with
// NOT_CONFIGURED when no middleware provides one.
func (w *Wallet) Datastore(ctx context.Context) (storage.Store, error) {
	store, err := middleware.Call[struct{}, storage.Store](ctx, w, CapDatastore, nil, struct{}{})
	if stderrors.Is(err, middleware.ErrMissingProvider) || (err == nil && store == nil) {
		return nil, errors.NotConfigured("configure storage before accessing keystore").WithCause(err)
	}
	return store, err
}

// EncryptPrivateKey seals req.Plain under req.Passphrase.
func (w *Wallet) EncryptPrivateKey(ctx context.Context, req EncryptRequest) ([]byte, error) {
	return middleware.Call[EncryptRequest, []byte](ctx, w, CapEncryptPrivateKey,
		func(_ context.Context, req EncryptRequest) ([]byte, error) {
			return encryption.EncryptPrivateKey(req.Plain, req.Passphrase, encryption.WithKDF(w.kdf))
		}, req)
}

// DecryptPrivateKey opens req.Sealed with req.Passphrase.
func (w *Wallet) DecryptPrivateKey(ctx context.Context, req DecryptRequest) ([]byte, error) {
	return middleware.Call[DecryptRequest, []byte](ctx, w, CapDecryptPrivateKey,
		func(_ context.Context, req DecryptRequest) ([]byte, error) {
			return encryption.DecryptPrivateKey(req.Sealed, req.Passphrase)
		}, req)
}
