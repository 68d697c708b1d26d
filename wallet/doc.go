// Package wallet is a key-managing host whose storage and key encryption
// are supplied by middleware.
//
// A Wallet exposes four capabilities. Middleware registered with Use
// provides or wraps them:
//
//	Keystore           optional; without a provider keys stay in memory
//	Datastore          required; Unlock and SetupAndUnlock fail without it
//	EncryptPrivateKey  defaults to package encryption
//	DecryptPrivateKey  defaults to package encryption
//
// Typical setup:
//
//	w := wallet.New(wallet.WithLogger(log))
//	if err := w.Use(wallet.NewStorageMiddleware(w, store, store)); err != nil {
//	    return err
//	}
//	err := w.Keys().SetupAndUnlock(ctx, appID, passphrase)
package wallet
