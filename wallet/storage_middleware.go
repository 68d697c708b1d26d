package wallet

import (
	"context"

	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/middleware"
	"github.com/kbukum/walletkit/storage"
)

// StorageMiddleware provides the Keystore and Datastore capabilities from
// fixed stores. A nil store defers to earlier providers.
type StorageMiddleware struct {
	middleware.Base[*Wallet]

	keystore  storage.Store
	datastore storage.Store
}

// NewStorageMiddleware binds keystore and datastore to w. The same store
// may serve both.
func NewStorageMiddleware(w *Wallet, keystore, datastore storage.Store) *StorageMiddleware {
	return &StorageMiddleware{Base: middleware.NewBase(w), keystore: keystore, datastore: datastore}
}

// Keystore provides the keystore capability.
func (m *StorageMiddleware) Keystore() middleware.Stage[struct{}, storage.Store] {
	return m.serve(CapKeystore, m.keystore)
}

// Datastore provides the datastore capability.
func (m *StorageMiddleware) Datastore() middleware.Stage[struct{}, storage.Store] {
	return m.serve(CapDatastore, m.datastore)
}

func (m *StorageMiddleware) serve(capability string, store storage.Store) middleware.Stage[struct{}, storage.Store] {
	return func(next middleware.Func[struct{}, storage.Store]) middleware.Func[struct{}, storage.Store] {
		if store == nil {
			return next
		}
		return func(context.Context, struct{}) (storage.Store, error) {
			m.Host().Logger().Debug("store resolved", map[string]interface{}{
				logger.FieldCapability: capability,
			})
			return store, nil
		}
	}
}
