package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/walletkit/errors"
	"github.com/kbukum/walletkit/observability"
	"github.com/kbukum/walletkit/storage"
)

func newAccount(t *testing.T) (Account, ed25519.PrivateKey) {
	t.Helper()
	account, priv, err := NewKey()
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	return account, priv
}

func setup(t *testing.T, w *Wallet) {
	t.Helper()
	if err := w.Keys().SetupAndUnlock(context.Background(), "walletkit-test", "passphrase"); err != nil {
		t.Fatalf("SetupAndUnlock: %v", err)
	}
}

func TestAddKeyWithoutKeystore(t *testing.T) {
	w := newWallet(t)
	ctx := context.Background()
	account, priv := newAccount(t)

	if w.Keys().Unlocked() {
		t.Fatal("new wallet must be locked")
	}
	key, err := w.Keys().AddKey(ctx, account, priv.Seed())
	if err != nil {
		t.Fatalf("AddKey without keystore must not need unlock: %v", err)
	}
	if !key.Unlocked() || len(key.PrivateKeyEncrypted) != 0 {
		t.Errorf("expected plaintext-only key, got %+v", key)
	}

	sig, err := w.Keys().SignMessage(ctx, account, []byte("hello"), EncodingHex)
	if err != nil {
		t.Fatalf("SignMessage: %v", err)
	}
	ok, err := VerifyMessage(account.Address, []byte("hello"), sig, EncodingHex)
	if err != nil || !ok {
		t.Errorf("expected valid signature, got %v (%v)", ok, err)
	}
}

func TestAddKeyRequiresUnlockWithKeystore(t *testing.T) {
	w, _ := newStoredWallet(t)
	account, priv := newAccount(t)

	_, err := w.Keys().AddKey(context.Background(), account, priv)
	if !errors.Is(err, errors.ErrCodeLocked) {
		t.Fatalf("expected LOCKED, got %v", err)
	}
	if !strings.Contains(err.Error(), "unlock wallet before adding key") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if _, err := w.Keys().GetKey(context.Background(), account); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("rejected key must not be cached, got %v", err)
	}
}

func TestAddKeyRejectsBadInput(t *testing.T) {
	w := newWallet(t)
	ctx := context.Background()
	account, _ := newAccount(t)

	if _, err := w.Keys().AddKey(ctx, account, []byte("short")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for bad key length, got %v", err)
	}
	if _, err := w.Keys().AddKey(ctx, Account{}, make([]byte, 32)); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for empty address, got %v", err)
	}
}

func TestAddKeyRejectsForeignKey(t *testing.T) {
	ctx := context.Background()
	account, _ := newAccount(t)
	_, foreign := newAccount(t)
	w, store := newStoredWallet(t)
	setup(t, w)

	for name, raw := range map[string][]byte{"seed": foreign.Seed(), "private key": foreign} {
		_, err := w.Keys().AddKey(ctx, account, raw)
		if !errors.Is(err, errors.ErrCodeInvalidInput) || !strings.Contains(err.Error(), "key does not belong to account") {
			t.Errorf("%s: expected INVALID_INPUT, got %v", name, err)
		}
	}
	_, err := w.Keys().ImportKey(ctx, ImportSpec{Account: account, PrivateKey: foreign.Seed()})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ImportKey: expected INVALID_INPUT, got %v", err)
	}

	if _, err := w.Keys().GetKey(ctx, account); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("foreign key must not be cached, got %v", err)
	}
	if keys, _ := store.Index(IndexKeys).Keys(ctx); len(keys) != 0 {
		t.Errorf("foreign key must not be persisted, got %v", keys)
	}
}

func TestSigningTagsSpanWithAddress(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	w := newWallet(t)
	account, priv := newAccount(t)
	if _, err := w.Keys().AddKey(context.Background(), account, priv); err != nil {
		t.Fatalf("AddKey: %v", err)
	}

	ctx, span := tp.Tracer("test").Start(context.Background(), "sign")
	if _, err := w.Keys().SignMessage(ctx, account, []byte("m"), EncodingHex); err != nil {
		t.Fatalf("SignMessage: %v", err)
	}
	span.End()

	var got string
	for _, kv := range sr.Ended()[0].Attributes() {
		if string(kv.Key) == observability.AttrAddress {
			got = kv.Value.AsString()
		}
	}
	if got != account.Address {
		t.Errorf("expected span address %s, got %q", account.Address, got)
	}
}

func TestKeysPersistEncrypted(t *testing.T) {
	w, store := newStoredWallet(t)
	setup(t, w)
	ctx := context.Background()
	account, priv := newAccount(t)

	if _, err := w.Keys().AddKey(ctx, account, priv); err != nil {
		t.Fatalf("AddKey: %v", err)
	}

	raw, err := store.Index(IndexKeys).Get(ctx, account.Address)
	if err != nil {
		t.Fatalf("expected stored key record: %v", err)
	}
	var record Key
	if err := json.Unmarshal(raw, &record); err != nil {
		t.Fatal(err)
	}
	if len(record.PrivateKey) != 0 || len(record.PrivateKeyEncrypted) == 0 {
		t.Fatalf("stored record must hold only the encrypted key, got %+v", record)
	}

	// a second wallet over the same store sees the key after unlocking
	other := newWallet(t)
	if err := other.Use(NewStorageMiddleware(other, store, store)); err != nil {
		t.Fatal(err)
	}
	locked, err := other.Keys().GetKey(ctx, account)
	if err != nil {
		t.Fatalf("GetKey from keystore: %v", err)
	}
	if locked.Unlocked() {
		t.Error("key loaded from keystore must be locked")
	}
	if _, err := other.Keys().GetUnlockedKey(ctx, account); !errors.Is(err, errors.ErrCodeLocked) {
		t.Errorf("expected LOCKED before unlock, got %v", err)
	}

	if err := other.Keys().Unlock(ctx, "passphrase"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	unlocked, err := other.Keys().GetUnlockedKey(ctx, account)
	if err != nil {
		t.Fatalf("GetUnlockedKey: %v", err)
	}
	if !reflect.DeepEqual([]byte(unlocked.PrivateKey), []byte(priv)) {
		t.Error("decrypted key differs from the original")
	}

	signed, err := other.Keys().SignTransaction(ctx, account, Transaction{To: "recipient", Amount: "10", Nonce: 1})
	if err != nil {
		t.Fatalf("SignTransaction: %v", err)
	}
	if signed.From != account.Address {
		t.Errorf("expected from to be filled, got %q", signed.From)
	}
	if err := signed.Verify(); err != nil {
		t.Errorf("signed transaction must verify: %v", err)
	}
}

func TestUnlockWrongPassphrase(t *testing.T) {
	w, _ := newStoredWallet(t)
	setup(t, w)
	w.Keys().Lock()

	err := w.Keys().Unlock(context.Background(), "wrong")
	if !errors.Is(err, errors.ErrCodeInvalidPassphrase) {
		t.Fatalf("expected INVALID_PASSPHRASE, got %v", err)
	}
	if w.Keys().Unlocked() {
		t.Error("wallet must stay locked")
	}
}

func TestUnlockBeforeSetup(t *testing.T) {
	w, _ := newStoredWallet(t)
	if err := w.Keys().Unlock(context.Background(), "passphrase"); !errors.Is(err, errors.ErrCodeNotConfigured) {
		t.Errorf("expected NOT_CONFIGURED, got %v", err)
	}
}

func TestUnlockWithoutDatastore(t *testing.T) {
	w := newWallet(t)
	ctx := context.Background()
	for name, err := range map[string]error{
		"unlock": w.Keys().Unlock(ctx, "passphrase"),
		"setup":  w.Keys().SetupAndUnlock(ctx, "app", "passphrase"),
	} {
		if !errors.Is(err, errors.ErrCodeNotConfigured) || !strings.Contains(err.Error(), "configure storage before accessing keystore") {
			t.Errorf("%s: expected NOT_CONFIGURED, got %v", name, err)
		}
	}
}

func TestSetupAndUnlockValidates(t *testing.T) {
	w, _ := newStoredWallet(t)
	if err := w.Keys().SetupAndUnlock(context.Background(), "", ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
	err := w.Keys().SetupAndUnlock(context.Background(), "app", "short")
	if !errors.Is(err, errors.ErrCodeInvalidInput) || !strings.Contains(err.Error(), "at least 8 characters") {
		t.Errorf("expected short passphrase to be rejected, got %v", err)
	}
	if w.Keys().Unlocked() {
		t.Error("rejected setup must leave the wallet locked")
	}
}

func TestGetKeyMissing(t *testing.T) {
	account, _ := newAccount(t)
	stored, _ := newStoredWallet(t)

	for name, w := range map[string]*Wallet{"memory only": newWallet(t), "keystore": stored} {
		t.Run(name, func(t *testing.T) {
			_, err := w.Keys().GetKey(context.Background(), account)
			if !errors.Is(err, errors.ErrCodeNotFound) {
				t.Fatalf("expected NOT_FOUND, got %v", err)
			}
			if !strings.Contains(err.Error(), "missing key for account "+account.Address) {
				t.Errorf("unexpected message %q", err.Error())
			}
		})
	}
}

func TestLockDropsPersistedPlaintext(t *testing.T) {
	w, _ := newStoredWallet(t)
	setup(t, w)
	ctx := context.Background()
	account, priv := newAccount(t)
	if _, err := w.Keys().AddKey(ctx, account, priv); err != nil {
		t.Fatal(err)
	}

	w.Keys().Lock()
	key, err := w.Keys().GetKey(ctx, account)
	if err != nil {
		t.Fatal(err)
	}
	if key.Unlocked() {
		t.Error("lock must drop plaintext of persisted keys")
	}
	if _, err := w.Keys().SignMessage(ctx, account, []byte("m"), ""); !errors.Is(err, errors.ErrCodeLocked) {
		t.Errorf("expected LOCKED, got %v", err)
	}

	if err := w.Keys().Unlock(ctx, "passphrase"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Keys().SignMessage(ctx, account, []byte("m"), EncodingBase58); err != nil {
		t.Errorf("expected signing after unlock, got %v", err)
	}
}

func TestLockKeepsMemoryOnlyKeys(t *testing.T) {
	w := newWallet(t)
	ctx := context.Background()
	account, priv := newAccount(t)
	if _, err := w.Keys().AddKey(ctx, account, priv); err != nil {
		t.Fatal(err)
	}
	w.Keys().Lock()
	if _, err := w.Keys().GetUnlockedKey(ctx, account); err != nil {
		t.Errorf("memory-only key must survive lock, got %v", err)
	}
}

func TestRemoveAndClearKeys(t *testing.T) {
	w, store := newStoredWallet(t)
	setup(t, w)
	ctx := context.Background()
	a, privA := newAccount(t)
	b, privB := newAccount(t)
	for _, k := range []struct {
		acc  Account
		priv ed25519.PrivateKey
	}{{a, privA}, {b, privB}} {
		if _, err := w.Keys().AddKey(ctx, k.acc, k.priv); err != nil {
			t.Fatal(err)
		}
	}

	addrs, err := w.Keys().Addresses(ctx)
	if err != nil || len(addrs) != 2 {
		t.Fatalf("expected 2 addresses, got %v (%v)", addrs, err)
	}

	if err := w.Keys().RemoveKey(ctx, a.Address); err != nil {
		t.Fatalf("RemoveKey: %v", err)
	}
	if _, err := w.Keys().GetKey(ctx, a); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("expected removed key to be gone, got %v", err)
	}
	if _, err := store.Index(IndexKeys).Get(ctx, a.Address); err != storage.ErrNotFound {
		t.Errorf("expected removed key to be deleted from keystore, got %v", err)
	}

	if err := w.Keys().ClearKeys(ctx); err != nil {
		t.Fatalf("ClearKeys: %v", err)
	}
	if addrs, _ := w.Keys().Addresses(ctx); len(addrs) != 0 {
		t.Errorf("expected no addresses after clear, got %v", addrs)
	}
}

func TestImportAndExportKey(t *testing.T) {
	w := newWallet(t)
	ctx := context.Background()
	account, priv := newAccount(t)
	if _, err := w.Keys().AddKey(ctx, account, priv); err != nil {
		t.Fatal(err)
	}
	exported, err := w.Keys().ExportKey(ctx, account, "export-pw")
	if err != nil {
		t.Fatalf("ExportKey: %v", err)
	}

	target := newWallet(t)
	key, err := target.Keys().ImportKey(ctx, ImportSpec{Account: account, B58Encrypted: exported, Password: "export-pw"})
	if err != nil {
		t.Fatalf("ImportKey: %v", err)
	}
	if !reflect.DeepEqual([]byte(key.PrivateKey), []byte(priv)) {
		t.Error("imported key differs from exported one")
	}

	tests := []struct {
		name string
		spec ImportSpec
		code errors.ErrorCode
		msg  string
	}{
		{"wrong password", ImportSpec{Account: account, B58Encrypted: exported, Password: "nope"}, errors.ErrCodeInvalidPassphrase, "invalid passphrase"},
		{"malformed export", ImportSpec{Account: account, B58Encrypted: "0OIl", Password: "pw"}, errors.ErrCodeInvalidInput, "malformed encrypted key"},
		{"no key", ImportSpec{Account: account}, errors.ErrCodeInvalidInput, "no key provided"},
		{"password without key", ImportSpec{Account: account, Password: "pw"}, errors.ErrCodeInvalidInput, "b58encrypted"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newWallet(t).Keys().ImportKey(ctx, tc.spec)
			if !errors.Is(err, tc.code) || !strings.Contains(err.Error(), tc.msg) {
				t.Errorf("expected %s containing %q, got %v", tc.code, tc.msg, err)
			}
		})
	}
}

func TestImportRawKeyWins(t *testing.T) {
	w := newWallet(t)
	account, priv := newAccount(t)
	key, err := w.Keys().ImportKey(context.Background(), ImportSpec{Account: account, PrivateKey: priv.Seed()})
	if err != nil {
		t.Fatalf("ImportKey: %v", err)
	}
	if !reflect.DeepEqual([]byte(key.PrivateKey), []byte(priv)) {
		t.Error("seed must expand to the original private key")
	}
}

func TestExportRequiresPassword(t *testing.T) {
	w := newWallet(t)
	account, priv := newAccount(t)
	_, _ = w.Keys().AddKey(context.Background(), account, priv)
	if _, err := w.Keys().ExportKey(context.Background(), account, ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestEvents(t *testing.T) {
	w, _ := newStoredWallet(t)
	ctx := context.Background()

	var got []EventType
	var added *Key
	unsubscribe := w.Keys().Subscribe(func(ev Event) {
		got = append(got, ev.Type)
		if ev.Type == EventAdd {
			added = ev.Key
		}
	})

	setup(t, w)
	account, priv := newAccount(t)
	_, _ = w.Keys().AddKey(ctx, account, priv)
	_, _ = w.Keys().AddKey(ctx, account, priv)
	_ = w.Keys().RemoveKey(ctx, account.Address)
	w.Keys().Lock()

	want := []EventType{EventUnlock, EventAdd, EventUpdate, EventChange, EventLock}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if added == nil || added.Address != account.Address || len(added.PrivateKey) != 0 {
		t.Errorf("event key must be redacted, got %+v", added)
	}

	unsubscribe()
	unsubscribe()
	w.Keys().Lock()
	if len(got) != len(want) {
		t.Errorf("unsubscribed handler must not run, got %v", got)
	}
}
