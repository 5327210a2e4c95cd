package testsupport

import (
	"context"
	"testing"

	"bizcard/internal/config"
	"bizcard/internal/contact"
	"bizcard/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewCard inserts a card with the given name and email and returns it.
func NewCard(t testing.TB, st *store.Store, name, email string) contact.Record {
	t.Helper()

	rec := contact.NewRecord()
	rec.Name = name
	rec.Email = email
	saved, err := st.InsertUnique(context.Background(), rec)
	if err != nil {
		t.Fatalf("store.InsertUnique: %v", err)
	}
	return saved
}
