package applications

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Runs against a local emulator, e.g. `gcloud emulators firestore start --host-port=127.0.0.1:8681`.
func TestFirestoreStoreAgainstEmulator(t *testing.T) {
	host := os.Getenv(envEmulatorHost)
	if host == "" {
		t.Skip(envEmulatorHost + " not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client, err := NewFirestoreClient(ctx, FirestoreConfig{ProjectID: "test-project", EmulatorHost: host})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewFirestoreStore(client, "merchant_applications_test_"+time.Now().Format("150405.000000"))
	app := FromSubmission(sampleSubmission())
	app.ID = "01EMULATOR"
	app.CreatedAt = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, app))

	err = store.Insert(ctx, app)
	require.ErrorIs(t, err, ErrConflict)

	got, err := store.Get(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, app.DBAName, got.DBAName)
	require.Equal(t, app.Products, got.Products)

	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	list, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestNewFirestoreClientRequiresProject(t *testing.T) {
	_, err := NewFirestoreClient(context.Background(), FirestoreConfig{})
	require.Error(t, err)
}
