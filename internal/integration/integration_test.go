package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userhub/backend/internal/pubsub"
	"github.com/userhub/backend/internal/service"
	"github.com/userhub/backend/internal/session"
	"github.com/userhub/backend/internal/testhelpers"
	"github.com/userhub/backend/internal/types"
)

type nopBlobStore struct{}

func (nopBlobStore) DeleteByURL(ctx context.Context, url string) error { return nil }

// TestAccountLifecycleOnPostgres runs the signup / edit / delete flow
// against a real PostgreSQL instance. Skipped when docker is unavailable.
func TestAccountLifecycleOnPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := testhelpers.SetupPostgresDatabase(t)

	observer := session.NewObserver()
	broker := pubsub.NewMemoryBroker()
	identity := service.NewIdentityService(db, "test-secret", 15*time.Minute, observer)
	profiles := service.NewProfileService(db, broker)
	accounts := service.NewAccountService(identity, profiles, nopBlobStore{})
	watcher := service.NewProfileWatcher(profiles, broker)

	ctx := context.Background()

	result, err := accounts.Signup(ctx, &types.SignupRequest{
		Name:            "Alice",
		Email:           "alice@example.com",
		Username:        "alice",
		MobileNumber:    "07700900000",
		Password:        "password123",
		ConfirmPassword: "password123",
	})
	require.NoError(t, err)
	userID := result.User.ID

	w := watcher.Watch(ctx, userID)
	defer w.Cancel()

	snap := <-w.Snapshots()
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "alice", snap.Profile.Username)

	_, err = profiles.Update(ctx, userID, &types.UpdateProfileRequest{
		Name:         "Alice Smith",
		Username:     "asmith",
		MobileNumber: "07700900001",
	})
	require.NoError(t, err)

	select {
	case snap = <-w.Snapshots():
		require.NotNil(t, snap.Profile)
		assert.Equal(t, "asmith", snap.Profile.Username)
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot after profile update")
	}

	_, err = accounts.DeleteAccount(ctx, userID, time.Now(), "password123")
	require.NoError(t, err)

	select {
	case snap = <-w.Snapshots():
		assert.Nil(t, snap.Profile)
		assert.NoError(t, snap.Err)
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot after account deletion")
	}

	assert.Equal(t, session.StateUnauthenticated, observer.State())
}
