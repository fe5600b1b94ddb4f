package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/pubsub"
	"github.com/userhub/backend/internal/service"
	"github.com/userhub/backend/internal/testhelpers"
	"github.com/userhub/backend/internal/types"
)

func setupWatchTest(t *testing.T) (*service.ProfileWatcher, *service.ProfileService) {
	db := testhelpers.SetupTestDatabase(t)
	broker := pubsub.NewMemoryBroker()
	profiles := service.NewProfileService(db, broker)
	return service.NewProfileWatcher(profiles, broker), profiles
}

func nextSnapshot(t *testing.T, w *service.Watch) service.ProfileSnapshot {
	t.Helper()
	select {
	case snap, ok := <-w.Snapshots():
		if !ok {
			t.Fatal("watch closed before a snapshot arrived")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a snapshot")
	}
	return service.ProfileSnapshot{}
}

func TestWatchEmitsInitialSnapshot(t *testing.T) {
	watcher, profiles := setupWatchTest(t)

	profile := &models.UserProfile{
		ID:           uuid.New(),
		Name:         "Alice",
		Email:        "alice@example.com",
		Username:     "alice",
		MobileNumber: "07700900000",
	}
	require.NoError(t, profiles.Create(context.Background(), profile))

	w := watcher.Watch(context.Background(), profile.ID)
	defer w.Cancel()

	snap := nextSnapshot(t, w)
	require.NoError(t, snap.Err)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "alice", snap.Profile.Username)
}

// wrappingGetter returns a wrapped not-found error, the way a store layer
// that annotates its errors would.
type wrappingGetter struct{}

func (wrappingGetter) Get(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	return nil, fmt.Errorf("loading profile %s: %w", id, service.ErrProfileNotFound)
}

func TestWatchWrappedNotFoundIsNotAnError(t *testing.T) {
	broker := pubsub.NewMemoryBroker()
	watcher := service.NewProfileWatcher(wrappingGetter{}, broker)

	w := watcher.Watch(context.Background(), uuid.New())
	defer w.Cancel()

	snap := nextSnapshot(t, w)
	assert.NoError(t, snap.Err)
	assert.Nil(t, snap.Profile)
}

func TestWatchMissingDocumentIsNotAnError(t *testing.T) {
	watcher, _ := setupWatchTest(t)

	w := watcher.Watch(context.Background(), uuid.New())
	defer w.Cancel()

	snap := nextSnapshot(t, w)
	assert.NoError(t, snap.Err)
	assert.Nil(t, snap.Profile)
}

func TestWatchObservesUpdates(t *testing.T) {
	watcher, profiles := setupWatchTest(t)

	profile := &models.UserProfile{
		ID:           uuid.New(),
		Name:         "Alice",
		Email:        "alice@example.com",
		Username:     "alice",
		MobileNumber: "07700900000",
	}
	require.NoError(t, profiles.Create(context.Background(), profile))

	w := watcher.Watch(context.Background(), profile.ID)
	defer w.Cancel()

	nextSnapshot(t, w)

	_, err := profiles.Update(context.Background(), profile.ID, &types.UpdateProfileRequest{
		Name:         "Alice Smith",
		Username:     "asmith",
		MobileNumber: "07700900001",
	})
	require.NoError(t, err)

	snap := nextSnapshot(t, w)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "asmith", snap.Profile.Username)
}

func TestWatchObservesDeletion(t *testing.T) {
	watcher, profiles := setupWatchTest(t)

	profile := &models.UserProfile{
		ID:           uuid.New(),
		Name:         "Alice",
		Email:        "alice@example.com",
		Username:     "alice",
		MobileNumber: "07700900000",
	}
	require.NoError(t, profiles.Create(context.Background(), profile))

	w := watcher.Watch(context.Background(), profile.ID)
	defer w.Cancel()

	nextSnapshot(t, w)

	require.NoError(t, profiles.Delete(context.Background(), profile.ID))

	snap := nextSnapshot(t, w)
	assert.NoError(t, snap.Err)
	assert.Nil(t, snap.Profile)
}

func TestWatchCancelStopsEmissions(t *testing.T) {
	watcher, profiles := setupWatchTest(t)

	profile := &models.UserProfile{
		ID:           uuid.New(),
		Name:         "Alice",
		Email:        "alice@example.com",
		Username:     "alice",
		MobileNumber: "07700900000",
	}
	require.NoError(t, profiles.Create(context.Background(), profile))

	w := watcher.Watch(context.Background(), profile.ID)
	nextSnapshot(t, w)

	w.Cancel()

	// Writes after cancellation never reach the channel; it is closed and
	// drains empty.
	_, err := profiles.Update(context.Background(), profile.ID, &types.UpdateProfileRequest{
		Name:         "Alice Smith",
		Username:     "asmith",
		MobileNumber: "07700900001",
	})
	require.NoError(t, err)

	count := 0
	for range w.Snapshots() {
		count++
	}
	assert.Zero(t, count)
}

func TestWatchCancelledByContext(t *testing.T) {
	watcher, _ := setupWatchTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	w := watcher.Watch(ctx, uuid.New())

	nextSnapshot(t, w)
	cancel()

	select {
	case _, ok := <-w.Snapshots():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("watch not torn down after context cancellation")
	}
}

func TestCancelAllTearsDownEveryWatch(t *testing.T) {
	watcher, _ := setupWatchTest(t)
	profileID := uuid.New()

	w1 := watcher.Watch(context.Background(), profileID)
	w2 := watcher.Watch(context.Background(), profileID)
	other := watcher.Watch(context.Background(), uuid.New())
	defer other.Cancel()

	nextSnapshot(t, w1)
	nextSnapshot(t, w2)
	nextSnapshot(t, other)

	watcher.CancelAll(profileID)

	for _, w := range []*service.Watch{w1, w2} {
		select {
		case _, ok := <-w.Snapshots():
			assert.False(t, ok)
		case <-time.After(2 * time.Second):
			t.Fatal("watch not cancelled")
		}
	}

	// The unrelated watch is untouched.
	select {
	case _, ok := <-other.Snapshots():
		if !ok {
			t.Fatal("unrelated watch was cancelled")
		}
	case <-time.After(50 * time.Millisecond):
	}
}
