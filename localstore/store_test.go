package localstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/model"
)

func newTestStore(t *testing.T, retentionDays, maxClips int) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clips.json")
	store, err := Open(path, retentionDays, maxClips)
	require.NoError(t, err)
	return store, path
}

func testClip(id string, updatedAt time.Time) *model.Clip {
	return &model.Clip{
		ID:              id,
		OwnerID:         "owner",
		OriginDeviceID:  "device",
		Kind:            model.KindText,
		Content:         "content of " + id,
		Summary:         "content of " + id,
		ClientUpdatedAt: updatedAt,
		CreatedAt:       updatedAt,
	}
}

func TestStorePersistence(t *testing.T) {
	store, path := newTestStore(t, 0, 0)
	ctx := context.Background()

	clip := testClip("c1", time.Now().UTC())
	clip.Tags = []string{"keep"}
	require.NoError(t, store.SaveClip(ctx, clip))

	// Reopen from disk: the clip and its dirty mark survive.
	reopened, err := Open(path, 0, 0)
	require.NoError(t, err)

	got, err := reopened.GetClip("c1")
	require.NoError(t, err)
	assert.Equal(t, "content of c1", got.Content)
	assert.Equal(t, []string{"keep"}, got.Tags)

	dirty := reopened.DirtyClips()
	require.Len(t, dirty, 1)
	assert.Equal(t, "c1", dirty[0].ID)
}

func TestStoreAtomicRewrite(t *testing.T) {
	store, path := newTestStore(t, 0, 0)
	ctx := context.Background()

	require.NoError(t, store.SaveClip(ctx, testClip("c1", time.Now().UTC())))

	// No temp droppings left next to the store file.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(path), entries[0].Name())
}

func TestStoreOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clips.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Open(path, 0, 0)
	assert.Error(t, err)
}

func TestStoreSaveIsolatesCaller(t *testing.T) {
	store, _ := newTestStore(t, 0, 0)
	ctx := context.Background()

	clip := testClip("c1", time.Now().UTC())
	require.NoError(t, store.SaveClip(ctx, clip))

	// Mutating the caller's copy must not reach the store.
	clip.Content = "mutated"
	got, err := store.GetClip("c1")
	require.NoError(t, err)
	assert.Equal(t, "content of c1", got.Content)
}

func TestMergeDuplicate(t *testing.T) {
	store, _ := newTestStore(t, 0, 0)
	ctx := context.Background()

	base := testClip("c1", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	base.Tags = []string{"Work"}
	require.NoError(t, store.SaveClip(ctx, base))
	require.NoError(t, store.ClearDirty([]string{"c1"}))

	seenAt := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	err := store.MergeDuplicate(ctx, "c1", []string{"work", "新しい"}, true, seenAt)
	require.NoError(t, err)

	got, err := store.GetClip("c1")
	require.NoError(t, err)
	// Tag union is case-insensitive: "work" folds into "Work".
	assert.Equal(t, []string{"Work", "新しい"}, got.Tags)
	assert.True(t, got.IsFavorite)
	assert.True(t, got.ClientUpdatedAt.Equal(seenAt))

	// The merge re-dirties the clip for the next push.
	assert.Len(t, store.DirtyClips(), 1)

	assert.ErrorIs(t, store.MergeDuplicate(ctx, "ghost", nil, false, seenAt), ErrClipNotFound)
}

func TestRetentionExemptsFavoritesAndDirty(t *testing.T) {
	store, _ := newTestStore(t, 30, 0)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }

	old := now.AddDate(0, 0, -60)

	stale := testClip("stale", old)
	favorite := testClip("favorite", old)
	favorite.IsFavorite = true
	unpushed := testClip("unpushed", old)

	require.NoError(t, store.SaveClip(ctx, stale))
	require.NoError(t, store.SaveClip(ctx, favorite))
	require.NoError(t, store.SaveClip(ctx, unpushed))
	// stale and favorite are acknowledged; unpushed stays dirty.
	require.NoError(t, store.ClearDirty([]string{"stale", "favorite"}))

	// Any write triggers pruning.
	require.NoError(t, store.SaveClip(ctx, testClip("fresh", now)))

	_, err := store.GetClip("stale")
	assert.ErrorIs(t, err, ErrClipNotFound, "aged-out clip should be pruned")
	_, err = store.GetClip("favorite")
	assert.NoError(t, err, "favorites are exempt from retention")
	_, err = store.GetClip("unpushed")
	assert.NoError(t, err, "dirty clips survive until pushed")
}

func TestMaxClipsCap(t *testing.T) {
	store, _ := newTestStore(t, 0, 3)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	favorite := testClip("favorite", base)
	favorite.IsFavorite = true
	require.NoError(t, store.SaveClip(ctx, favorite))
	for i := 0; i < 4; i++ {
		clip := testClip(fmt.Sprintf("c%d", i), base.Add(time.Duration(i+1)*time.Minute))
		require.NoError(t, store.SaveClip(ctx, clip))
		require.NoError(t, store.ClearDirty([]string{clip.ID, "favorite"}))
	}

	clips := store.ListClips()
	assert.Len(t, clips, 3, "cap should hold the collection at max")

	// The favorite survives even though it is the oldest.
	_, err := store.GetClip("favorite")
	assert.NoError(t, err)
	// The oldest non-favorites were evicted.
	_, err = store.GetClip("c0")
	assert.ErrorIs(t, err, ErrClipNotFound)
}

func TestDirtyTracking(t *testing.T) {
	store, _ := newTestStore(t, 0, 0)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveClip(ctx, testClip("c1", base)))
	require.NoError(t, store.SaveClip(ctx, testClip("c2", base.Add(time.Minute))))

	dirty := store.DirtyClips()
	require.Len(t, dirty, 2)
	// Oldest first, the push order.
	assert.Equal(t, "c1", dirty[0].ID)

	require.NoError(t, store.ClearDirty([]string{"c1"}))
	dirty = store.DirtyClips()
	require.Len(t, dirty, 1)
	assert.Equal(t, "c2", dirty[0].ID)
}

func TestApplyRemoteIsClean(t *testing.T) {
	store, _ := newTestStore(t, 0, 0)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveClip(ctx, testClip("c1", base)))
	require.Len(t, store.DirtyClips(), 1)

	remote := testClip("c1", base.Add(time.Hour))
	remote.Content = "server version"
	remote.ServerUpdatedAt = base.Add(time.Hour)
	require.NoError(t, store.ApplyRemote(remote))

	got, err := store.GetClip("c1")
	require.NoError(t, err)
	assert.Equal(t, "server version", got.Content)
	assert.Empty(t, store.DirtyClips(), "adopting the server copy settles the record")
}

func TestCursorPersistence(t *testing.T) {
	store, path := newTestStore(t, 0, 0)

	assert.Empty(t, store.Cursor())
	require.NoError(t, store.SetCursor("djE6MTc0ODc3"))

	reopened, err := Open(path, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "djE6MTc0ODc3", reopened.Cursor())
}

func TestListClipsSkipsDeleted(t *testing.T) {
	store, _ := newTestStore(t, 0, 0)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	live := testClip("live", base)
	gone := testClip("gone", base.Add(time.Minute))
	gone.IsDeleted = true
	require.NoError(t, store.SaveClip(ctx, live))
	require.NoError(t, store.SaveClip(ctx, gone))

	clips := store.ListClips()
	require.Len(t, clips, 1)
	assert.Equal(t, "live", clips[0].ID)
}
