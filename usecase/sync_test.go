package usecase

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"main/dto"
	"main/model"
)

func TestPushMixedBatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Seed a record another device already advanced.
	if _, err := f.service.Apply(ctx, "owner", "desktop", textChange("existing", "v2", at(300))); err != nil {
		t.Fatal(err)
	}

	batch := []dto.ClipChange{
		textChange("fresh", "brand new", at(100)),
		textChange("existing", "stale laptop copy", at(200)),
	}
	applied, conflicts, err := f.service.Push(ctx, "owner", "laptop", batch)
	if err != nil {
		t.Fatal(err)
	}

	if len(applied) != 1 || applied[0].ID != "fresh" {
		t.Errorf("applied = %v", applied)
	}
	if len(conflicts) != 1 || conflicts[0].ID != "existing" {
		t.Fatalf("conflicts = %v", conflicts)
	}
	// The conflict entry carries the winning record for the device to adopt.
	if conflicts[0].Content != "v2" {
		t.Errorf("conflict content = %q", conflicts[0].Content)
	}
}

func TestPushBatchLimit(t *testing.T) {
	f := newFixture()
	batch := make([]dto.ClipChange, maxPushBatch+1)
	for i := range batch {
		batch[i] = textChange("c", "x", at(1))
	}
	if _, _, err := f.service.Push(context.Background(), "owner", "a", batch); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v", err)
	}
}

func TestPushBadEntryFailsBatch(t *testing.T) {
	f := newFixture()
	batch := []dto.ClipChange{
		textChange("good", "fine", at(1)),
		{ID: "", ClientUpdatedAt: at(1)},
	}
	if _, _, err := f.service.Push(context.Background(), "owner", "a", batch); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v", err)
	}
}

func TestPullOrderingAndResume(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	ids := []string{"c1", "c2", "c3", "c4", "c5"}
	for i, id := range ids {
		f.now = at(10 + i)
		if _, err := f.service.Apply(ctx, "owner", "a", textChange(id, "clip "+id, at(i))); err != nil {
			t.Fatal(err)
		}
	}
	// Tombstone one of them; pull must still carry it.
	f.now = at(20)
	if _, err := f.service.Delete(ctx, "owner", "a", "c2", at(30)); err != nil {
		t.Fatal(err)
	}

	var got []string
	since := ""
	for {
		changes, nextSince, hasMore, err := f.service.Pull(ctx, "owner", since, 2)
		if err != nil {
			t.Fatal(err)
		}
		for _, clip := range changes {
			got = append(got, clip.ID)
		}
		since = nextSince
		if !hasMore {
			break
		}
	}

	// Oldest first, with the tombstoned c2 reordered to the end by its
	// newer server_updated_at.
	want := []string{"c1", "c3", "c4", "c5", "c2"}
	if len(got) != len(want) {
		t.Fatalf("pulled %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pulled %v, want %v", got, want)
		}
	}

	// The final cursor is stable: pulling again yields nothing new.
	changes, nextSince, hasMore, err := f.service.Pull(ctx, "owner", since, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 0 || hasMore {
		t.Errorf("drained pull returned %d changes", len(changes))
	}
	if nextSince != since {
		t.Error("empty pull must not move the cursor")
	}
}

func TestPullTombstoneVisible(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.service.Apply(ctx, "owner", "a", textChange("c1", "text", at(1)))
	f.now = at(2)
	f.service.Delete(ctx, "owner", "a", "c1", at(5))

	changes, _, _, err := f.service.Pull(ctx, "owner", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 || !changes[0].IsDeleted {
		t.Fatalf("pull should surface the tombstone, got %+v", changes)
	}
}

func TestPullCompleteUnderConcurrentInserts(t *testing.T) {
	// Records keep arriving while a device drains its pull. The ascending
	// (server_updated_at, _id) walk must hand over every record exactly
	// once: nothing skipped, nothing repeated, late arrivals picked up in
	// a later batch.
	f := newFixture()
	ctx := context.Background()

	for i, id := range []string{"c1", "c2", "c3", "c4"} {
		f.now = at(10 + i)
		if _, err := f.service.Apply(ctx, "owner", "a", textChange(id, "clip "+id, at(i))); err != nil {
			t.Fatal(err)
		}
	}

	seen := make(map[string]int)
	var prev *model.Clip
	since := ""
	extra := 0
	for {
		changes, nextSince, hasMore, err := f.service.Pull(ctx, "owner", since, 2)
		if err != nil {
			t.Fatal(err)
		}
		for _, clip := range changes {
			seen[clip.ID]++
			if prev != nil {
				if clip.ServerUpdatedAt.Before(prev.ServerUpdatedAt) ||
					(clip.ServerUpdatedAt.Equal(prev.ServerUpdatedAt) && clip.ID <= prev.ID) {
					t.Fatalf("pull order regressed: %s@%v after %s@%v",
						clip.ID, clip.ServerUpdatedAt, prev.ID, prev.ServerUpdatedAt)
				}
			}
			prev = clip
		}
		since = nextSince
		if !hasMore {
			break
		}

		// Another device pushes between batches.
		extra++
		f.now = at(100 + extra)
		id := "new" + strconv.Itoa(extra)
		if _, err := f.service.Apply(ctx, "owner", "b", textChange(id, "late "+id, at(50+extra))); err != nil {
			t.Fatal(err)
		}
	}

	if extra == 0 {
		t.Fatal("no concurrent inserts landed during the drain")
	}
	want := 4 + extra
	if len(seen) != want {
		t.Fatalf("pulled %d distinct clips, want %d: %v", len(seen), want, seen)
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("clip %s pulled %d times", id, n)
		}
	}
}

func TestPullBadCursor(t *testing.T) {
	f := newFixture()
	if _, _, _, err := f.service.Pull(context.Background(), "owner", "not-a-cursor", 10); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v", err)
	}
}
