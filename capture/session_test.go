package capture

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"main/config"
	"main/model"
)

type fakeStore struct {
	mu     sync.Mutex
	saved  []*model.Clip
	merged []string

	saveWait chan struct{} // when set, SaveClip blocks until closed
}

func (f *fakeStore) SaveClip(ctx context.Context, clip *model.Clip) error {
	if f.saveWait != nil {
		<-f.saveWait
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, clip)
	return nil
}

func (f *fakeStore) MergeDuplicate(ctx context.Context, clipID string, tags []string, favorite bool, seenAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merged = append(f.merged, clipID)
	return nil
}

func testConfig() config.CaptureConfig {
	return config.CaptureConfig{
		PollInterval:    time.Second,
		DedupWindow:     30 * time.Second,
		EncodeCooldown:  30 * time.Second,
		ImageByteBudget: 1024 * 1024,
		PreviewBudget:   256 * 1024,
	}
}

func newTestSession(store Store) (*Session, *time.Time) {
	session := NewSession(store, testConfig(), "owner-1", "device-1")
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	session.Now = func() time.Time { return now }
	return session, &now
}

func TestCaptureText(t *testing.T) {
	store := &fakeStore{}
	session, _ := newTestSession(store)

	result := session.CaptureAuto(context.Background(), Snapshot{Text: "hello"})
	if result.Status != StatusCaptured {
		t.Fatalf("status = %s, reason = %s", result.Status, result.Reason)
	}
	if result.Clip.Kind != model.KindText {
		t.Errorf("kind = %s", result.Clip.Kind)
	}
	if result.Clip.OwnerID != "owner-1" || result.Clip.OriginDeviceID != "device-1" {
		t.Errorf("ownership not stamped: %+v", result.Clip)
	}
	if len(store.saved) != 1 {
		t.Errorf("saved %d clips", len(store.saved))
	}
}

func TestCaptureEmptyRejected(t *testing.T) {
	session, _ := newTestSession(&fakeStore{})
	result := session.CaptureAuto(context.Background(), Snapshot{})
	if result.Status != StatusRejected {
		t.Errorf("status = %s", result.Status)
	}
}

func TestCaptureUnchangedProbeIsDuplicate(t *testing.T) {
	store := &fakeStore{}
	session, _ := newTestSession(store)
	snap := Snapshot{Text: "same content"}

	if r := session.CaptureAuto(context.Background(), snap); r.Status != StatusCaptured {
		t.Fatalf("first capture: %s", r.Status)
	}
	for i := 0; i < 3; i++ {
		if r := session.CaptureAuto(context.Background(), snap); r.Status != StatusDuplicate {
			t.Fatalf("repeat %d: %s", i, r.Status)
		}
	}
	if len(store.saved) != 1 {
		t.Errorf("repeated ticks must not save again, saved %d", len(store.saved))
	}
	if len(store.merged) != 0 {
		t.Errorf("unchanged probe must short-circuit before the payload window")
	}
}

func TestCaptureAlternationMerges(t *testing.T) {
	store := &fakeStore{}
	session, now := newTestSession(store)
	ctx := context.Background()

	a := Snapshot{Text: "content A"}
	b := Snapshot{Text: "content B"}

	first := session.CaptureAuto(ctx, a)
	if first.Status != StatusCaptured {
		t.Fatal("capture A failed")
	}
	*now = now.Add(2 * time.Second)
	if r := session.CaptureAuto(ctx, b); r.Status != StatusCaptured {
		t.Fatal("capture B failed")
	}
	*now = now.Add(2 * time.Second)

	// A again: probe differs from last (B), but the payload is still in
	// the window, so it folds into the original record.
	r := session.CaptureAuto(ctx, a)
	if r.Status != StatusDuplicate {
		t.Fatalf("re-copy of A: %s", r.Status)
	}
	if len(store.saved) != 2 {
		t.Errorf("saved %d clips, want 2", len(store.saved))
	}
	if len(store.merged) != 1 || store.merged[0] != first.Clip.ID {
		t.Errorf("merge should target the retained clip: %v", store.merged)
	}
}

func TestCaptureWindowExpiry(t *testing.T) {
	store := &fakeStore{}
	session, now := newTestSession(store)
	ctx := context.Background()

	session.CaptureAuto(ctx, Snapshot{Text: "content A"})
	*now = now.Add(time.Second)
	session.CaptureAuto(ctx, Snapshot{Text: "content B"})

	// Past the dedup window the same payload is a fresh clip again.
	*now = now.Add(time.Minute)
	r := session.CaptureAuto(ctx, Snapshot{Text: "content A"})
	if r.Status != StatusCaptured {
		t.Fatalf("expired payload should re-capture: %s (%s)", r.Status, r.Reason)
	}
	if len(store.saved) != 3 {
		t.Errorf("saved %d clips, want 3", len(store.saved))
	}
}

func TestCaptureAutoBusy(t *testing.T) {
	store := &fakeStore{saveWait: make(chan struct{})}
	session, _ := newTestSession(store)
	ctx := context.Background()

	started := make(chan struct{})
	done := make(chan Result, 1)
	go func() {
		close(started)
		done <- session.CaptureAuto(ctx, Snapshot{Text: "slow"})
	}()
	<-started
	// Give the goroutine time to take the lock and block in SaveClip.
	time.Sleep(50 * time.Millisecond)

	if r := session.CaptureAuto(ctx, Snapshot{Text: "other"}); r.Status != StatusBusy {
		t.Errorf("overlapping auto capture = %s, want busy", r.Status)
	}

	close(store.saveWait)
	if r := <-done; r.Status != StatusCaptured {
		t.Errorf("first capture = %s", r.Status)
	}
}

func TestCaptureManualWaits(t *testing.T) {
	store := &fakeStore{saveWait: make(chan struct{})}
	session, _ := newTestSession(store)
	ctx := context.Background()

	first := make(chan Result, 1)
	go func() {
		first <- session.CaptureAuto(ctx, Snapshot{Text: "slow"})
	}()
	time.Sleep(50 * time.Millisecond)

	second := make(chan Result, 1)
	go func() {
		second <- session.CaptureManual(ctx, Snapshot{Text: "queued"})
	}()
	time.Sleep(50 * time.Millisecond)
	close(store.saveWait)

	if r := <-first; r.Status != StatusCaptured {
		t.Errorf("first = %s", r.Status)
	}
	if r := <-second; r.Status != StatusCaptured {
		t.Errorf("manual capture should wait and then run, got %s (%s)", r.Status, r.Reason)
	}
}

func TestCaptureEncodeCooldown(t *testing.T) {
	store := &fakeStore{}
	session, now := newTestSession(store)
	cfg := testConfig()
	cfg.ImageByteBudget = 16 // nothing fits
	session.cfg = cfg
	ctx := context.Background()

	img := image.NewRGBA(image.Rect(0, 0, 600, 600))
	for y := 0; y < 600; y++ {
		for x := 0; x < 600; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x ^ y), G: uint8(x * y), B: uint8(x + y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	snap := Snapshot{Image: buf.Bytes()}

	if r := session.CaptureAuto(ctx, snap); r.Status != StatusRejected {
		t.Fatalf("oversized image should reject, got %s", r.Status)
	}

	// Within the cooldown the same snapshot must not re-run the encoder.
	*now = now.Add(5 * time.Second)
	if r := session.CaptureAuto(ctx, snap); r.Status != StatusRejected || r.Reason != "encode cooldown" {
		t.Errorf("expected cooldown rejection, got %s (%s)", r.Status, r.Reason)
	}

	// Past the cooldown the encode runs (and fails) again.
	*now = now.Add(time.Minute)
	r := session.CaptureAuto(ctx, snap)
	if r.Status != StatusRejected || r.Reason == "encode cooldown" {
		t.Errorf("cooldown should have lapsed, got %s (%s)", r.Status, r.Reason)
	}
}

func TestCaptureImageClip(t *testing.T) {
	store := &fakeStore{}
	session, _ := newTestSession(store)

	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	r := session.CaptureAuto(context.Background(), Snapshot{Image: buf.Bytes()})
	if r.Status != StatusCaptured {
		t.Fatalf("status = %s (%s)", r.Status, r.Reason)
	}
	clip := r.Clip
	if clip.Kind != model.KindImage {
		t.Errorf("kind = %s", clip.Kind)
	}
	if clip.Image == nil || len(clip.Image.Data) == 0 {
		t.Fatal("image payload missing")
	}
	if clip.Image.Hash == "" || clip.Image.ByteSize != len(clip.Image.Data) {
		t.Errorf("payload metadata inconsistent: %+v", clip.Image)
	}
	if clip.Content != "Image" || clip.Summary != "Image" {
		t.Errorf("image fallback labels: content=%q summary=%q", clip.Content, clip.Summary)
	}
}

func TestCaptureLinkClip(t *testing.T) {
	session, _ := newTestSession(&fakeStore{})

	r := session.CaptureAuto(context.Background(), Snapshot{Text: "https://example.com/article"})
	if r.Status != StatusCaptured {
		t.Fatal(r.Reason)
	}
	if r.Clip.Kind != model.KindLink {
		t.Errorf("kind = %s", r.Clip.Kind)
	}
	if r.Clip.SourceURL != "https://example.com/article" {
		t.Errorf("source url = %q", r.Clip.SourceURL)
	}
	if r.Clip.Summary != "https://example.com/article" {
		t.Errorf("summary = %q", r.Clip.Summary)
	}
}

func TestCaptureDropsMeaninglessHTML(t *testing.T) {
	session, _ := newTestSession(&fakeStore{})

	r := session.CaptureAuto(context.Background(), Snapshot{
		Text: "plain words",
		HTML: "<span>plain words</span>",
	})
	if r.Status != StatusCaptured {
		t.Fatal(r.Reason)
	}
	if r.Clip.RichHTML != "" {
		t.Error("wrapper-only html should be dropped")
	}
	if r.Clip.Kind != model.KindText {
		t.Errorf("kind = %s", r.Clip.Kind)
	}
}
