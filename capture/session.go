package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"main/config"
	"main/model"
	"main/utils"
)

type Status string

const (
	StatusCaptured  Status = "captured"
	StatusDuplicate Status = "duplicate"
	StatusBusy      Status = "busy"
	StatusRejected  Status = "rejected"
)

// Result is the outcome of one capture attempt. Clip is set only for
// StatusCaptured; Reason only for StatusRejected.
type Result struct {
	Status Status
	Reason string
	Clip   *model.Clip
}

// Store is wherever captured clips land: the local JSON store in
// standalone mode, or a store that also feeds the sync client.
type Store interface {
	SaveClip(ctx context.Context, clip *model.Clip) error
	// MergeDuplicate folds a near-duplicate capture into the retained
	// occurrence instead of creating a new record.
	MergeDuplicate(ctx context.Context, clipID string, tags []string, favorite bool, seenAt time.Time) error
}

type recentEntry struct {
	clipID string
	seenAt time.Time
}

// Session owns all capture state: the last-seen probe, the recent
// payload window, and the encode-failure cooldown. One session exists
// per device; no ambient globals.
type Session struct {
	mu    sync.Mutex
	store Store
	cfg   config.CaptureConfig

	ownerID  string
	deviceID string

	lastProbe   ProbeKey
	failedProbe ProbeKey
	failedAt    time.Time
	recent      map[PayloadKey]recentEntry

	// Now is swappable for tests.
	Now func() time.Time
}

func NewSession(store Store, cfg config.CaptureConfig, ownerID, deviceID string) *Session {
	return &Session{
		store:    store,
		cfg:      cfg,
		ownerID:  ownerID,
		deviceID: deviceID,
		recent:   make(map[PayloadKey]recentEntry),
	}
}

func (s *Session) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// CaptureAuto is the watcher-tick path. Only one capture may be in
// flight; an overlapping automatic attempt is rejected as busy rather
// than queued.
func (s *Session) CaptureAuto(ctx context.Context, snap Snapshot) Result {
	if !s.mu.TryLock() {
		return Result{Status: StatusBusy}
	}
	defer s.mu.Unlock()
	return s.capture(ctx, snap)
}

// CaptureManual is the user-triggered path: it waits for any in-flight
// capture to finish instead of dropping the request.
func (s *Session) CaptureManual(ctx context.Context, snap Snapshot) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capture(ctx, snap)
}

func (s *Session) capture(ctx context.Context, snap Snapshot) Result {
	if snap.Empty() {
		return Result{Status: StatusRejected, Reason: "empty clipboard"}
	}

	now := s.now()
	probe := Probe(snap)

	// Identical probe: nothing changed, skip everything including
	// encoding.
	if probe == s.lastProbe {
		return Result{Status: StatusDuplicate}
	}

	// An unchanged oversized clipboard must not re-run the whole encode
	// ladder on every tick.
	if probe == s.failedProbe && now.Sub(s.failedAt) < s.cfg.EncodeCooldown {
		return Result{Status: StatusRejected, Reason: "encode cooldown"}
	}

	clip, err := s.buildClip(snap, now)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			s.failedProbe = probe
			s.failedAt = now
		}
		return Result{Status: StatusRejected, Reason: err.Error()}
	}

	s.pruneRecent(now)
	key := Payload(clip)
	if entry, ok := s.recent[key]; ok {
		// Alternating copies (A, B, A) within the window fold into the
		// retained record.
		if err := s.store.MergeDuplicate(ctx, entry.clipID, clip.Tags, clip.IsFavorite, now); err != nil {
			return Result{Status: StatusRejected, Reason: err.Error()}
		}
		s.recent[key] = recentEntry{clipID: entry.clipID, seenAt: now}
		s.lastProbe = probe
		return Result{Status: StatusDuplicate}
	}

	if err := s.store.SaveClip(ctx, clip); err != nil {
		return Result{Status: StatusRejected, Reason: err.Error()}
	}

	s.lastProbe = probe
	s.recent[key] = recentEntry{clipID: clip.ID, seenAt: now}
	return Result{Status: StatusCaptured, Clip: clip}
}

// buildClip classifies the snapshot and assembles the candidate record,
// encoding the image inside the byte budget when one is present.
func (s *Session) buildClip(snap Snapshot, now time.Time) (*model.Clip, error) {
	clip := &model.Clip{
		ID:              utils.GenerateID(),
		OwnerID:         s.ownerID,
		OriginDeviceID:  s.deviceID,
		Content:         snap.Text,
		ClientUpdatedAt: now,
		CreatedAt:       now,
	}

	hasImage := len(snap.Image) > 0
	if hasImage {
		img, err := DecodeImage(snap.Image)
		if err != nil {
			return nil, err
		}
		encoded, err := EncodeImage(img, s.cfg.ImageByteBudget)
		if err != nil {
			return nil, err
		}
		clip.Image = &model.ImagePayload{
			Mime:     encoded.Mime,
			ByteSize: len(encoded.Data),
			Hash:     utils.ContentHash(encoded.Data),
			Data:     encoded.Data,
		}
		// Preview failure is non-fatal; the record just ships without one.
		if preview, err := EncodeImage(img, s.cfg.PreviewBudget); err == nil {
			clip.Preview = &model.ImagePreview{Mime: preview.Mime, Data: preview.Data}
		}
		if clip.Content == "" {
			clip.Content = "Image"
		}
	} else if snap.HTML != "" && model.MeaningfulHTML(snap.HTML, snap.Text) {
		clip.RichHTML = snap.HTML
	}

	clip.Kind = model.InferKind(clip.Content, clip.RichHTML, hasImage)
	if clip.Kind == model.KindLink {
		clip.SourceURL = model.DeriveSourceURL(clip.Content, clip.RichHTML)
	}
	clip.Summary = model.DeriveSummary("", clip.Kind, clip.Content, clip.SourceURL)

	return clip, nil
}

func (s *Session) pruneRecent(now time.Time) {
	for key, entry := range s.recent {
		if now.Sub(entry.seenAt) > s.cfg.DedupWindow {
			delete(s.recent, key)
		}
	}
}
