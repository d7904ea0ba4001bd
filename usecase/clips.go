package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"main/dto"
	"main/middleware"
	"main/model"
	"main/repository"
	"main/utils"
)

// ClipStore is the metadata-store contract the merge engine relies on.
// ReplaceClipIf must be an atomic compare-and-swap pinned on both the
// stored client_updated_at (at or below maxClientTime) and the exact
// server_updated_at the caller observed, so no two concurrent writes to
// the same id are both accepted without one observing the other — even
// when their client timestamps are equal.
type ClipStore interface {
	GetClip(ctx context.Context, ownerID, clipID string) (*model.Clip, error)
	InsertClip(ctx context.Context, clip *model.Clip) error
	ReplaceClipIf(ctx context.Context, clip *model.Clip, maxClientTime, observedServerTime time.Time) (bool, error)
	ListClips(ctx context.Context, opts repository.ClipListOptions) ([]*model.Clip, error)
	CountClipsWithTag(ctx context.Context, ownerID, tagName string) (int64, error)
}

type TagStore interface {
	UpsertTag(ctx context.Context, ownerID, displayName string) (*model.Tag, error)
	ListTags(ctx context.Context, ownerID string, includeDeleted bool) ([]*model.Tag, error)
	GetTag(ctx context.Context, ownerID, tagID string) (*model.Tag, error)
	MarkTagDeleted(ctx context.Context, ownerID, tagID string) error
	MarkKeyDeleted(ctx context.Context, ownerID, normalizedKey string) error
}

type ImageStore interface {
	StoreImage(ctx context.Context, ownerID string, data []byte, mime string) (*model.ImagePayload, error)
	FetchImage(ctx context.Context, payload *model.ImagePayload) ([]byte, error)
}

type RecentCache interface {
	GetRecentPage(ctx context.Context, ownerID string) (*dto.ClipsPageResponse, error)
	SetRecentPage(ctx context.Context, ownerID string, page *dto.ClipsPageResponse) error
	Invalidate(ctx context.Context, ownerID string) error
}

type ClipService struct {
	Clips  ClipStore
	Tags   TagStore
	Images ImageStore
	Cache  RecentCache // optional

	// MaxImageBytes is the hard budget an incoming encoded image may use.
	MaxImageBytes int

	// Now is swappable for tests.
	Now func() time.Time
}

func (s *ClipService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

const defaultPageSize = 50
const maxPageSize = 200

// MergeResult is one apply/conflict decision. On conflict the returned
// clip is the current authoritative record, untouched.
type MergeResult struct {
	Applied bool
	Clip    *model.Clip
}

func (s *ClipService) validateChange(change *dto.ClipChange) error {
	if strings.TrimSpace(change.ID) == "" {
		return fmt.Errorf("%w: clip id is required", ErrValidation)
	}
	if change.ClientUpdatedAt.IsZero() {
		return fmt.Errorf("%w: client_updated_at is required", ErrValidation)
	}
	if change.Kind.Defined && change.Kind.Valid && !model.ValidKind(change.Kind.Value) {
		return fmt.Errorf("%w: unknown kind %q", ErrValidation, change.Kind.Value)
	}
	if change.Content.Defined && !change.Content.Valid {
		return fmt.Errorf("%w: content cannot be null", ErrValidation)
	}
	if change.SourceURL.Defined && change.SourceURL.Valid && change.SourceURL.Value != "" &&
		!model.IsHTTPURL(change.SourceURL.Value) {
		return fmt.Errorf("%w: source_url must be an http(s) URL", ErrValidation)
	}
	if change.Image.Defined && change.Image.Valid {
		if len(change.Image.Value.Data) == 0 || change.Image.Value.Mime == "" {
			return fmt.Errorf("%w: image payload requires mime and data", ErrValidation)
		}
		if s.MaxImageBytes > 0 && len(change.Image.Value.Data) > s.MaxImageBytes {
			return fmt.Errorf("%w: image is %d bytes, budget is %d",
				ErrCapacity, len(change.Image.Value.Data), s.MaxImageBytes)
		}
	}
	return nil
}

// Apply is the authoritative conflict resolver. Whole-record LWW on
// client_updated_at; equal timestamps are accepted as re-affirming
// writes, a deliberate carry-over from the original single-user design.
func (s *ClipService) Apply(ctx context.Context, ownerID, deviceID string, change dto.ClipChange) (*MergeResult, error) {
	if err := s.validateChange(&change); err != nil {
		return nil, err
	}

	for {
		current, err := s.Clips.GetClip(ctx, ownerID, change.ID)
		if err != nil {
			return nil, err
		}

		if current != nil && change.ClientUpdatedAt.Before(current.ClientUpdatedAt) {
			middleware.TrackClipOperation("conflict")
			return &MergeResult{Applied: false, Clip: current}, nil
		}

		updated, err := s.buildClip(ctx, ownerID, deviceID, current, &change)
		if err != nil {
			return nil, err
		}

		if current == nil {
			err = s.Clips.InsertClip(ctx, updated)
			if err == repository.ErrClipExists {
				// Lost a concurrent creation race; re-read and decide again.
				continue
			}
			if err != nil {
				return nil, err
			}
			middleware.TrackClipOperation("created")
		} else {
			ok, err := s.Clips.ReplaceClipIf(ctx, updated, change.ClientUpdatedAt, current.ServerUpdatedAt)
			if err != nil {
				return nil, err
			}
			if !ok {
				// A concurrent write landed between read and swap.
				continue
			}
			middleware.TrackClipOperation("applied")
		}

		if err := s.syncTagRows(ctx, ownerID, current, updated); err != nil {
			// Tag bookkeeping failures must not lose the accepted write.
			log.Printf("tag upsert after merge failed: %v", err)
		}
		s.invalidateCache(ctx, ownerID)

		return &MergeResult{Applied: true, Clip: updated}, nil
	}
}

// buildClip materializes the accepted version: present fields replace,
// omitted keep, explicit null clears.
func (s *ClipService) buildClip(ctx context.Context, ownerID, deviceID string, current *model.Clip, change *dto.ClipChange) (*model.Clip, error) {
	now := s.now()

	var clip *model.Clip
	if current == nil {
		clip = &model.Clip{
			ID:        change.ID,
			OwnerID:   ownerID,
			CreatedAt: now,
		}
	} else {
		clip = current.Clone()
	}

	if change.OriginDeviceID != "" {
		clip.OriginDeviceID = change.OriginDeviceID
	} else if deviceID != "" {
		clip.OriginDeviceID = deviceID
	}

	if change.Content.Defined && change.Content.Valid {
		clip.Content = change.Content.Value
	}
	if change.RichHTML.Defined {
		clip.RichHTML = ""
		if change.RichHTML.Valid {
			clip.RichHTML = change.RichHTML.Value
		}
	}
	if change.SourceURL.Defined {
		clip.SourceURL = ""
		if change.SourceURL.Valid {
			clip.SourceURL = change.SourceURL.Value
		}
	}
	if change.IsFavorite.Defined {
		clip.IsFavorite = change.IsFavorite.Valid && change.IsFavorite.Value
	}
	if change.IsDeleted.Defined {
		clip.IsDeleted = change.IsDeleted.Valid && change.IsDeleted.Value
	}

	// Image handling is special-cased: a new payload goes through the
	// tiering policy, explicit null clears every image field atomically,
	// omitted leaves storage untouched.
	if change.Image.Defined {
		if change.Image.Valid {
			payload, err := s.Images.StoreImage(ctx, ownerID, change.Image.Value.Data, change.Image.Value.Mime)
			if err != nil {
				return nil, err
			}
			clip.Image = payload
			clip.Preview = nil
			if change.Preview.Defined && change.Preview.Valid {
				pv := change.Preview.Value
				clip.Preview = &pv
			}
		} else {
			clip.Image = nil
			clip.Preview = nil
		}
	} else if change.Preview.Defined && change.Preview.Valid {
		pv := change.Preview.Value
		clip.Preview = &pv
	}

	if change.Tags.Defined {
		clip.Tags = nil
		if change.Tags.Valid {
			clip.Tags = dedupTags(change.Tags.Value)
		}
	}

	// Kind is re-inferred unless explicitly supplied, so classification
	// stays a single source of truth.
	if change.Kind.Defined && change.Kind.Valid {
		clip.Kind = change.Kind.Value
	} else {
		clip.Kind = model.InferKind(clip.Content, clip.RichHTML, clip.Image != nil)
	}
	if clip.SourceURL == "" && (clip.Kind == model.KindLink) {
		clip.SourceURL = model.DeriveSourceURL(clip.Content, clip.RichHTML)
	}

	if change.Summary.Defined && change.Summary.Valid && strings.TrimSpace(change.Summary.Value) != "" {
		clip.Summary = strings.TrimSpace(change.Summary.Value)
	} else {
		clip.Summary = model.DeriveSummary("", clip.Kind, clip.Content, clip.SourceURL)
	}

	clip.ClientUpdatedAt = change.ClientUpdatedAt.UTC()
	clip.ServerUpdatedAt = now
	// server_updated_at is the sync ordering key and must never move
	// backwards for a record.
	if current != nil && !clip.ServerUpdatedAt.After(current.ServerUpdatedAt) {
		clip.ServerUpdatedAt = current.ServerUpdatedAt.Add(time.Microsecond)
	}

	return clip, nil
}

// dedupTags drops entries whose case-insensitive normalization collides,
// keeping the first casing seen.
func dedupTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		key := model.NormalizeTag(trimmed)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, trimmed)
	}
	return out
}

// syncTagRows upserts rows for the new tag set and marks rows deleted
// when the last reference went away. Rows are never hard-deleted.
func (s *ClipService) syncTagRows(ctx context.Context, ownerID string, before, after *model.Clip) error {
	if s.Tags == nil {
		return nil
	}

	afterKeys := make(map[string]bool, len(after.Tags))
	for _, tag := range after.Tags {
		afterKeys[model.NormalizeTag(tag)] = true
		if _, err := s.Tags.UpsertTag(ctx, ownerID, tag); err != nil {
			return err
		}
	}

	if before == nil {
		return nil
	}
	for _, tag := range before.Tags {
		key := model.NormalizeTag(tag)
		if afterKeys[key] {
			continue
		}
		refs, err := s.Clips.CountClipsWithTag(ctx, ownerID, tag)
		if err != nil {
			return err
		}
		if refs == 0 {
			if err := s.Tags.MarkKeyDeleted(ctx, ownerID, key); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *ClipService) invalidateCache(ctx context.Context, ownerID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, ownerID); err != nil {
		log.Printf("Warning: failed to invalidate recent cache for %s: %v", ownerID, err)
	}
}

// ClipListQuery is the browsing query surface of GET /clips.
type ClipListQuery struct {
	Query    string
	Tag      string
	Kind     string
	Favorite *bool
	Cursor   string
	Limit    int
	Lite     bool
}

func (q ClipListQuery) cacheable() bool {
	return q.Query == "" && q.Tag == "" && q.Kind == "" && q.Favorite == nil &&
		q.Cursor == "" && q.Lite && (q.Limit == 0 || q.Limit == defaultPageSize)
}

// List pages most-recent-first. The plain lite first page is served from
// the recent cache when possible.
func (s *ClipService) List(ctx context.Context, ownerID string, query ClipListQuery) (*dto.ClipsPageResponse, error) {
	if query.Kind != "" && !model.ValidKind(query.Kind) {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrValidation, query.Kind)
	}
	if s.Cache != nil && query.cacheable() {
		if page, err := s.Cache.GetRecentPage(ctx, ownerID); err == nil && page != nil {
			return page, nil
		}
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	opts := repository.ClipListOptions{
		OwnerID:  ownerID,
		Query:    query.Query,
		Tag:      query.Tag,
		Kind:     query.Kind,
		Favorite: query.Favorite,
		Limit:    limit + 1,
	}
	if query.Cursor != "" {
		cur, err := utils.DecodeCursor(query.Cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		opts.Cursor = &cur
	}

	clips, err := s.Clips.ListClips(ctx, opts)
	if err != nil {
		return nil, err
	}

	hasMore := len(clips) > limit
	if hasMore {
		clips = clips[:limit]
	}

	page := &dto.ClipsPageResponse{
		Clips:   dto.ToClipResponses(clips, query.Lite),
		HasMore: hasMore,
	}
	if hasMore && len(clips) > 0 {
		last := clips[len(clips)-1]
		page.NextCursor = utils.Cursor{ServerUpdatedAt: last.ServerUpdatedAt, ID: last.ID}.Encode()
	}

	if s.Cache != nil && query.cacheable() {
		if err := s.Cache.SetRecentPage(ctx, ownerID, page); err != nil {
			log.Printf("Warning: failed to cache recent page for %s: %v", ownerID, err)
		}
	}
	return page, nil
}

// Get returns the full record including large fields.
func (s *ClipService) Get(ctx context.Context, ownerID, clipID string) (*model.Clip, error) {
	clip, err := s.Clips.GetClip(ctx, ownerID, clipID)
	if err != nil {
		return nil, err
	}
	if clip == nil {
		return nil, ErrNotFound
	}
	return clip, nil
}

// Delete soft-deletes through the merge engine; the tombstone stays
// visible to sync.
func (s *ClipService) Delete(ctx context.Context, ownerID, deviceID, clipID string, clientUpdatedAt time.Time) (*MergeResult, error) {
	existing, err := s.Clips.GetClip(ctx, ownerID, clipID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if clientUpdatedAt.IsZero() {
		clientUpdatedAt = s.now()
	}
	change := dto.ClipChange{
		ID:              clipID,
		IsDeleted:       dto.Some(true),
		ClientUpdatedAt: clientUpdatedAt,
	}
	middleware.TrackClipOperation("deleted")
	return s.Apply(ctx, ownerID, deviceID, change)
}

// FetchImageBytes returns the full-size image for a record, whichever
// tier it lives in.
func (s *ClipService) FetchImageBytes(ctx context.Context, ownerID, clipID string) ([]byte, *model.ImagePayload, error) {
	clip, err := s.Get(ctx, ownerID, clipID)
	if err != nil {
		return nil, nil, err
	}
	if clip.Image == nil {
		return nil, nil, ErrNotFound
	}
	data, err := s.Images.FetchImage(ctx, clip.Image)
	if err != nil {
		return nil, nil, err
	}
	return data, clip.Image, nil
}
