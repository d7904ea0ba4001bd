// Package localstore is the single-device fallback when no sync
// endpoint is configured: one JSON document holding the full record
// collection, rewritten atomically on every mutation. It also tracks
// which clips still need pushing and the device's pull cursor, so the
// sync client can ride on top of it.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"main/model"
)

var ErrClipNotFound = errors.New("clip not found")

type storeState struct {
	Clips  map[string]*model.Clip `json:"clips"`
	Dirty  map[string]bool        `json:"dirty"`
	Cursor string                 `json:"cursor"`
}

type Store struct {
	mu   sync.Mutex
	path string

	// retention settings; favorites are exempt from both
	retentionDays int // 0 means unbounded
	maxClips      int

	state storeState

	// Now is swappable for tests.
	Now func() time.Time
}

// Open loads the store file or starts an empty collection.
func Open(path string, retentionDays, maxClips int) (*Store, error) {
	s := &Store{
		path:          path,
		retentionDays: retentionDays,
		maxClips:      maxClips,
		state: storeState{
			Clips: make(map[string]*model.Clip),
			Dirty: make(map[string]bool),
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("failed to parse store: %w", err)
	}
	if s.state.Clips == nil {
		s.state.Clips = make(map[string]*model.Clip)
	}
	if s.state.Dirty == nil {
		s.state.Dirty = make(map[string]bool)
	}
	return s, nil
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// flush rewrites the document atomically: temp file in the same
// directory, then rename.
func (s *Store) flush() error {
	data, err := json.MarshalIndent(&s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".clips-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp store: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace store: %w", err)
	}
	return nil
}

// SaveClip stores a locally-created or edited clip and marks it for the
// next push.
func (s *Store) SaveClip(ctx context.Context, clip *model.Clip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Clips[clip.ID] = clip.Clone()
	s.state.Dirty[clip.ID] = true
	s.prune()
	return s.flush()
}

// MergeDuplicate folds a repeated capture into the retained clip: union
// of tags, favorite stickiness, refreshed client timestamp.
func (s *Store) MergeDuplicate(ctx context.Context, clipID string, tags []string, favorite bool, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clip, ok := s.state.Clips[clipID]
	if !ok {
		return ErrClipNotFound
	}

	seen := make(map[string]bool, len(clip.Tags))
	for _, tag := range clip.Tags {
		seen[model.NormalizeTag(tag)] = true
	}
	for _, tag := range tags {
		if !seen[model.NormalizeTag(tag)] {
			clip.Tags = append(clip.Tags, tag)
			seen[model.NormalizeTag(tag)] = true
		}
	}
	if favorite {
		clip.IsFavorite = true
	}
	clip.ClientUpdatedAt = seenAt.UTC()
	s.state.Dirty[clipID] = true
	return s.flush()
}

func (s *Store) GetClip(clipID string) (*model.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clip, ok := s.state.Clips[clipID]
	if !ok {
		return nil, ErrClipNotFound
	}
	return clip.Clone(), nil
}

// ListClips returns live clips most recent first.
func (s *Store) ListClips() []*model.Clip {
	s.mu.Lock()
	defer s.mu.Unlock()

	clips := make([]*model.Clip, 0, len(s.state.Clips))
	for _, clip := range s.state.Clips {
		if !clip.IsDeleted {
			clips = append(clips, clip.Clone())
		}
	}
	sort.Slice(clips, func(i, j int) bool {
		if !clips[i].ClientUpdatedAt.Equal(clips[j].ClientUpdatedAt) {
			return clips[i].ClientUpdatedAt.After(clips[j].ClientUpdatedAt)
		}
		return clips[i].ID > clips[j].ID
	})
	return clips
}

// DirtyClips returns the clips still awaiting a successful push.
func (s *Store) DirtyClips() []*model.Clip {
	s.mu.Lock()
	defer s.mu.Unlock()

	clips := make([]*model.Clip, 0, len(s.state.Dirty))
	for id := range s.state.Dirty {
		if clip, ok := s.state.Clips[id]; ok {
			clips = append(clips, clip.Clone())
		}
	}
	sort.Slice(clips, func(i, j int) bool {
		return clips[i].ClientUpdatedAt.Before(clips[j].ClientUpdatedAt)
	})
	return clips
}

// ClearDirty acknowledges pushed clips. Push failure simply leaves them
// dirty for the next cycle; local changes are never discarded.
func (s *Store) ClearDirty(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.state.Dirty, id)
	}
	return s.flush()
}

// ApplyRemote overwrites the local copy with the server's authoritative
// version; the result is clean, not dirty.
func (s *Store) ApplyRemote(clip *model.Clip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Clips[clip.ID] = clip.Clone()
	delete(s.state.Dirty, clip.ID)
	s.prune()
	return s.flush()
}

func (s *Store) Cursor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Cursor
}

func (s *Store) SetCursor(cursor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Cursor = cursor
	return s.flush()
}

// prune enforces the retention window and the record cap. Favorites are
// exempt from both; dirty clips survive until pushed.
func (s *Store) prune() {
	now := s.now()

	if s.retentionDays > 0 {
		cutoff := now.AddDate(0, 0, -s.retentionDays)
		for id, clip := range s.state.Clips {
			if clip.IsFavorite || s.state.Dirty[id] {
				continue
			}
			if clip.ClientUpdatedAt.Before(cutoff) {
				delete(s.state.Clips, id)
			}
		}
	}

	if s.maxClips <= 0 || len(s.state.Clips) <= s.maxClips {
		return
	}

	type aged struct {
		id string
		at time.Time
	}
	var candidates []aged
	for id, clip := range s.state.Clips {
		if clip.IsFavorite || s.state.Dirty[id] {
			continue
		}
		candidates = append(candidates, aged{id: id, at: clip.ClientUpdatedAt})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].at.Before(candidates[j].at)
	})

	excess := len(s.state.Clips) - s.maxClips
	for i := 0; i < excess && i < len(candidates); i++ {
		delete(s.state.Clips, candidates[i].id)
	}
}
