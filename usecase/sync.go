package usecase

import (
	"context"
	"fmt"

	"main/dto"
	"main/middleware"
	"main/model"
	"main/repository"
	"main/utils"
)

const maxPushBatch = 100

// Push runs one batch of device changes through the merge engine. The
// batch may come back as any mix of applied and conflicting entries;
// callers must process every entry, not a single boolean.
func (s *ClipService) Push(ctx context.Context, ownerID, deviceID string, changes []dto.ClipChange) (applied, conflicts []*model.Clip, err error) {
	if len(changes) > maxPushBatch {
		return nil, nil, fmt.Errorf("%w: push batch exceeds %d changes", ErrValidation, maxPushBatch)
	}

	for _, change := range changes {
		result, err := s.Apply(ctx, ownerID, deviceID, change)
		if err != nil {
			return nil, nil, err
		}
		if result.Applied {
			applied = append(applied, result.Clip)
		} else {
			conflicts = append(conflicts, result.Clip)
		}
	}
	middleware.TrackSyncBatch("push")
	return applied, conflicts, nil
}

// Pull returns server changes after the device's cursor, oldest first,
// tombstones included. nextSince always points at the last returned row
// so an interrupted pull resumes without loss.
func (s *ClipService) Pull(ctx context.Context, ownerID, since string, limit int) (changes []*model.Clip, nextSince string, hasMore bool, err error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	opts := repository.ClipListOptions{
		OwnerID:        ownerID,
		Limit:          limit + 1,
		Ascending:      true,
		IncludeDeleted: true,
	}
	if since != "" {
		cur, decodeErr := utils.DecodeCursor(since)
		if decodeErr != nil {
			return nil, "", false, fmt.Errorf("%w: %v", ErrValidation, decodeErr)
		}
		opts.Cursor = &cur
	}

	changes, err = s.Clips.ListClips(ctx, opts)
	if err != nil {
		return nil, "", false, err
	}

	hasMore = len(changes) > limit
	if hasMore {
		changes = changes[:limit]
	}

	nextSince = since
	if len(changes) > 0 {
		last := changes[len(changes)-1]
		nextSince = utils.Cursor{ServerUpdatedAt: last.ServerUpdatedAt, ID: last.ID}.Encode()
	}
	middleware.TrackSyncBatch("pull")
	return changes, nextSince, hasMore, nil
}
