package usecase

import (
	"context"
	"fmt"
	"strings"

	"main/model"
	"main/repository"
)

const maxTagLength = 64

type TagService struct {
	Tags TagStore
}

func (s *TagService) ListTags(ctx context.Context, ownerID string) ([]*model.Tag, error) {
	return s.Tags.ListTags(ctx, ownerID, false)
}

func (s *TagService) CreateTag(ctx context.Context, ownerID, displayName string) (*model.Tag, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("%w: tag name is required", ErrValidation)
	}
	if len(displayName) > maxTagLength {
		return nil, fmt.Errorf("%w: tag name exceeds %d characters", ErrValidation, maxTagLength)
	}
	return s.Tags.UpsertTag(ctx, ownerID, displayName)
}

func (s *TagService) DeleteTag(ctx context.Context, ownerID, tagID string) error {
	err := s.Tags.MarkTagDeleted(ctx, ownerID, tagID)
	if err == repository.ErrTagNotFound {
		return ErrNotFound
	}
	return err
}
