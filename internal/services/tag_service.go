package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/tasktag-api/internal/constants"
	"github.com/yukikurage/tasktag-api/internal/models"
	"github.com/yukikurage/tasktag-api/internal/repository"
)

var (
	ErrTagNameRequired = errors.New("tag name is required")
	ErrTagNameTooLong  = errors.New("tag name is too long")
)

// TagService handles tag business logic
type TagService struct {
	tagRepo repository.TagRepository
}

// NewTagService creates a new TagService
func NewTagService(tagRepo repository.TagRepository) *TagService {
	return &TagService{tagRepo: tagRepo}
}

// ListTags returns the user's tags, each with the number of tasks carrying it
func (s *TagService) ListTags(userID string) ([]models.Tag, error) {
	tags, err := s.tagRepo.ListByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// CreateTag creates a tag owned by userID. Names are not required to be unique.
func (s *TagService) CreateTag(userID, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTagNameRequired
	}
	if utf8.RuneCountInString(name) > constants.MaxTagNameLength {
		return nil, ErrTagNameTooLong
	}

	tag := &models.Tag{
		Name:   name,
		UserID: userID,
	}
	if err := s.tagRepo.Create(tag); err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	return tag, nil
}
