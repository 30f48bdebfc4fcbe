package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/patch"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/store"
)

// TagPatch is a partial update of a tag. A null color or description clears it.
type TagPatch struct {
	Name        patch.Field[string]
	Color       patch.Field[string]
	Description patch.Field[string]
}

// TagService manages the shared tag catalog.
type TagService interface {
	CreateTag(ctx context.Context, name, color, description string) (*domain.Tag, error)
	GetTag(ctx context.Context, id int64) (*domain.Tag, error)
	GetTagByName(ctx context.Context, name string) (*domain.Tag, error)
	ListTags(ctx context.Context, query string) ([]*domain.Tag, error)
	UpdateTag(ctx context.Context, id int64, p TagPatch) (*domain.Tag, error)

	// DeleteTag returns ErrTagInUse while any task carries the tag.
	DeleteTag(ctx context.Context, id int64) error

	// FindOrCreate returns one tag per distinct trimmed name, creating the
	// missing ones. Calling it twice with the same names yields the same IDs.
	FindOrCreate(ctx context.Context, names []string) ([]*domain.Tag, error)
}

type tagServiceImpl struct {
	tags   store.TagStore
	tx     store.Transactor
	logger *slog.Logger
}

// NewTagService creates a TagService.
func NewTagService(tags store.TagStore, tx store.Transactor, logger *slog.Logger) TagService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tagServiceImpl{
		tags:   tags,
		tx:     tx,
		logger: logger.With(slog.String("component", "tag_service")),
	}
}

// CreateTag implements TagService.
func (s *tagServiceImpl) CreateTag(ctx context.Context, name, color, description string) (*domain.Tag, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tag, err := domain.NewTag(name, color, description)
	if err != nil {
		return nil, NewServiceError("tag", "create", err)
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.tags.WithTx(tx).Create(ctx, tag)
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to create tag",
				slog.String("error", err.Error()),
				slog.String("name", tag.Name))
		}
		return nil, NewServiceError("tag", "create", err)
	}
	log.Info("tag created", slog.Int64("tag_id", tag.ID), slog.String("name", tag.Name))
	return tag, nil
}

// GetTag implements TagService.
func (s *tagServiceImpl) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return nil, NewServiceError("tag", "get", err)
	}
	return tag, nil
}

// GetTagByName implements TagService.
func (s *tagServiceImpl) GetTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	tag, err := s.tags.GetByName(ctx, name)
	if err != nil {
		return nil, NewServiceError("tag", "get_by_name", err)
	}
	return tag, nil
}

// ListTags implements TagService.
func (s *tagServiceImpl) ListTags(ctx context.Context, query string) ([]*domain.Tag, error) {
	tags, err := s.tags.List(ctx, query)
	if err != nil {
		return nil, NewServiceError("tag", "list", err)
	}
	return tags, nil
}

// UpdateTag implements TagService.
func (s *tagServiceImpl) UpdateTag(ctx context.Context, id int64, p TagPatch) (*domain.Tag, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Tag
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		tags := s.tags.WithTx(tx)
		tag, err := tags.GetByID(ctx, id)
		if err != nil {
			return err
		}
		p.Name.Apply(&tag.Name)
		p.Color.Apply(&tag.Color)
		p.Description.Apply(&tag.Description)
		tag.Name = strings.TrimSpace(tag.Name)
		tag.Color = strings.TrimSpace(tag.Color)
		if err := tag.Validate(); err != nil {
			return err
		}
		if err := tags.Update(ctx, tag); err != nil {
			return err
		}
		updated = tag
		return nil
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to update tag",
				slog.String("error", err.Error()),
				slog.Int64("tag_id", id))
		}
		return nil, NewServiceError("tag", "update", err)
	}
	return updated, nil
}

// DeleteTag implements TagService.
func (s *tagServiceImpl) DeleteTag(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		tags := s.tags.WithTx(tx)
		if _, err := tags.GetByID(ctx, id); err != nil {
			return err
		}
		n, err := tags.CountTaskReferences(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrTagInUse
		}
		return tags.Delete(ctx, id)
	})
	if errors.Is(err, store.ErrReferenced) {
		// A task picked up the tag between the count and the delete.
		err = ErrTagInUse
	}
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to delete tag",
				slog.String("error", err.Error()),
				slog.Int64("tag_id", id))
		}
		return NewServiceError("tag", "delete", err)
	}
	log.Info("tag deleted", slog.Int64("tag_id", id))
	return nil
}

// FindOrCreate implements TagService.
func (s *tagServiceImpl) FindOrCreate(ctx context.Context, names []string) ([]*domain.Tag, error) {
	names = domain.NormalizeTagNames(names)
	out := make([]*domain.Tag, 0, len(names))
	if len(names) == 0 {
		return out, nil
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		out, err = upsertTags(ctx, s.tags.WithTx(tx), names)
		return err
	})
	if err != nil {
		return nil, NewServiceError("tag", "find_or_create", err)
	}
	return out, nil
}

func upsertTags(ctx context.Context, tags store.TagStore, names []string) ([]*domain.Tag, error) {
	out := make([]*domain.Tag, 0, len(names))
	for _, name := range names {
		tag, err := tags.UpsertByName(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, nil
}
