package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/larderapp/larder-server/internal/domain"
	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/store"
)

// LabelService manages one kind of owner-scoped label: tags or ingredients.
// Labels are created implicitly by recipe writes; this service only lists,
// renames and deletes them.
type LabelService struct {
	store  store.Store
	kind   domain.LabelKind
	logger *slog.Logger
}

// NewTagService creates a LabelService for tags.
func NewTagService(store store.Store, logger *slog.Logger) *LabelService {
	return &LabelService{store: store, kind: domain.LabelTag, logger: logger}
}

// NewIngredientService creates a LabelService for ingredients.
func NewIngredientService(store store.Store, logger *slog.Logger) *LabelService {
	return &LabelService{store: store, kind: domain.LabelIngredient, logger: logger}
}

// Kind returns the label kind this service manages.
func (s *LabelService) Kind() domain.LabelKind {
	return s.kind
}

// RenameLabelRequest carries a new label name.
type RenameLabelRequest struct {
	Name string `json:"name"`
}

// List returns the owner's labels ordered by name descending.
func (s *LabelService) List(ctx context.Context, userID string, filter domain.LabelFilter) ([]domain.Label, error) {
	labels, err := s.store.ListLabels(ctx, s.kind, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", s.kind, err)
	}
	return labels, nil
}

// Get returns one of the owner's labels.
func (s *LabelService) Get(ctx context.Context, userID string, id int64) (*domain.Label, error) {
	label, err := s.store.GetLabel(ctx, s.kind, userID, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}
	return label, nil
}

// Rename changes a label's name. Taking a name the owner already uses is a conflict.
func (s *LabelService) Rename(ctx context.Context, userID string, id int64, req RenameLabelRequest) (*domain.Label, error) {
	name, err := cleanName("name", req.Name)
	if err != nil {
		return nil, err
	}

	label, err := s.store.RenameLabel(ctx, s.kind, userID, id, name)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists(fmt.Sprintf("%s %q already exists", s.kind, name)).
				WithDetails([]domainerrors.FieldError{{Field: "name", Message: "already in use"}})
		}
		return nil, s.mapError(err, id)
	}

	s.logger.Info(string(s.kind)+" renamed", "id", id, "user_id", userID, "name", name)
	return label, nil
}

// Delete removes a label and its recipe links; the recipes remain.
func (s *LabelService) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.store.DeleteLabel(ctx, s.kind, userID, id); err != nil {
		return s.mapError(err, id)
	}
	s.logger.Info(string(s.kind)+" deleted", "id", id, "user_id", userID)
	return nil
}

func (s *LabelService) mapError(err error, id int64) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFoundf("%s %d not found", s.kind, id)
	}
	return fmt.Errorf("%s %d: %w", s.kind, id, err)
}
