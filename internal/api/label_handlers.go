package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/service"
)

// labelRoute names one of the two label collections.
type labelRoute struct {
	plural   string // path segment: "tags"
	singular string // used in docs: "tag"
	opSuffix string // operation ID suffix: "Tag"
	group    string // OpenAPI tag: "Tags"
}

// registerLabelRoutes registers list, get, rename and delete for tags or
// ingredients. Both collections share DTOs and handlers.
func (s *Server) registerLabelRoutes(svc *service.LabelService, rt labelRoute) {
	base := "/api/v1/recipe/" + rt.plural
	h := labelHandlers{svc: svc}

	huma.Register(s.api, huma.Operation{
		OperationID: "list" + rt.opSuffix + "s",
		Method:      http.MethodGet,
		Path:        base,
		Summary:     "List " + rt.plural,
		Description: "Returns the caller's " + rt.plural + " ordered by name descending",
		Tags:        []string{rt.group},
		Security:    []map[string][]string{{"bearer": {}}},
	}, h.list)

	huma.Register(s.api, huma.Operation{
		OperationID: "get" + rt.opSuffix,
		Method:      http.MethodGet,
		Path:        base + "/{id}",
		Summary:     "Get " + rt.singular,
		Description: "Returns a " + rt.singular + " by ID",
		Tags:        []string{rt.group},
		Security:    []map[string][]string{{"bearer": {}}},
	}, h.get)

	huma.Register(s.api, huma.Operation{
		OperationID: "update" + rt.opSuffix,
		Method:      http.MethodPatch,
		Path:        base + "/{id}",
		Summary:     "Rename " + rt.singular,
		Description: "Renames a " + rt.singular + "; a name already used by the caller is a conflict",
		Tags:        []string{rt.group},
		Security:    []map[string][]string{{"bearer": {}}},
	}, h.rename)

	huma.Register(s.api, huma.Operation{
		OperationID: "replace" + rt.opSuffix,
		Method:      http.MethodPut,
		Path:        base + "/{id}",
		Summary:     "Replace " + rt.singular,
		Description: "Same as PATCH; name is the only writable field",
		Tags:        []string{rt.group},
		Security:    []map[string][]string{{"bearer": {}}},
	}, h.rename)

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete" + rt.opSuffix,
		Method:        http.MethodDelete,
		Path:          base + "/{id}",
		Summary:       "Delete " + rt.singular,
		Description:   "Deletes a " + rt.singular + " and unlinks it from recipes",
		Tags:          []string{rt.group},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, h.delete)
}

// === DTOs ===

// ListLabelsInput contains the list filter.
type ListLabelsInput struct {
	AssignedOnly int `query:"assigned_only" minimum:"0" maximum:"1" default:"0" doc:"1 limits results to entries linked to at least one recipe"`
}

// ListLabelsOutput wraps a label list for Huma.
type ListLabelsOutput struct {
	Body []LabelResponse
}

// LabelIDInput identifies a tag or ingredient.
type LabelIDInput struct {
	ID int64 `path:"id" doc:"ID"`
}

// RenameLabelRequest is the request body for a rename.
type RenameLabelRequest struct {
	_    struct{} `json:"-" additionalProperties:"true"`
	Name string   `json:"name" doc:"New name"`
}

// RenameLabelInput wraps the rename request for Huma.
type RenameLabelInput struct {
	ID   int64 `path:"id" doc:"ID"`
	Body RenameLabelRequest
}

// LabelOutput wraps a single label for Huma.
type LabelOutput struct {
	Body LabelResponse
}

// === Handlers ===

type labelHandlers struct {
	svc *service.LabelService
}

func (h labelHandlers) list(ctx context.Context, input *ListLabelsInput) (*ListLabelsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	labels, err := h.svc.List(ctx, userID, domain.LabelFilter{AssignedOnly: input.AssignedOnly == 1})
	if err != nil {
		return nil, err
	}

	resp := make([]LabelResponse, len(labels))
	for i, l := range labels {
		resp[i] = LabelResponse{ID: l.ID, Name: l.Name}
	}
	return &ListLabelsOutput{Body: resp}, nil
}

func (h labelHandlers) get(ctx context.Context, input *LabelIDInput) (*LabelOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	label, err := h.svc.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &LabelOutput{Body: LabelResponse{ID: label.ID, Name: label.Name}}, nil
}

func (h labelHandlers) rename(ctx context.Context, input *RenameLabelInput) (*LabelOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	label, err := h.svc.Rename(ctx, userID, input.ID, service.RenameLabelRequest{Name: input.Body.Name})
	if err != nil {
		return nil, err
	}
	return &LabelOutput{Body: LabelResponse{ID: label.ID, Name: label.Name}}, nil
}

func (h labelHandlers) delete(ctx context.Context, input *LabelIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.svc.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
