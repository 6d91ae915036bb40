package api

import (
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/http/response"
)

// EnvelopeVersion is the "v" field of every response envelope.
const EnvelopeVersion = response.EnvelopeVersion

// APIEnvelope wraps successful huma responses.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope wraps error responses with a machine-readable code.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps every huma response body in the envelope that
// the plain chi handlers write through the response package.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch body := v.(type) {
	case *APIError:
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   body.Message,
			Code:    body.Code,
			Details: body.Details,
		}, nil
	case *domainerrors.Error:
		if body.HTTPStatus() >= http.StatusInternalServerError {
			return APIErrorEnvelope{Version: EnvelopeVersion, Error: "internal server error", Code: string(domainerrors.CodeInternal)}, nil
		}
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   body.Message,
			Code:    string(body.Code),
			Details: body.Details,
		}, nil
	case error:
		return APIEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   body.Error(),
		}, nil
	}

	code, err := strconv.Atoi(status)
	if err != nil {
		code = 200
	}
	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: code < 400,
		Data:    v,
	}, nil
}
