package api

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// Envelope is embedded in every success body.
type Envelope struct {
	Success bool `json:"success" doc:"True when the request succeeded"`
}

func (e *Envelope) markSuccess() { e.Success = true }

type successMarker interface {
	markSuccess()
}

// EnvelopeTransformer sets success on 2xx bodies that embed Envelope.
// Error bodies already carry success=false.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if m, ok := v.(successMarker); ok && strings.HasPrefix(status, "2") {
		m.markSuccess()
	}
	return v, nil
}
