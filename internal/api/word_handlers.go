package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/affectlab/affectlab-server/internal/service"
)

func (s *Server) registerWordFrequencyRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:  "wordFrequency",
		Method:       http.MethodPost,
		Path:         apiPrefix + "word-frequency",
		Summary:      "Word frequency",
		Description:  "Returns the most frequent words of a text with their share of all counted words",
		Tags:         []string{"Text"},
		MaxBodyBytes: s.opts.MaxUploadBytes,
	}, s.handleWordFrequency)
}

// WordFrequencyRequest is the body of a word-frequency request.
type WordFrequencyRequest struct {
	Text string `json:"text" doc:"Free text to analyze"`
}

// WordFrequencyInput wraps the word-frequency request for Huma.
type WordFrequencyInput struct {
	Body WordFrequencyRequest
}

// WordFrequencyResponse is the success body of a word-frequency request.
type WordFrequencyResponse struct {
	Envelope
	service.TextResult
}

// WordFrequencyOutput wraps the word-frequency response for Huma.
type WordFrequencyOutput struct {
	Body *WordFrequencyResponse
}

func (s *Server) handleWordFrequency(ctx context.Context, input *WordFrequencyInput) (*WordFrequencyOutput, error) {
	body, err := s.wordFrequency(ctx, input.Body.Text)
	if err != nil {
		return nil, err
	}
	return &WordFrequencyOutput{Body: body}, nil
}

func (s *Server) wordFrequency(ctx context.Context, text string) (*WordFrequencyResponse, error) {
	result, err := s.services.Text.Analyze(ctx, text)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &WordFrequencyResponse{TextResult: *result}, nil
}
