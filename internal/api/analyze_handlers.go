package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/affectlab/affectlab-server/internal/validation"
)

func (s *Server) registerAnalyzeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:  "analyze",
		Method:       http.MethodPost,
		Path:         apiPrefix + "analyze",
		Summary:      "Run an analysis",
		Description:  "Single entry point dispatching to scaling or word-frequency by operation name",
		Tags:         []string{"Scaling", "Text"},
		MaxBodyBytes: s.opts.MaxUploadBytes,
	}, s.handleAnalyze)
}

// AnalyzeRequest selects an operation and carries its arguments.
type AnalyzeRequest struct {
	Operation string `json:"operation" enum:"scaling,word-frequency" doc:"Operation to run" validate:"required,oneof=scaling word-frequency"`
	FileURL   string `json:"file_url,omitempty" doc:"Input table URL (scaling)" validate:"required_if=Operation scaling,omitempty,http_url"`
	FileName  string `json:"file_name,omitempty" doc:"Input file name (scaling)"`
	Text      string `json:"text,omitempty" doc:"Text to analyze (word-frequency)" validate:"required_if=Operation word-frequency"`
}

// AnalyzeInput wraps the analyze request for Huma.
type AnalyzeInput struct {
	Body AnalyzeRequest
}

// AnalyzeOutput is either a ScalingResponse or a WordFrequencyResponse.
type AnalyzeOutput struct {
	Body any
}

var analyzeValidator = validation.New()

func (s *Server) handleAnalyze(ctx context.Context, input *AnalyzeInput) (*AnalyzeOutput, error) {
	req := input.Body
	if err := analyzeValidator.Validate(req); err != nil {
		return nil, toHumaError(err)
	}

	switch req.Operation {
	case OperationScaling:
		body, err := s.scaleRemote(ctx, req.FileURL, req.FileName)
		if err != nil {
			return nil, err
		}
		return &AnalyzeOutput{Body: body}, nil
	default:
		body, err := s.wordFrequency(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		return &AnalyzeOutput{Body: body}, nil
	}
}
