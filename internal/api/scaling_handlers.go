package api

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"

	"github.com/affectlab/affectlab-server/internal/errors"
	"github.com/affectlab/affectlab-server/internal/http/response"
	"github.com/affectlab/affectlab-server/internal/ingest"
	"github.com/affectlab/affectlab-server/internal/service"
)

func (s *Server) registerScalingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:  "scaleRemoteFile",
		Method:       http.MethodPost,
		Path:         apiPrefix + "scaling",
		Summary:      "Scale a remote spreadsheet",
		Description:  "Downloads an xlsx, csv or json table of affect ratings, normalizes and aggregates it, and publishes the output tables",
		Tags:         []string{"Scaling"},
		MaxBodyBytes: s.opts.MaxUploadBytes,
	}, s.handleScaleRemote)
}

// ScalingRequest is the body of a remote scaling request.
type ScalingRequest struct {
	FileURL  string `json:"file_url" doc:"HTTP(S) URL of the input table"`
	FileName string `json:"file_name,omitempty" doc:"Name used to pick the decoder; defaults to the URL's last path segment"`
}

// ScalingInput wraps the scaling request for Huma.
type ScalingInput struct {
	Body ScalingRequest
}

// ScalingResponse is the success body of a scaling request.
type ScalingResponse struct {
	Envelope
	service.ScalingResult
}

// ScalingOutput wraps the scaling response for Huma.
type ScalingOutput struct {
	Body *ScalingResponse
}

func (s *Server) handleScaleRemote(ctx context.Context, input *ScalingInput) (*ScalingOutput, error) {
	body, err := s.scaleRemote(ctx, input.Body.FileURL, input.Body.FileName)
	if err != nil {
		return nil, err
	}
	return &ScalingOutput{Body: body}, nil
}

func (s *Server) scaleRemote(ctx context.Context, fileURL, fileName string) (*ScalingResponse, error) {
	if fileURL == "" {
		return nil, toHumaError(errors.InvalidInput("file_url is required"))
	}
	result, err := s.services.Scaling.ProcessRemote(ctx, fileURL, fileName)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &ScalingResponse{ScalingResult: *result}, nil
}

// handleScalingUpload accepts a multipart upload in the "file" field.
func (s *Server) handleScalingUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isBodyTooLarge(err) {
			writeError(w, tooLarge(s.opts.MaxUploadBytes), s.logger)
			return
		}
		writeError(w, errors.InvalidInput("expected a multipart form upload"), s.logger)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, errors.InvalidInput("no file uploaded"), s.logger)
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "." || filename == "/" || filename == "" {
		writeError(w, errors.InvalidInput("no file selected"), s.logger)
		return
	}
	if !ingest.Supported(filename) {
		writeError(w, errors.InvalidInputf("unsupported file format %q, expected .xlsx, .csv or .json", filepath.Ext(filename)), s.logger)
		return
	}
	if header.Size > s.opts.MaxUploadBytes {
		writeError(w, tooLarge(s.opts.MaxUploadBytes), s.logger)
		return
	}

	result, err := s.services.Scaling.ProcessUpload(r.Context(), filename, file)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}

	body := &ScalingResponse{ScalingResult: *result}
	body.markSuccess()
	response.Success(w, body, s.logger)
}
