package api

import "github.com/affectlab/affectlab-server/internal/ingest"

// API limits and constants.
const (
	// MaxUploadSize is the default request body limit (16 MB).
	MaxUploadSize = ingest.MaxFileSize

	// multipartMemory is how much of a multipart upload is buffered in memory.
	multipartMemory = 8 << 20

	// apiPrefix is the versioned API path prefix.
	apiPrefix = "/api/v1/"

	// uploadField is the multipart form field carrying the spreadsheet.
	uploadField = "file"
)

// Operations accepted by the analyze endpoint.
const (
	OperationScaling       = "scaling"
	OperationWordFrequency = "word-frequency"
)

// Cache-Control header values.
const (
	CacheNoStore = "no-store"
)
