package domain

import "errors"

var (
	ErrNoFileProvided    = errors.New("no file provided")
	ErrNoExtractableText = errors.New("could not extract text from any of the PDFs")
	ErrExtractionFailed  = errors.New("document text extraction failed")
	ErrFileTooLarge      = errors.New("file exceeds maximum allowed size")
	ErrTooManyFiles      = errors.New("too many files in one upload")
	ErrSummaryNotFound   = errors.New("summary not found")
	ErrUnauthorized      = errors.New("unauthorized")
)

// MsgNoCredentials is the failure message when no provider has a usable credential.
const MsgNoCredentials = "No credentials configured"
