package models

import "errors"

var (
	ErrEmptyBatch      = errors.New("batch has no documents")
	ErrUnknownKind     = errors.New("unknown operation kind")
	ErrDuplicateID     = errors.New("duplicate document id in batch")
	ErrUnsupportedKind = errors.New("operation not supported by backend")
)

// Per-document error codes produced locally rather than by a remote service.
const (
	CodeInvalidDocument = "InvalidDocument"
	CodeMissingResult   = "MissingResult"
)
