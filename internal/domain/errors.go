package domain

import "errors"

// Failure classes for the ingest and query pipelines. Callers classify by
// errors.Is and map to stable wire codes via Code.
var (
	// ErrValidation rejects bad input before any store mutation.
	ErrValidation = errors.New("validation failure")
	// ErrExtraction covers text extraction failures during ingest.
	ErrExtraction = errors.New("extraction failure")
	// ErrIndexing covers embedding and vector-store write failures.
	ErrIndexing = errors.New("indexing failure")
	// ErrRetrieval covers query reformulation and vector search failures.
	ErrRetrieval = errors.New("retrieval failure")
	// ErrGeneration covers final answer generation failures.
	ErrGeneration = errors.New("generation failure")
	// ErrConsistency marks a failed compensation step: the record store and
	// vector index are provably out of sync and need manual remediation.
	ErrConsistency = errors.New("consistency failure")
	// ErrNotFound marks a missing document or record.
	ErrNotFound = errors.New("not found")
)

// Wire codes. These are part of the API contract and never change.
const (
	CodeValidation  = "validation_failure"
	CodeExtraction  = "extraction_failure"
	CodeIndexing    = "indexing_failure"
	CodeRetrieval   = "retrieval_failure"
	CodeGeneration  = "generation_failure"
	CodeConsistency = "consistency_failure"
	CodeNotFound    = "not_found"
	CodeInternal    = "internal_error"
)

// Code returns the stable error code for a classified error. Unclassified
// errors map to CodeInternal.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrExtraction):
		return CodeExtraction
	case errors.Is(err, ErrIndexing):
		return CodeIndexing
	case errors.Is(err, ErrRetrieval):
		return CodeRetrieval
	case errors.Is(err, ErrGeneration):
		return CodeGeneration
	case errors.Is(err, ErrConsistency):
		return CodeConsistency
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}
