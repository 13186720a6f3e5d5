package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across cersei.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity
	FieldScraperID  = "scraper_id"
	FieldEntryID    = "entry_id"
	FieldRevisionID = "revision_id"
	FieldSourceID   = "source_id"
	FieldRunID      = "run_id"

	// Values
	FieldProperty = "property"
	FieldKind     = "kind"
	FieldTable    = "table"

	// Resolver
	FieldGroup      = "group"
	FieldLanguage   = "language"
	FieldText       = "text"
	FieldItem       = "item"
	FieldCandidates = "candidates"

	// Components
	FieldComponent = "component"
	FieldSymbol    = "symbol"

	// Operations
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldOutcome   = "outcome"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts
	FieldCount = "count"

	// Network
	FieldAddress = "address"
	FieldPort    = "port"
	FieldURL     = "url"
)

// ComponentLogger returns a named child of the global logger.
//
// Example:
//
//	committer := storage.NewCommitter(store, logger.ComponentLogger("commit"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
