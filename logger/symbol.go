package logger

import (
	"github.com/teranos/cersei/sym"
)

// Symbol-aware logging helpers.
// These log with the glyph as a structured field, not in the message.
//
// Usage:
//
//	logger.DBInfow("Migrations applied", "count", n)

// DBInfow logs an info message with the storage symbol (⊔)
func DBInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.DB}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// IXInfow logs an info message with the ingest symbol (⨳)
func IXInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.IX}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// IXWarnw logs a warning message with the ingest symbol (⨳)
func IXWarnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.IX}, keysAndValues...)
		Logger.Warnw(msg, fields...)
	}
}

// AXInfow logs an info message with the resolver symbol (⋈)
func AXInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.AX}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}
