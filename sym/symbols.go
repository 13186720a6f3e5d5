// Package sym defines the glyphs cersei uses in CLI help and structured logs.
// Logging with a glyph as a field (logger.FieldSymbol) keeps messages clean
// and makes log lines filterable by subsystem.
package sym

// Glyph string constants for the command surface.
const (
	AM = "≡" // am: configuration and system settings
	IX = "⨳" // ix: ingest external catalog records
	AX = "⋈" // ax: resolve free text against known items
	DB = "⊔" // database/storage layer
)

// System infrastructure symbols.
const (
	Revision = "⟲" // revision commit and change detection
	Prune    = "✂" // removal of superseded revisions
	Serve    = "⌬" // read-only query API
)

// registry binds each glyph to its command and description.
var registry = []struct {
	glyph       string
	command     string
	description string
}{
	{AM, "am", "Configuration: effective settings and validation"},
	{IX, "ingest", "Ingest: commit catalog records as revisions"},
	{AX, "resolve", "Resolve: map free text to canonical items"},
	{DB, "db", "Database: storage statistics"},
	{Prune, "prune", "Prune: delete superseded revisions"},
	{Serve, "serve", "Serve: read-only entity API"},
}

// SymbolToCommand maps glyph strings to their command names.
var SymbolToCommand = map[string]string{}

// CommandToSymbol maps command names to their glyph strings.
var CommandToSymbol = map[string]string{}

// CommandDescriptions provides one-line explanations for CLI help.
var CommandDescriptions = map[string]string{}

func init() {
	for _, e := range registry {
		SymbolToCommand[e.glyph] = e.command
		CommandToSymbol[e.command] = e.glyph
		CommandDescriptions[e.command] = e.description
	}
}

// ForCommand returns the glyph for a command name, or "" when the command has none.
func ForCommand(command string) string {
	return CommandToSymbol[command]
}
