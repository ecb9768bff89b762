package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Protocol and desync (T001-T009)
	// ============================================

	"T001": {
		Category:   CategoryProtocol,
		Message:    "Inbound message could not be decoded",
		Detail:     "The server sent a message that does not match the patch or vnode wire format. Applying it could corrupt the live tree, so the session stops.",
		Suggestion: "Check that the server and client speak the same protocol version",
	},
	"T002": {
		Category:   CategoryDesync,
		Message:    "Patch path out of bounds",
		Detail:     "A patch addressed a child index that does not exist in the live tree. The server's idea of the tree shape has diverged from the client's.",
		Suggestion: "Restart the session to receive a fresh tree",
	},
	"T003": {
		Category: CategoryDesync,
		Message:  "Batch aborted after a patch fault",
		Detail:   "The remaining patches of the batch were dropped because they may depend on the faulted one.",
	},

	// ============================================
	// Transport (T010-T019)
	// ============================================

	"T010": {
		Category:   CategoryTransport,
		Message:    "Could not connect to endpoint",
		Suggestion: "Check the endpoint URL and that the server is running",
	},
	"T011": {
		Category: CategoryTransport,
		Message:  "Connection lost",
	},
	"T012": {
		Category: CategoryTransport,
		Message:  "Event send queue full",
		Detail:   "Outbound events are produced faster than the connection drains them. The event was dropped.",
	},

	// ============================================
	// Configuration (T020-T029)
	// ============================================

	"T020": {
		Category:   CategoryConfig,
		Message:    "Config file not found",
		Suggestion: "Create thinclient.json or pass --config",
	},
	"T021": {
		Category:   CategoryConfig,
		Message:    "Invalid config file",
		Suggestion: "Check that the config file is valid JSON",
	},
	"T022": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
	},

	// ============================================
	// Diagnostics storage (T030-T049)
	// ============================================

	"T030": {
		Category: CategoryJournal,
		Message:  "Could not open journal",
	},
	"T031": {
		Category: CategoryJournal,
		Message:  "Could not write journal entry",
	},
	"T032": {
		Category:   CategoryJournal,
		Message:    "Journal has no session",
		Suggestion: "List recorded sessions with 'thinclient replay --list'",
	},
	"T040": {
		Category: CategorySnapshot,
		Message:  "Could not store tree snapshot",
	},

	// ============================================
	// CLI (T050-T059)
	// ============================================

	"T050": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},
	"T051": {
		Category: CategoryCLI,
		Message:  "Could not read input file",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
