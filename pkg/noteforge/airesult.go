package noteforge

// AIResult carries the output of the external analysis step. Every field
// is optional; the engine only reads it.
type AIResult struct {
	Category   string
	Confidence float64
	Summary    string
	Tags       []string
	Sentiment  string
	Entities   []string
}

// categoryTypeTable maps an AI category to the derived document type.
var categoryTypeTable = map[string]string{
	"task":      "task",
	"idea":      "note",
	"journal":   "journal",
	"finance":   "transaction",
	"health":    "health-log",
	"meeting":   "meeting",
	"reference": "reference",
	"contact":   "contact",
	"event":     "event",
}

// categoryDefaults maps a category to its default importance/priority
// pair, used only when the caller supplied neither.
var categoryDefaults = map[string]struct {
	importance string
	priority   int
}{
	"task":    {"high", 2},
	"finance": {"high", 2},
	"meeting": {"high", 2},
	"event":   {"high", 2},
	"health":  {"medium", 3},
	"idea":    {"medium", 3},
	"contact": {"medium", 3},
	"journal": {"low", 4},
}

// dataQualityBucket maps a confidence score to its quality label.
func dataQualityBucket(confidence float64) string {
	switch {
	case confidence >= 0.9:
		return "high"
	case confidence >= 0.7:
		return "medium"
	default:
		return "low"
	}
}

// ApplyAIResult folds an AI result into a field mapping. Fields the caller
// already supplied always win; the result object is never mutated.
func ApplyAIResult(fields Fields, result *AIResult) {
	if result == nil {
		return
	}

	setIfAbsent := func(key string, value Value) {
		if existing, ok := fields[key]; ok && !existing.IsEmpty() {
			return
		}
		fields[key] = value
	}

	if result.Category != "" {
		setIfAbsent("category", String(result.Category))
		docType, ok := categoryTypeTable[result.Category]
		if !ok {
			docType = "note"
		}
		setIfAbsent("type", String(docType))

		defaults, ok := categoryDefaults[result.Category]
		if !ok {
			defaults.importance, defaults.priority = "medium", 3
		}
		setIfAbsent("importance", String(defaults.importance))
		setIfAbsent("priority", Int(defaults.priority))
	}

	if result.Confidence > 0 {
		setIfAbsent("confidence", Float(result.Confidence))
		setIfAbsent("data_quality", String(dataQualityBucket(result.Confidence)))
	}
	if result.Summary != "" {
		setIfAbsent("ai_summary", String(result.Summary))
	}
	if len(result.Tags) > 0 {
		setIfAbsent("tags", StringList(result.Tags...))
	}
	if result.Sentiment != "" {
		setIfAbsent("sentiment", String(result.Sentiment))
	}
}
