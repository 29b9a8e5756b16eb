package noteforge

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Fields is a frontmatter field mapping.
type Fields map[string]Value

// SerializeOptions controls frontmatter emission.
type SerializeOptions struct {
	// IncludeEmpty keeps null/empty fields instead of dropping them.
	IncludeEmpty bool
	// SortFields orders all fields alphabetically instead of canonically.
	SortFields bool
}

// canonicalFieldOrder is the fixed bucket ordering used when emitting
// frontmatter: identity/dates, classification, content stats, note-system
// list fields, task/progress, knowledge/citation, finance, health,
// AI/automation metadata, versioning, geo/time, media, collaboration,
// custom, publish/visibility. Fields not listed here sort alphabetically
// after the canonical ones.
var canonicalFieldOrder = []string{
	// identity and dates
	"title", "id", "created", "modified", "date", "time",
	// classification
	"type", "category", "subcategory", "status", "importance", "priority",
	// content statistics
	"word_count", "reading_time", "char_count",
	// note-system list fields
	"tags", "aliases", "cssclasses", "related", "related_links", "wikilinks", "backlinks",
	// task and progress
	"due", "completed", "progress", "recurrence",
	// knowledge and citation
	"source", "author", "url", "citation", "reference",
	// finance
	"amount", "currency", "account", "merchant",
	// health
	"calories", "duration", "distance", "heart_rate",
	// AI and automation metadata
	"ai_category", "ai_summary", "confidence", "data_quality", "auto_generated", "model",
	// versioning
	"version", "revision", "schema_version",
	// geo and time
	"location", "coordinates", "timezone",
	// media
	"attachments", "images", "audio", "video",
	// collaboration
	"assignee", "participants", "channel", "shared_with",
	// custom
	"custom", "extra", "metadata",
	// publish and visibility
	"publish", "draft", "visibility", "permalink",
}

var canonicalFieldRank = func() map[string]int {
	ranks := make(map[string]int, len(canonicalFieldOrder))
	for i, key := range canonicalFieldOrder {
		ranks[key] = i
	}
	return ranks
}()

// listTypedKeys are keys whose values are always emitted as sequences. A
// comma-separated string under one of these normalizes into a list.
var listTypedKeys = map[string]bool{
	"tags": true, "aliases": true, "cssclasses": true, "related": true,
	"related_links": true, "wikilinks": true, "backlinks": true,
	"attachments": true, "images": true, "participants": true,
	"shared_with": true, "permalink": true,
}

// tagLikeKeys get a leading '#' stripped from each entry so the emitted
// sequence holds bare tag names.
var tagLikeKeys = map[string]bool{
	"tags": true,
}

// numericTypedKeys coerce string values to int or float.
var numericTypedKeys = map[string]bool{
	"word_count": true, "reading_time": true, "char_count": true,
	"progress": true, "amount": true, "calories": true, "duration": true,
	"distance": true, "heart_rate": true, "confidence": true,
	"priority": true, "version": true, "revision": true,
}

// booleanTypedKeys coerce string values to bool using the fixed token set
// (true/yes/on, false/no/off).
var booleanTypedKeys = map[string]bool{
	"publish": true, "draft": true, "completed": true,
	"auto_generated": true, "pinned": true,
}

// dateTimeKeys coerce to "2006-01-02 15:04"; dateOnlyKeys to "2006-01-02".
var dateTimeKeys = map[string]bool{
	"created": true, "modified": true,
}

var dateOnlyKeys = map[string]bool{
	"date": true, "due": true,
}

// SerializeFrontmatter emits a canonically ordered, fence-delimited header
// block for the given field mapping. Emission is deterministic: the same
// mapping always produces the same bytes.
func SerializeFrontmatter(fields Fields, opts SerializeOptions) string {
	prepared := make(Fields, len(fields))
	for key, value := range fields {
		coerced := coerceField(key, value)
		if !opts.IncludeEmpty && coerced.IsEmpty() {
			continue
		}
		prepared[key] = coerced
	}

	keys := orderFieldKeys(prepared, opts.SortFields)

	var out strings.Builder
	out.WriteString(fenceDelimiter)
	out.WriteString("\n")
	for _, key := range keys {
		writeField(&out, key, prepared[key], 0)
	}
	out.WriteString(fenceDelimiter)
	out.WriteString("\n")
	return out.String()
}

// coerceField applies per-key type coercion before formatting.
func coerceField(key string, value Value) Value {
	switch {
	case listTypedKeys[key]:
		return coerceList(value)
	case numericTypedKeys[key] && value.Kind() == KindString:
		inferred := Infer(value.AsString())
		if inferred.Kind() == KindNumber {
			return inferred
		}
		return value
	case booleanTypedKeys[key] && value.Kind() == KindString:
		inferred := Infer(value.AsString())
		if inferred.Kind() == KindBool {
			return inferred
		}
		return value
	case dateTimeKeys[key]:
		return coerceDate(value, "2006-01-02 15:04")
	case dateOnlyKeys[key]:
		return coerceDate(value, "2006-01-02")
	default:
		return value
	}
}

// coerceList normalizes a comma-separated string into a list and wraps
// bare scalars, so list-typed fields are always sequences.
func coerceList(value Value) Value {
	switch value.Kind() {
	case KindList:
		return value
	case KindNull:
		return value
	case KindString:
		s := value.AsString()
		if s == "" {
			return Null()
		}
		parts := strings.Split(s, ",")
		items := make([]Value, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			items = append(items, String(part))
		}
		return List(items...)
	default:
		return List(value)
	}
}

// coerceDate reformats date-like values into the fixed layout; values that
// do not parse as dates pass through untouched.
func coerceDate(value Value, layout string) Value {
	if value.IsEmpty() {
		return value
	}
	t, err := parseDate(value)
	if err != nil {
		return value
	}
	return String(t.Format(layout))
}

// orderFieldKeys returns the emission order: canonical fields first in
// bucket order, then remaining fields alphabetically; or pure alphabetical
// when sortFields is set.
func orderFieldKeys(fields Fields, sortFields bool) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	if sortFields {
		sort.Strings(keys)
		return keys
	}

	sort.Slice(keys, func(i, j int) bool {
		ri, iCanonical := canonicalFieldRank[keys[i]]
		rj, jCanonical := canonicalFieldRank[keys[j]]
		switch {
		case iCanonical && jCanonical:
			return ri < rj
		case iCanonical:
			return true
		case jCanonical:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// writeField emits one "key: value" entry at the given indent level.
func writeField(out *strings.Builder, key string, value Value, indent int) {
	pad := strings.Repeat("  ", indent)

	switch value.Kind() {
	case KindList:
		out.WriteString(pad + key + ":\n")
		for _, item := range value.AsList() {
			text := item.Format()
			if tagLikeKeys[key] {
				text = strings.TrimPrefix(text, "#")
			}
			out.WriteString(pad + "  - " + quoteScalar(text, item.Kind()) + "\n")
		}
	case KindMap:
		out.WriteString(pad + key + ":\n")
		subKeys := make([]string, 0, len(value.AsMap()))
		for k := range value.AsMap() {
			subKeys = append(subKeys, k)
		}
		sort.Strings(subKeys)
		for _, k := range subKeys {
			writeField(out, k, value.Get(k), indent+1)
		}
	case KindString:
		s := value.AsString()
		if strings.Contains(s, "\n") {
			out.WriteString(pad + key + ": |\n")
			for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
				out.WriteString(pad + "  " + line + "\n")
			}
		} else {
			out.WriteString(pad + key + ": " + quoteScalar(s, KindString) + "\n")
		}
	case KindNull:
		out.WriteString(pad + key + ": null\n")
	default:
		out.WriteString(pad + key + ": " + value.Format() + "\n")
	}
}

// quoteScalar wraps a string in double quotes when its bare form would
// change meaning in the header block: structural characters, leading
// indicator characters, or text that looks like a boolean, null, or
// number.
func quoteScalar(s string, kind Kind) string {
	if kind != KindString {
		return s
	}
	if s == "" {
		return `""`
	}
	if needsQuoting(s) {
		escaped := strings.ReplaceAll(s, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		return `"` + escaped + `"`
	}
	return s
}

func needsQuoting(s string) bool {
	if s != strings.TrimSpace(s) {
		return true
	}
	switch strings.ToLower(s) {
	case "true", "false", "yes", "no", "on", "off", "null", "nil", "none", "~":
		return true
	}
	if intLikeRegex.MatchString(s) || floatLikeRegex.MatchString(s) {
		return true
	}
	if strings.ContainsAny(s, ":#\"'`{}[]&*!|>%@,") {
		return true
	}
	switch s[0] {
	case '-', '?':
		return true
	}
	return false
}

// ParseFrontmatter decodes an emitted header block (with or without its
// fences) back into a field mapping. Round-tripping a serialized mapping
// yields an equal mapping for every supported scalar and list type.
func ParseFrontmatter(text string) (Fields, error) {
	interior := text
	if strings.HasPrefix(interior, fenceDelimiter) {
		inner, _, ok := splitFrontmatterFence(interior)
		if ok {
			interior = inner
		} else {
			interior = strings.TrimPrefix(interior, fenceDelimiter)
			interior = strings.TrimSuffix(strings.TrimSuffix(interior, "\n"), fenceDelimiter)
		}
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal([]byte(interior), &raw); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}

	fields := make(Fields, len(raw))
	for key, value := range raw {
		fields[key] = From(normalizeYAML(value))
	}
	return fields, nil
}

// normalizeYAML converts yaml.v3 decode shapes (map[string]interface{},
// []interface{}, time.Time) into the forms From understands.
func normalizeYAML(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, item := range x {
			m[k] = normalizeYAML(item)
		}
		return m
	case []interface{}:
		items := make([]interface{}, len(x))
		for i, item := range x {
			items[i] = normalizeYAML(item)
		}
		return items
	case time.Time:
		return x.Format("2006-01-02 15:04")
	default:
		return v
	}
}
