package noteforge

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSerializeFrontmatterCanonicalOrder(t *testing.T) {
	fields := Fields{
		"type":    String("note"),
		"title":   String("Hi"),
		"created": String("2026-08-23 14:05"),
		"tags":    StringList("work", "focus"),
	}

	got := SerializeFrontmatter(fields, SerializeOptions{})
	want := "---\n" +
		"title: Hi\n" +
		"created: \"2026-08-23 14:05\"\n" +
		"type: note\n" +
		"tags:\n" +
		"  - work\n" +
		"  - focus\n" +
		"---\n"

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("serialized header mismatch (-want +got):\n%s", diff)
	}
}

func TestSerializeFrontmatterOrderIndependentOfInsertion(t *testing.T) {
	a := Fields{}
	a["word_count"] = Int(10)
	a["title"] = String("X")
	a["type"] = String("note")

	b := Fields{}
	b["type"] = String("note")
	b["word_count"] = Int(10)
	b["title"] = String("X")

	first := SerializeFrontmatter(a, SerializeOptions{})
	second := SerializeFrontmatter(b, SerializeOptions{})
	if first != second {
		t.Errorf("insertion order leaked into output:\n%q\n%q", first, second)
	}

	titleIdx := strings.Index(first, "title:")
	typeIdx := strings.Index(first, "type:")
	countIdx := strings.Index(first, "word_count:")
	if !(titleIdx < typeIdx && typeIdx < countIdx) {
		t.Errorf("canonical order violated: title@%d type@%d word_count@%d\n%s",
			titleIdx, typeIdx, countIdx, first)
	}
}

func TestSerializeFrontmatterUnknownKeysSortAfterCanonical(t *testing.T) {
	fields := Fields{
		"zebra": String("z"),
		"apple": String("a"),
		"title": String("T"),
	}
	out := SerializeFrontmatter(fields, SerializeOptions{})

	titleIdx := strings.Index(out, "title:")
	appleIdx := strings.Index(out, "apple:")
	zebraIdx := strings.Index(out, "zebra:")
	if !(titleIdx < appleIdx && appleIdx < zebraIdx) {
		t.Errorf("unknown keys not alphabetical after canonical:\n%s", out)
	}
}

func TestSerializeFrontmatterCoercions(t *testing.T) {
	tests := []struct {
		name   string
		fields Fields
		want   string
	}{
		{
			name:   "comma string under list key",
			fields: Fields{"tags": String("work, planning")},
			want:   "---\ntags:\n  - work\n  - planning\n---\n",
		},
		{
			name:   "tag hashes stripped",
			fields: Fields{"tags": StringList("#work", "focus")},
			want:   "---\ntags:\n  - work\n  - focus\n---\n",
		},
		{
			name:   "scalar wraps under list key",
			fields: Fields{"aliases": String("alt-name")},
			want:   "---\naliases:\n  - alt-name\n---\n",
		},
		{
			name:   "permalink is list typed",
			fields: Fields{"permalink": String("/notes/alpha")},
			want:   "---\npermalink:\n  - /notes/alpha\n---\n",
		},
		{
			name:   "numeric key coerces string",
			fields: Fields{"word_count": String("42")},
			want:   "---\nword_count: 42\n---\n",
		},
		{
			name:   "numeric key keeps non-numeric string",
			fields: Fields{"amount": String("lots")},
			want:   "---\namount: lots\n---\n",
		},
		{
			name:   "boolean key coerces token",
			fields: Fields{"publish": String("yes")},
			want:   "---\npublish: true\n---\n",
		},
		{
			name:   "date-only key truncates datetime",
			fields: Fields{"due": String("2026-09-01T10:30:00Z")},
			want:   "---\ndue: 2026-09-01\n---\n",
		},
		{
			name:   "datetime key reformats",
			fields: Fields{"created": String("2026-08-23T14:05:00Z")},
			want:   "---\ncreated: \"2026-08-23 14:05\"\n---\n",
		},
		{
			name:   "unparsable date passes through",
			fields: Fields{"due": String("someday")},
			want:   "---\ndue: someday\n---\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SerializeFrontmatter(tt.fields, SerializeOptions{})
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSerializeFrontmatterQuoting(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"plain text unquoted", "My Note", "title: My Note\n"},
		{"boolean lookalike quoted", "true", "title: \"true\"\n"},
		{"null lookalike quoted", "none", "title: \"none\"\n"},
		{"number lookalike quoted", "3.14", "title: \"3.14\"\n"},
		{"colon quoted", "note: draft", "title: \"note: draft\"\n"},
		{"leading dash quoted", "- item", "title: \"- item\"\n"},
		{"hash quoted", "a #tag", "title: \"a #tag\"\n"},
		{"embedded quotes escaped", `say "hi"`, "title: \"say \\\"hi\\\"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SerializeFrontmatter(Fields{"title": String(tt.value)}, SerializeOptions{})
			want := "---\n" + tt.want + "---\n"
			if got != want {
				t.Errorf("quoting of %q = %q, want %q", tt.value, got, want)
			}
		})
	}
}

func TestSerializeFrontmatterMultiline(t *testing.T) {
	got := SerializeFrontmatter(Fields{"ai_summary": String("line one\nline two\n")}, SerializeOptions{})
	want := "---\nai_summary: |\n  line one\n  line two\n---\n"
	if got != want {
		t.Errorf("multiline block = %q, want %q", got, want)
	}
}

func TestSerializeFrontmatterNestedMap(t *testing.T) {
	fields := Fields{
		"metadata": Map(map[string]Value{
			"source":  String("inbox"),
			"version": Int(2),
		}),
	}
	got := SerializeFrontmatter(fields, SerializeOptions{})
	want := "---\nmetadata:\n  source: inbox\n  version: 2\n---\n"
	if got != want {
		t.Errorf("nested map = %q, want %q", got, want)
	}
}

func TestSerializeFrontmatterOptions(t *testing.T) {
	t.Run("empty fields dropped by default", func(t *testing.T) {
		fields := Fields{"title": String("X"), "note": String(""), "extra": Null()}
		got := SerializeFrontmatter(fields, SerializeOptions{})
		if strings.Contains(got, "note:") || strings.Contains(got, "extra:") {
			t.Errorf("empty fields leaked into output: %q", got)
		}
	})

	t.Run("include empty keeps them", func(t *testing.T) {
		fields := Fields{"title": String("X"), "extra": Null()}
		got := SerializeFrontmatter(fields, SerializeOptions{IncludeEmpty: true})
		if !strings.Contains(got, "extra: null\n") {
			t.Errorf("expected null field in output: %q", got)
		}
	})

	t.Run("sort fields alphabetically", func(t *testing.T) {
		fields := Fields{"title": String("X"), "created": String("2026-08-23 14:05"), "apple": String("a")}
		got := SerializeFrontmatter(fields, SerializeOptions{SortFields: true})
		appleIdx := strings.Index(got, "apple:")
		createdIdx := strings.Index(got, "created:")
		titleIdx := strings.Index(got, "title:")
		if !(appleIdx < createdIdx && createdIdx < titleIdx) {
			t.Errorf("alphabetical order violated:\n%s", got)
		}
	})
}

func TestFrontmatterRoundTrip(t *testing.T) {
	original := Fields{
		"title":      String("Quarterly Review"),
		"word_count": Int(120),
		"amount":     Float(12.5),
		"publish":    Bool(true),
		"tags":       StringList("work", "finance"),
		"ai_summary": String("line one\nline two\n"),
	}

	serialized := SerializeFrontmatter(original, SerializeOptions{})
	parsed, err := ParseFrontmatter(serialized)
	if err != nil {
		t.Fatalf("ParseFrontmatter error: %v", err)
	}

	got := map[string]interface{}{}
	for key, value := range parsed {
		got[key] = value.Interface()
	}
	want := map[string]interface{}{
		"title":      "Quarterly Review",
		"word_count": 120,
		"amount":     12.5,
		"publish":    true,
		"tags":       []interface{}{"work", "finance"},
		"ai_summary": "line one\nline two\n",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFrontmatter(t *testing.T) {
	t.Run("with fences", func(t *testing.T) {
		fields, err := ParseFrontmatter("---\ntitle: Hello\ncount: 3\n---\n")
		if err != nil {
			t.Fatalf("ParseFrontmatter error: %v", err)
		}
		if !fields["title"].Equal(String("Hello")) {
			t.Errorf("title = %v", fields["title"].Format())
		}
		if !fields["count"].Equal(Int(3)) {
			t.Errorf("count = %v", fields["count"].Format())
		}
	})

	t.Run("without fences", func(t *testing.T) {
		fields, err := ParseFrontmatter("title: Hello\n")
		if err != nil {
			t.Fatalf("ParseFrontmatter error: %v", err)
		}
		if !fields["title"].Equal(String("Hello")) {
			t.Errorf("title = %v", fields["title"].Format())
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		if _, err := ParseFrontmatter("title: [unclosed\n"); err == nil {
			t.Error("expected error for invalid yaml")
		}
	})

	t.Run("empty interior", func(t *testing.T) {
		fields, err := ParseFrontmatter("---\n---\n")
		if err != nil {
			t.Fatalf("ParseFrontmatter error: %v", err)
		}
		if len(fields) != 0 {
			t.Errorf("expected no fields, got %v", fields)
		}
	})
}
