package utils

import (
	"errors"
	"strings"
	"testing"
)

type extraction struct {
	InitialRequirements []string `json:"initial_requirements"`
	ClarifyingQuestions []string `json:"clarifying_questions"`
}

func TestParseJSONWithKeys(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantReqs    int
		wantQs      int
		wantErr     error
		errContains string
	}{
		{
			name:     "plain object",
			input:    `{"initial_requirements": ["Login"], "clarifying_questions": ["Which auth provider?"]}`,
			wantReqs: 1, wantQs: 1,
		},
		{
			name:     "markdown fence",
			input:    "```json\n{\"initial_requirements\": [\"a\", \"b\"], \"clarifying_questions\": []}\n```",
			wantReqs: 2, wantQs: 0,
		},
		{
			name:     "leading and trailing prose",
			input:    "Here is the JSON you asked for:\n{\"initial_requirements\": [\"a\"], \"clarifying_questions\": [\"q\"]}\nLet me know!",
			wantReqs: 1, wantQs: 1,
		},
		{
			name:     "raw newline inside string",
			input:    "{\"initial_requirements\": [\"line one\nline two\"], \"clarifying_questions\": []}",
			wantReqs: 1, wantQs: 0,
		},
		{
			name:     "quoted JSON string",
			input:    `"{\"initial_requirements\": [\"a\"], \"clarifying_questions\": [\"q\"]}"`,
			wantReqs: 1, wantQs: 1,
		},
		{
			name:        "missing key",
			input:       `{"initial_requirements": ["a"]}`,
			wantErr:     ErrMissingKeys,
			errContains: "clarifying_questions",
		},
		{
			name:    "null key counts as missing",
			input:   `{"initial_requirements": ["a"], "clarifying_questions": null}`,
			wantErr: ErrMissingKeys,
		},
		{
			name:    "no JSON at all",
			input:   "I could not do that.",
			wantErr: ErrNoJSON,
		},
		{
			name:        "trailing comma is not repaired",
			input:       `{"initial_requirements": ["a",], "clarifying_questions": []}`,
			errContains: "parse JSON",
		},
		{
			name:        "wrong type",
			input:       `{"initial_requirements": "a", "clarifying_questions": []}`,
			errContains: "decode JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSONWithKeys[extraction](tt.input, "initial_requirements", "clarifying_questions")
			if tt.wantErr != nil || tt.errContains != "" {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error = %q, want it to contain %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got.InitialRequirements) != tt.wantReqs {
				t.Errorf("requirements = %v, want %d", got.InitialRequirements, tt.wantReqs)
			}
			if len(got.ClarifyingQuestions) != tt.wantQs {
				t.Errorf("questions = %v, want %d", got.ClarifyingQuestions, tt.wantQs)
			}
		})
	}
}

func TestSanitizeControlChars(t *testing.T) {
	in := "{\"a\": \"x\ty\"}\n"
	want := "{\"a\": \"x\\ty\"}\n"
	if got := sanitizeControlChars(in); got != want {
		t.Errorf("sanitizeControlChars() = %q, want %q", got, want)
	}
}

func TestTruncateAndFirstRunes(t *testing.T) {
	if got := Truncate("abcdef", 5); got != "ab..." {
		t.Errorf("Truncate() = %q", got)
	}
	if got := FirstRunes("héllo", 2); got != "hé" {
		t.Errorf("FirstRunes() = %q", got)
	}
	if got := FirstRunes("hi", 0); got != "" {
		t.Errorf("FirstRunes(0) = %q", got)
	}
}

func TestBulletList(t *testing.T) {
	if got := BulletList([]string{"a", "b"}); got != "- a\n- b" {
		t.Errorf("BulletList() = %q", got)
	}
	if got := BulletList(nil); got != "" {
		t.Errorf("BulletList(nil) = %q", got)
	}
}
