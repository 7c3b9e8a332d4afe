package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name    string
		kind    ExerciseKind
		raw     string
		wantErr bool
		check   func(t *testing.T, a Answer)
	}{
		{
			name: "choice string key",
			kind: KindMultipleChoice,
			raw:  `"b"`,
			check: func(t *testing.T, a Answer) {
				if a.Key == nil || *a.Key != "b" {
					t.Errorf("Key = %v, want b", a.Key)
				}
			},
		},
		{
			name: "choice integer key canonicalized",
			kind: KindMultipleChoice,
			raw:  `2`,
			check: func(t *testing.T, a Answer) {
				if a.Key == nil || *a.Key != "2" {
					t.Errorf("Key = %v, want 2", a.Key)
				}
			},
		},
		{
			name:    "choice rejects object",
			kind:    KindMultipleChoice,
			raw:     `{"key":"b"}`,
			wantErr: true,
		},
		{
			name: "true_false boolean",
			kind: KindTrueFalse,
			raw:  `true`,
			check: func(t *testing.T, a Answer) {
				if a.Bool == nil || !*a.Bool {
					t.Errorf("Bool = %v, want true", a.Bool)
				}
			},
		},
		{
			name:    "true_false rejects string",
			kind:    KindTrueFalse,
			raw:     `"true"`,
			wantErr: true,
		},
		{
			name: "matching map",
			kind: KindMatching,
			raw:  `{"1":"olma","2":"nok"}`,
			check: func(t *testing.T, a Answer) {
				if len(a.Pairs) != 2 || a.Pairs["1"] != "olma" {
					t.Errorf("Pairs = %v", a.Pairs)
				}
			},
		},
		{
			name:    "matching rejects list",
			kind:    KindMatching,
			raw:     `["olma","nok"]`,
			wantErr: true,
		},
		{
			name: "text kind accepts empty string",
			kind: KindFillInBlank,
			raw:  `""`,
			check: func(t *testing.T, a Answer) {
				if a.Text == nil || *a.Text != "" {
					t.Errorf("Text = %v, want empty string", a.Text)
				}
			},
		},
		{
			name:    "text kind requires answer",
			kind:    KindShortAnswer,
			raw:     "",
			wantErr: true,
		},
		{
			name: "speaking allows null answer",
			kind: KindSpeaking,
			raw:  `null`,
			check: func(t *testing.T, a Answer) {
				if a.Text != nil {
					t.Errorf("Text = %v, want nil", a.Text)
				}
			},
		},
		{
			name: "listening allows missing answer",
			kind: KindListening,
			raw:  "",
		},
		{
			name: "dictation allows missing answer",
			kind: KindDictation,
			raw:  "",
		},
		{
			name:    "unknown kind rejected",
			kind:    ExerciseKind("crossword"),
			raw:     `"x"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAnswer(tt.kind, json.RawMessage(tt.raw))
			if tt.wantErr {
				var invalid *InvalidInputError
				if !errors.As(err, &invalid) {
					t.Fatalf("expected InvalidInputError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, a)
			}
		})
	}
}

func TestParseCorrectAnswer(t *testing.T) {
	t.Run("single string becomes list", func(t *testing.T) {
		c, err := ParseCorrectAnswer(KindTranslation, json.RawMessage(`"the book"`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(c.Texts) != 1 || c.Texts[0] != "the book" {
			t.Errorf("Texts = %v", c.Texts)
		}
	})

	t.Run("accepted list preserved", func(t *testing.T) {
		c, err := ParseCorrectAnswer(KindFillInBlank, json.RawMessage(`["boradi","ketadi"]`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(c.Texts) != 2 {
			t.Errorf("Texts = %v", c.Texts)
		}
	})

	t.Run("empty list rejected", func(t *testing.T) {
		if _, err := ParseCorrectAnswer(KindShortAnswer, json.RawMessage(`[]`)); err == nil {
			t.Error("expected error for empty accepted list")
		}
	})

	t.Run("empty matching map rejected", func(t *testing.T) {
		if _, err := ParseCorrectAnswer(KindMatching, json.RawMessage(`{}`)); err == nil {
			t.Error("expected error for empty pair map")
		}
	})

	t.Run("missing column rejected", func(t *testing.T) {
		if _, err := ParseCorrectAnswer(KindEssay, nil); err == nil {
			t.Error("expected error for missing correct_answer")
		}
	})

	t.Run("definition errors are not InvalidInputError", func(t *testing.T) {
		_, err := ParseCorrectAnswer(KindTrueFalse, json.RawMessage(`"yes"`))
		if err == nil {
			t.Fatal("expected error")
		}
		var invalid *InvalidInputError
		if errors.As(err, &invalid) {
			t.Error("definition error should not be caller input error")
		}
	})
}

func TestParseOptions(t *testing.T) {
	t.Run("map form", func(t *testing.T) {
		set, err := ParseOptions(json.RawMessage(`{"a":"2","b":"4"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !set.Has("a") || !set.Has("b") || set.Has("c") {
			t.Error("key membership wrong")
		}
		if set.Text("b") != "4" {
			t.Errorf("Text(b) = %q", set.Text("b"))
		}
	})

	t.Run("list form gets indexed keys", func(t *testing.T) {
		set, err := ParseOptions(json.RawMessage(`["to be","to go","to see"]`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if set.Len() != 3 || !set.Has("0") || !set.Has("2") {
			t.Error("indexed keys missing")
		}
		if set.Text("1") != "to go" {
			t.Errorf("Text(1) = %q", set.Text("1"))
		}
	})

	t.Run("null options", func(t *testing.T) {
		set, err := ParseOptions(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if set != nil {
			t.Errorf("set = %v, want nil", set)
		}
		if set.Has("a") || set.Len() != 0 || set.Text("k") != "k" {
			t.Error("nil OptionSet accessors not safe")
		}
	})

	t.Run("scalar rejected", func(t *testing.T) {
		if _, err := ParseOptions(json.RawMessage(`42`)); err == nil {
			t.Error("expected error for scalar options")
		}
	})
}
