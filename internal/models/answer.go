package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Answer is the tagged user-answer value. Exactly one field is populated,
// determined by the exercise kind it was parsed for. The JSONB column stays
// the storage representation; parsing happens once at evaluator entry.
type Answer struct {
	Key   *string           // multiple_choice
	Bool  *bool             // true_false
	Text  *string           // text-based kinds
	Pairs map[string]string // matching
}

// CorrectAnswer is the tagged counterpart parsed from the exercise
// definition. Text-based kinds may accept several forms, so Texts is a list
// even when the column holds a single string.
type CorrectAnswer struct {
	Key   string
	Bool  bool
	Texts []string
	Pairs map[string]string
}

// ParseAnswer validates the raw user answer against the shape the exercise
// kind permits. Shape violations are InvalidInputError; an empty text answer
// is NOT an error (it grades as wrong but is still recordable).
func ParseAnswer(kind ExerciseKind, raw json.RawMessage) (Answer, error) {
	if len(raw) == 0 || string(raw) == "null" {
		switch kind {
		case KindSpeaking, KindListening, KindDictation:
			// Audio-capable kinds may carry no text at all.
			return Answer{}, nil
		}
		return Answer{}, &InvalidInputError{Reason: "answer is required"}
	}

	switch kind {
	case KindMultipleChoice:
		key, err := decodeKey(raw)
		if err != nil {
			return Answer{}, &InvalidInputError{Reason: "multiple_choice answer must be an option key"}
		}
		return Answer{Key: &key}, nil

	case KindTrueFalse:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Answer{}, &InvalidInputError{Reason: "true_false answer must be a boolean"}
		}
		return Answer{Bool: &b}, nil

	case KindMatching:
		var pairs map[string]string
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return Answer{}, &InvalidInputError{Reason: "matching answer must be a map of key to value"}
		}
		return Answer{Pairs: pairs}, nil

	case KindFillInBlank, KindShortAnswer, KindEssay,
		KindListening, KindTranslation, KindSpeaking, KindDictation:
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return Answer{}, &InvalidInputError{Reason: fmt.Sprintf("%s answer must be a string", kind)}
		}
		return Answer{Text: &text}, nil
	}

	return Answer{}, &InvalidInputError{Reason: fmt.Sprintf("unknown exercise kind %q", kind)}
}

// ParseCorrectAnswer decodes the exercise definition's answer column. A
// malformed definition is an internal failure, not caller input, so errors
// here are plain (they surface as evaluation failures).
func ParseCorrectAnswer(kind ExerciseKind, raw json.RawMessage) (CorrectAnswer, error) {
	if len(raw) == 0 {
		return CorrectAnswer{}, fmt.Errorf("exercise has no correct_answer")
	}

	switch kind {
	case KindMultipleChoice:
		key, err := decodeKey(raw)
		if err != nil {
			return CorrectAnswer{}, fmt.Errorf("decode correct key: %w", err)
		}
		return CorrectAnswer{Key: key}, nil

	case KindTrueFalse:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return CorrectAnswer{}, fmt.Errorf("decode correct bool: %w", err)
		}
		return CorrectAnswer{Bool: b}, nil

	case KindMatching:
		var pairs map[string]string
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return CorrectAnswer{}, fmt.Errorf("decode correct pairs: %w", err)
		}
		if len(pairs) == 0 {
			return CorrectAnswer{}, fmt.Errorf("matching exercise has empty pair map")
		}
		return CorrectAnswer{Pairs: pairs}, nil

	default:
		// Text-based kinds: single string or list of accepted strings.
		var single string
		if err := json.Unmarshal(raw, &single); err == nil {
			return CorrectAnswer{Texts: []string{single}}, nil
		}
		var many []string
		if err := json.Unmarshal(raw, &many); err != nil {
			return CorrectAnswer{}, fmt.Errorf("decode correct text(s): %w", err)
		}
		if len(many) == 0 {
			return CorrectAnswer{}, fmt.Errorf("exercise has empty accepted-answer list")
		}
		return CorrectAnswer{Texts: many}, nil
	}
}

// decodeKey accepts a JSON string or integer option key and canonicalizes
// it to a string.
func decodeKey(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatInt(n, 10), nil
	}
	return "", fmt.Errorf("key is neither string nor integer")
}

// OptionSet is the parsed form of an exercise's options column, which may
// be a map of key to display text or a plain list.
type OptionSet struct {
	byKey map[string]string
	order []string
}

func ParseOptions(raw json.RawMessage) (*OptionSet, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var asMap map[string]string
	if err := json.Unmarshal(raw, &asMap); err == nil {
		set := &OptionSet{byKey: asMap}
		for k := range asMap {
			set.order = append(set.order, k)
		}
		return set, nil
	}

	var asList []string
	if err := json.Unmarshal(raw, &asList); err != nil {
		return nil, fmt.Errorf("options must be a map or a list")
	}
	set := &OptionSet{byKey: make(map[string]string, len(asList))}
	for i, text := range asList {
		key := strconv.Itoa(i)
		set.byKey[key] = text
		set.order = append(set.order, key)
	}
	return set, nil
}

func (o *OptionSet) Has(key string) bool {
	if o == nil {
		return false
	}
	_, ok := o.byKey[key]
	return ok
}

// Text returns the display text for a key, falling back to the key itself
// so feedback never shows an empty correct answer.
func (o *OptionSet) Text(key string) string {
	if o == nil {
		return key
	}
	if text, ok := o.byKey[key]; ok {
		return text
	}
	return key
}

func (o *OptionSet) Len() int {
	if o == nil {
		return 0
	}
	return len(o.byKey)
}
