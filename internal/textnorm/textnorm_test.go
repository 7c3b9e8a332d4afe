package textnorm

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in     string
		locale string
		want   string
	}{
		{"  Salom  ", "uz", "salom"},
		{"Salom,   dunyo!", "uz", "salom dunyo"},
		{"MEN MAKTABGA BORDIM", "uz", "men maktabga bordim"},
		{"oʻqituvchi", "uz", "o'qituvchi"},
		{"gʻalaba", "uz", "g'alaba"},
		{"o’zbek tili", "uz", "o'zbek tili"},
		{"to`g`ri", "uz", "to'g'ri"},
		{"What's up?", "en", "what's up"},
		{"", "uz", ""},
		{"   ", "uz", ""},
		{"a\tb\n c", "uz", "a b c"},
	}

	for _, tt := range tests {
		got := Normalize(tt.in, tt.locale)
		if got != tt.want {
			t.Errorf("Normalize(%q, %q) = %q, want %q", tt.in, tt.locale, got, tt.want)
		}
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"salom", "", 5},
		{"", "salom", 5},
		{"salom", "salom", 0},
		{"kitten", "sitting", 3},
		{"men maktabga bordim", "men maktabg bordim", 1},
		{"oʻzbek", "o'zbek", 1},
	}

	for _, tt := range tests {
		got := EditDistance(tt.a, tt.b)
		if got != tt.want {
			t.Errorf("EditDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	// Equal strings always score 1
	for _, s := range []string{"", "a", "salom", "men maktabga bordim"} {
		if got := Similarity(s, s); got != 1 {
			t.Errorf("Similarity(%q, %q) = %f, want 1", s, s, got)
		}
	}

	// Exactly one empty → 0
	if got := Similarity("salom", ""); got != 0 {
		t.Errorf("Similarity(salom, \"\") = %f, want 0", got)
	}
	if got := Similarity("", "salom"); got != 0 {
		t.Errorf("Similarity(\"\", salom) = %f, want 0", got)
	}

	// One deletion in a 19-rune string → 1 - 1/19
	got := Similarity("men maktabga bordim", "men maktabg bordim")
	want := 1 - 1.0/19
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Similarity one-deletion = %f, want %f", got, want)
	}

	// Symmetric
	a, b := "assalomu alaykum", "salom"
	if Similarity(a, b) != Similarity(b, a) {
		t.Errorf("Similarity is not symmetric for (%q, %q)", a, b)
	}

	// Bounded in [0,1]
	if s := Similarity("abc", "xyz"); s < 0 || s > 1 {
		t.Errorf("Similarity out of range: %f", s)
	}
}

func TestWordOverlap(t *testing.T) {
	tests := []struct {
		candidate string
		reference string
		want      float64
	}{
		{"men maktabga bordim", "men maktabga bordim", 1},
		{"men bordim", "men maktabga bordim", 2.0 / 3},
		{"hech narsa", "men maktabga bordim", 0},
		{"", "men maktabga bordim", 0},
		{"salom", "", 0},
		{"bordim maktabga men", "men maktabga bordim", 1}, // order-insensitive
	}

	for _, tt := range tests {
		got := WordOverlap(tt.candidate, tt.reference)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("WordOverlap(%q, %q) = %f, want %f", tt.candidate, tt.reference, got, tt.want)
		}
	}
}
