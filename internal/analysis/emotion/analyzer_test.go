package emotion

import (
	"errors"
	"math"
	"testing"
)

func TestAnalyzeAnxiousTextIsFear(t *testing.T) {
	label, err := Select(Analyze("I feel so anxious about tomorrow"))
	if err != nil {
		t.Fatalf("Select err: %v", err)
	}
	if label != Fear {
		t.Fatalf("expected fear, got %s", label)
	}
}

func TestAnalyzeNoSignalIsNeutral(t *testing.T) {
	label, err := Select(Analyze("???"))
	if err != nil {
		t.Fatalf("Select err: %v", err)
	}
	if label != Neutral {
		t.Fatalf("expected neutral, got %s", label)
	}
}

func TestAnalyzeCoversLabelSpace(t *testing.T) {
	result := Analyze("I am so sad and lonely")
	if err := ValidateSpace(result, DefaultLabelSpace); err != nil {
		t.Fatalf("ValidateSpace err: %v", err)
	}

	sum := 0.0
	for i, s := range result {
		if s.Label != DefaultLabelSpace[i] {
			t.Fatalf("entry %d: expected %s, got %s", i, DefaultLabelSpace[i], s.Label)
		}
		sum += s.Score
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("scores should sum to 1, got %f", sum)
	}

	if label, _ := Select(result); label != Sadness {
		t.Fatalf("expected sadness, got %s", label)
	}
}

func TestAnalyzeMatchesWholeWords(t *testing.T) {
	label, _ := Select(Analyze("I made dinner"))
	if label != Neutral {
		t.Fatalf("expected neutral for substring-only match, got %s", label)
	}
}

func TestSelectUniqueMaximum(t *testing.T) {
	c := Classification{
		{Label: Joy, Score: 0.1},
		{Label: Anger, Score: 0.7},
		{Label: Neutral, Score: 0.2},
	}
	label, err := Select(c)
	if err != nil {
		t.Fatalf("Select err: %v", err)
	}
	if label != Anger {
		t.Fatalf("expected anger, got %s", label)
	}
}

func TestSelectTieIsDeterministic(t *testing.T) {
	c := Classification{
		{Label: Neutral, Score: 0.1},
		{Label: Sadness, Score: 0.45},
		{Label: Fear, Score: 0.45},
	}
	for i := 0; i < 10; i++ {
		label, err := Select(c)
		if err != nil {
			t.Fatalf("Select err: %v", err)
		}
		if label != Sadness {
			t.Fatalf("run %d: expected first tied label sadness, got %s", i, label)
		}
	}

	ranked := c.Ranked()
	if ranked[0].Label != Sadness || ranked[1].Label != Fear {
		t.Fatalf("Ranked should keep native order for ties, got %v", ranked)
	}
	if c[0].Label != Neutral {
		t.Fatal("Ranked must not reorder the receiver")
	}
}

func TestSelectRejectsMalformed(t *testing.T) {
	cases := map[string]Classification{
		"empty":     nil,
		"no label":  {{Label: "", Score: 0.5}},
		"nan":       {{Label: Joy, Score: math.NaN()}},
		"negative":  {{Label: Joy, Score: -0.1}},
		"above one": {{Label: Joy, Score: 1.2}},
		"duplicate": {{Label: Joy, Score: 0.5}, {Label: Joy, Score: 0.5}},
	}

	for name, c := range cases {
		if _, err := Select(c); !errors.Is(err, ErrInvalidClassification) {
			t.Fatalf("%s: expected ErrInvalidClassification, got %v", name, err)
		}
	}
}

func TestValidateSpaceRejectsForeignLabel(t *testing.T) {
	c := Classification{{Label: "bored", Score: 1}}
	if err := ValidateSpace(c, []Label{Joy}); !errors.Is(err, ErrInvalidClassification) {
		t.Fatalf("expected ErrInvalidClassification, got %v", err)
	}
}

func TestParseLabels(t *testing.T) {
	got := ParseLabels(" Anger, joy ,,NEUTRAL")
	want := []Label{Anger, Joy, Neutral}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
