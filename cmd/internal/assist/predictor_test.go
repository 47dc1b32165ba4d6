package assist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"spendsense/cmd/internal/ledger"
)

type stubCompleter struct {
	reply string
	err   error

	lastPrompt string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	return s.reply, s.err
}

var testCategories = []ledger.Category{
	{ID: "cat-food", Name: "Food"},
	{ID: "cat-travel", Name: "Travel"},
}

func TestParsePrediction(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  Prediction
	}{
		{
			name:  "bare json",
			reply: `{"categoryId":"cat-food","categoryName":"Food","confidence":0.93}`,
			want:  Prediction{CategoryID: "cat-food", CategoryName: "Food", Confidence: 0.93},
		},
		{
			name: "fenced json",
			reply: "```json\n" +
				`{"categoryId":"cat-travel","confidence":0.5}` + "\n```",
			want: Prediction{CategoryID: "cat-travel", CategoryName: "Travel", Confidence: 0.5},
		},
		{
			name:  "missing confidence defaults",
			reply: `{"categoryId":"cat-food"}`,
			want:  Prediction{CategoryID: "cat-food", CategoryName: "Food", Confidence: 0.8},
		},
		{
			name:  "unknown category falls back",
			reply: `{"categoryId":"cat-made-up","confidence":0.99}`,
			want:  Uncategorized,
		},
		{
			name:  "unparseable falls back",
			reply: "Sorry, I cannot help with that.",
			want:  Uncategorized,
		},
		{
			name:  "empty falls back",
			reply: "",
			want:  Uncategorized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := parsePrediction(tc.reply, testCategories); got != tc.want {
				t.Fatalf("parsePrediction = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestPromptPredictor(t *testing.T) {
	stub := &stubCompleter{reply: `{"categoryId":"cat-food","confidence":0.9}`}
	p := NewPromptPredictor(stub)

	got, err := p.Predict(context.Background(), "lunch at the deli", testCategories)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got.CategoryName != "Food" {
		t.Fatalf("prediction = %+v", got)
	}
	if !strings.Contains(stub.lastPrompt, "cat-food") || !strings.Contains(stub.lastPrompt, "lunch at the deli") {
		t.Fatalf("prompt missing catalog or description:\n%s", stub.lastPrompt)
	}

	// Transport failures surface; parse failures do not.
	stub.err = errors.New("model unavailable")
	if _, err := p.Predict(context.Background(), "lunch", testCategories); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestPromptAssistant(t *testing.T) {
	stub := &stubCompleter{reply: "Spend less on travel."}
	a := NewPromptAssistant(stub)

	expenses := []ledger.Expense{{Title: "Flight", Amount: 420.50, CategoryID: "cat-travel"}}
	answer, err := a.Answer(context.Background(), "where does my money go?", expenses)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer != "Spend less on travel." {
		t.Fatalf("answer = %q", answer)
	}
	if !strings.Contains(stub.lastPrompt, "Flight") || !strings.Contains(stub.lastPrompt, "where does my money go?") {
		t.Fatalf("prompt missing expenses or question:\n%s", stub.lastPrompt)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct{ in, want string }{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := stripFences(tc.in); got != tc.want {
			t.Fatalf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
