package testbackend

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/vovakirdan/wirecode/internal/proto"
)

type pattern struct {
	re       *regexp.Regexp
	complete func(line string) string
}

func suffix(s string) func(string) string {
	return func(line string) string { return line + s }
}

var (
	pythonPatterns = []pattern{
		{regexp.MustCompile(`def\s+\w+\s*\($`), suffix("self):")},
		{regexp.MustCompile(`class\s+\w+$`), suffix(":")},
		{regexp.MustCompile(`(if|elif|while)\s+\w+$`), suffix(":")},
		{regexp.MustCompile(`for\s+\w+\s+in\s+\w+$`), suffix(":")},
		{regexp.MustCompile(`^(else|try|finally)$`), suffix(":")},
		{regexp.MustCompile(`^except$`), suffix(" Exception as e:")},
		{regexp.MustCompile(`import\s+numpy$`), suffix(" as np")},
		{regexp.MustCompile(`import\s+pandas$`), suffix(" as pd")},
		{regexp.MustCompile(`print\s*\($`), suffix(")")},
		{regexp.MustCompile(`^return$`), suffix(" ")},
	}
	scriptPatterns = []pattern{
		{regexp.MustCompile(`function\s+\w+\s*\($`), suffix(") {")},
		{regexp.MustCompile(`(const|let)\s+\w+\s*=$`), suffix(" ")},
		{regexp.MustCompile(`if\s*\($`), suffix(") {")},
		{regexp.MustCompile(`for\s*\($`), suffix("let i = 0; i < length; i++) {")},
		{regexp.MustCompile(`console\.log\s*\($`), suffix(")")},
	}
)

// PatternSuggest completes a few common statement openers on the cursor
// line. It is enough to try the ghost text without a model behind it.
func PatternSuggest(req proto.AutocompleteRequest) proto.AutocompleteResponse {
	before := req.Code
	if req.CursorPosition >= 0 && req.CursorPosition < utf8.RuneCountInString(before) {
		before = string([]rune(before)[:req.CursorPosition])
	}
	line := before
	if i := strings.LastIndexByte(before, '\n'); i >= 0 {
		line = before[i+1:]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return proto.AutocompleteResponse{}
	}

	patterns := scriptPatterns
	if strings.EqualFold(req.Language, "python") {
		patterns = pythonPatterns
	}
	for _, p := range patterns {
		if !p.re.MatchString(line) {
			continue
		}
		if done := p.complete(line); done != line {
			return proto.AutocompleteResponse{Suggestion: done[len(line):], Confidence: 0.9}
		}
	}
	return proto.AutocompleteResponse{}
}
