package testbackend

import (
	"testing"

	"github.com/vovakirdan/wirecode/internal/proto"
)

func TestPatternSuggest(t *testing.T) {
	tests := []struct {
		name string
		req  proto.AutocompleteRequest
		want string
	}{
		{name: "python import", req: proto.AutocompleteRequest{Code: "import numpy", CursorPosition: 12, Language: "python"}, want: " as np"},
		{name: "python def", req: proto.AutocompleteRequest{Code: "class A:\n    def run(", CursorPosition: 21, Language: "python"}, want: "self):"},
		{name: "javascript log", req: proto.AutocompleteRequest{Code: "console.log(", CursorPosition: 12, Language: "javascript"}, want: ")"},
		{name: "blank line", req: proto.AutocompleteRequest{Code: "x = 1\n   ", CursorPosition: 9, Language: "python"}, want: ""},
		{name: "no match", req: proto.AutocompleteRequest{Code: "x = 1", CursorPosition: 5, Language: "python"}, want: ""},
		{name: "cursor before match", req: proto.AutocompleteRequest{Code: "print(x)", CursorPosition: 3, Language: "python"}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PatternSuggest(tt.req).Suggestion; got != tt.want {
				t.Fatalf("suggestion = %q, want %q", got, tt.want)
			}
		})
	}
}
