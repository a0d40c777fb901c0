package convert

import "testing"

func TestExtractCodeBlock(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{
			name:  "tagged fence",
			text:  "Here you go:\n```python\nprint('hi')\n```\nDone.",
			want:  "print('hi')",
			found: true,
		},
		{
			name:  "untagged fence",
			text:  "```\nimport sys\n```",
			want:  "import sys",
			found: true,
		},
		{
			name:  "prefers tagged over untagged",
			text:  "```\nnot this\n```\n```python\nthis one\n```",
			want:  "this one",
			found: true,
		},
		{
			name:  "no fence at all",
			text:  "Sorry, I cannot write that code for you.",
			found: false,
		},
		{
			name:  "unterminated fence",
			text:  "```python\nprint('hi')",
			found: false,
		},
		{
			name:  "empty input",
			text:  "",
			found: false,
		},
		{
			name:  "crlf after tag",
			text:  "```python\r\nx = 1\r\n```",
			want:  "x = 1",
			found: true,
		},
		{
			name:  "multiple blocks takes first",
			text:  "```python\nfirst\n```\n```python\nsecond\n```",
			want:  "first",
			found: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ExtractCodeBlock(tt.text, "python")
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if found && got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if !found && got != "" {
				t.Errorf("got %q, want empty string when not found", got)
			}
		})
	}
}
