package convert

import (
	"strings"
	"testing"
)

func TestBuildCodegenPrompt(t *testing.T) {
	html := "<html><body><h1>Deck</h1></body></html>"
	prompt := BuildCodegenPrompt(html)

	for _, want := range []string{
		"<HTML>\n" + html + "\n</HTML>",
		"python builder.py --html input.html --out output.pptx",
		"1 px = 9525 EMU",
		"MSO_CONNECTOR.STRAIGHT",
		"shape.fill.solid()",
		"1920px x 1080px",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("codegen prompt missing %q", want)
		}
	}
}

func TestBuildFixPrompt(t *testing.T) {
	prompt := BuildFixPrompt("bad_code()", "AttributeError: 'NoneType' object has no attribute 'fore_color'")

	if !strings.Contains(prompt, "--- FAULTY CODE ---") {
		t.Error("fix prompt missing faulty code section")
	}
	if !strings.Contains(prompt, "bad_code()") {
		t.Error("fix prompt missing the code")
	}
	if !strings.Contains(prompt, "--- ERROR MESSAGE ---") {
		t.Error("fix prompt missing error section")
	}
	if !strings.Contains(prompt, "AttributeError") {
		t.Error("fix prompt missing the diagnostic")
	}
	if !strings.Contains(prompt, "--- CORRECTED PYTHON SCRIPT ---") {
		t.Error("fix prompt missing the answer cue")
	}
}

func TestDocumentTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"simple", "<html><head><title>Q3 Review</title></head></html>", "Q3 Review"},
		{"whitespace", "<title>\n  Spaced Out  \n</title>", "Spaced Out"},
		{"missing", "<html><body><p>no title</p></body></html>", ""},
		{"empty document", "", ""},
		{"malformed", "<title>Unclosed", "Unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DocumentTitle(tt.html); got != tt.want {
				t.Errorf("DocumentTitle = %q, want %q", got, tt.want)
			}
		})
	}
}
