package helpers

import (
	"strings"
	"testing"
)

func TestSanitizeHTMLStrict(t *testing.T) {
	in := `  <p>Stand <b>here</b></p><script>alert(1)</script>  `
	got := SanitizeHTMLStrict(in)
	if strings.Contains(got, "<") || strings.Contains(got, "alert") {
		t.Errorf("markup survived: %q", got)
	}
	if !strings.Contains(got, "Stand") {
		t.Errorf("text lost: %q", got)
	}
	if SanitizeHTMLStrict("   ") != "" {
		t.Error("whitespace input should produce empty output")
	}
}

func TestSanitizeHTMLRichText(t *testing.T) {
	in := `<p onclick="evil()">Use the <em>portal gun</em></p><script>evil()</script><a href="javascript:evil()">x</a>`
	got := SanitizeHTMLRichText(in)
	if !strings.Contains(got, "<em>portal gun</em>") {
		t.Errorf("formatting lost: %q", got)
	}
	if strings.Contains(got, "script") || strings.Contains(got, "onclick") || strings.Contains(got, "javascript:") {
		t.Errorf("unsafe markup survived: %q", got)
	}
}
