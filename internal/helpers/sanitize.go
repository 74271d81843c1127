package helpers

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy

	richTextPolicyOnce sync.Once
	richTextPolicy     *bluemonday.Policy
)

// StrictHTMLPolicy returns a singleton policy that strips every HTML
// element and attribute, leaving plain text.
func StrictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// RichTextHTMLPolicy returns a policy that keeps basic formatting tags
// (paragraphs, emphasis, lists, code, links) and drops scripts, event
// handlers and unsafe URLs. Guide pages pass through it before markdown
// conversion.
func RichTextHTMLPolicy() *bluemonday.Policy {
	richTextPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowElements("figure", "figcaption")
		policy.AllowAttrs("class").OnElements("code", "pre", "figure")
		policy.AllowURLSchemes("http", "https")
		policy.RequireParseableURLs(true)
		richTextPolicy = policy
	})
	return richTextPolicy
}

// SanitizeHTMLStrict reduces s to trimmed plain text.
func SanitizeHTMLStrict(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(StrictHTMLPolicy().Sanitize(s))
}

// SanitizeHTMLRichText cleans s while preserving basic formatting.
func SanitizeHTMLRichText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(RichTextHTMLPolicy().Sanitize(s))
}
