package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

// RedactOptions lists extra headers to mask in access logs, in addition to
// Authorization, Cookie and Set-Cookie.
type RedactOptions struct {
	MaskHeaders []string
}

var (
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits only, so hex runs in record ids are left alone.
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// Redactor scrubs contact details from values headed to the logs. Record ids
// (titles, loans, requests) are kept because they are needed to trace a
// circulation problem; patron contact data is not.
type Redactor struct {
	masked map[string]struct{}
}

// NewRedactor builds a Redactor from opts.
func NewRedactor(opts RedactOptions) *Redactor {
	r := &Redactor{masked: map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.masked[h] = struct{}{}
		}
	}
	return r
}

// String replaces e-mail addresses and phone numbers in s.
func (r *Redactor) String(s string) string {
	if s == "" {
		return s
	}
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// Headers returns a flattened copy of h with masked headers replaced and
// the rest scrubbed.
func (r *Redactor) Headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.masked[strings.ToLower(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = r.String(strings.Join(vv, ", "))
	}
	return out
}
