package topup

import (
	"crypto/rand"
	"regexp"
	"strings"
)

const (
	codeAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength     = 6
	minFallbackRun = 6
	maxCodeBody    = 10
)

// GenerateCode returns prefix-XXXXXX drawn from an alphabet without 0/O/1/I.
// len(codeAlphabet) divides 256, so masking keeps the draw uniform.
func GenerateCode(prefix string) (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return strings.ToUpper(prefix) + "-" + string(buf), nil
}

// Extractor finds matching codes inside free-text transfer descriptions.
type Extractor struct {
	prefix string
	re     *regexp.Regexp
	runs   *regexp.Regexp
}

// NewExtractor builds an extractor for codes starting with prefix.
func NewExtractor(prefix string) *Extractor {
	prefix = strings.ToUpper(prefix)
	return &Extractor{
		prefix: prefix,
		re:     regexp.MustCompile(`(?i)` + regexp.QuoteMeta(prefix) + `[\s_\-.:/]*([a-z0-9]{6,10})(?:[^a-z0-9]|$)`),
		runs:   regexp.MustCompile(`[A-Za-z0-9]+`),
	}
}

// Canonical renders a prefixed code as PREFIX-BODY in upper case. Values
// without a recognizable prefix are only upper-cased and trimmed.
func (e *Extractor) Canonical(code string) string {
	code = strings.TrimSpace(code)
	if m := e.re.FindStringSubmatch(code); m != nil {
		return e.prefix + "-" + strings.ToUpper(m[1])
	}
	return strings.ToUpper(code)
}

// Candidates lists codes found in description in priority order: every
// prefixed code in reading order, or failing that the longest alphanumeric
// run of at least six characters. A run short enough to be a code body is
// tried with the prefix attached first, for payers who drop the prefix.
func (e *Extractor) Candidates(description string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range e.re.FindAllStringSubmatch(description, -1) {
		code := e.prefix + "-" + strings.ToUpper(m[1])
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	if len(out) > 0 {
		return out
	}

	longest := ""
	for _, run := range e.runs.FindAllString(description, -1) {
		if len(run) > len(longest) {
			longest = run
		}
	}
	if len(longest) < minFallbackRun {
		return nil
	}
	longest = strings.ToUpper(longest)
	if len(longest) <= maxCodeBody {
		return []string{e.prefix + "-" + longest, longest}
	}
	return []string{longest}
}

// Extract returns the highest-priority candidate.
func (e *Extractor) Extract(description string) (string, bool) {
	c := e.Candidates(description)
	if len(c) == 0 {
		return "", false
	}
	return c[0], true
}
