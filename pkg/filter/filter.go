package filter

import (
	"regexp"
	"strings"
)

/*
Rule pairs a leak detector with its stripper. Rules are evaluated in order;
the first matching rule rewrites the text and the pass restarts, so adding a
pattern never touches call sites.
*/
type Rule struct {
	Name   string
	Detect *regexp.Regexp
	Strip  func(text string, match []string) string
}

/*
instructionEcho catches the known leak shape: narrative scaffolding that
echoes the instruction or prompt, ends with a colon, and wraps the actual
answer in quotes. The preamble must contain a response/answer cue and no
quotes of its own, so ordinary quoted speech without a recognizable preamble
passes through untouched.
*/
var instructionEcho = Rule{
	Name: "instruction-echo",
	Detect: regexp.MustCompile(
		`(?s)^[^"]*\b(?:respond|responds|response|reply|replies|answer|answers|say|says|would say)\b[^"]*:\s*"(.+)"\s*$`,
	),
	Strip: func(text string, match []string) string {
		return strings.TrimSpace(match[1])
	},
}

// defaultRules is the ordered pattern list applied by New.
var defaultRules = []Rule{instructionEcho}

/*
Filter strips leaked meta-commentary from generated text before it reaches a
caller. It is best-effort: text with no recognized leak pattern passes
through unchanged, and filtering is idempotent by construction because rules
are re-applied until a fixed point.
*/
type Filter struct {
	rules []Rule
}

// New returns a filter with the default rule set plus any extras, evaluated
// after the defaults in the order given.
func New(extra ...Rule) *Filter {
	return &Filter{rules: append(append([]Rule{}, defaultRules...), extra...)}
}

// maxPasses bounds the fixed-point loop against pathological rule sets.
const maxPasses = 8

// Apply runs the rule chain to a fixed point and returns the cleaned text.
func (f *Filter) Apply(raw string) string {
	text := raw

	for pass := 0; pass < maxPasses; pass++ {
		stripped := f.applyOnce(text)
		if stripped == text {
			return text
		}
		text = stripped
	}

	return text
}

func (f *Filter) applyOnce(text string) string {
	for _, rule := range f.rules {
		if match := rule.Detect.FindStringSubmatch(text); match != nil {
			return rule.Strip(text, match)
		}
	}
	return text
}
