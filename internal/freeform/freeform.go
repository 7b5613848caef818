// Package freeform pulls a manipulation score, pattern list and explanation
// out of loosely formatted model text. Parsing never fails; missing labels
// produce zero values and ScoreParsed=false.
package freeform

import (
	"regexp"
	"strconv"
	"strings"
)

type Result struct {
	Score       int      `json:"manipulationScore"`
	ScoreParsed bool     `json:"scoreParsed"`
	Patterns    []string `json:"patterns"`
	Explanation string   `json:"explanation"`
}

var (
	// The optional group skips a range hint such as "(0-100)" so its digits
	// are not read as the score. The score must sit on the label's line.
	scoreRe       = regexp.MustCompile(`(?i)manipulation score(?:[ \t]*\([^)\n]*\))?[^\d\n]*(\d+)`)
	patternsRe    = regexp.MustCompile(`(?i)patterns detected:`)
	explanationRe = regexp.MustCompile(`(?i)explanation:`)
	labelLineRe   = regexp.MustCompile(`^[^\n:]*[A-Za-z][^\n:]*:`)
)

func Parse(text string) Result {
	score, ok := parseScore(text)
	return Result{
		Score:       score,
		ScoreParsed: ok,
		Patterns:    patternsOf(text),
		Explanation: explanationOf(text),
	}
}

func parseScore(text string) (int, bool) {
	m := scoreRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func patternsOf(text string) []string {
	loc := patternsRe.FindStringIndex(text)
	if loc == nil {
		return []string{}
	}
	rest := text[loc[1]:]
	segment := rest
	for i := 0; i < len(rest); i++ {
		if rest[i] != '\n' {
			continue
		}
		next := rest[i+1:]
		if j := strings.IndexByte(next, '\n'); j >= 0 {
			next = next[:j]
		}
		if labelLineRe.MatchString(strings.TrimSpace(next)) {
			segment = rest[:i]
			break
		}
	}

	segment = strings.TrimSpace(segment)
	segment = strings.TrimPrefix(segment, "[")
	segment = strings.TrimSuffix(segment, "]")

	out := []string{}
	for _, part := range strings.FieldsFunc(segment, func(r rune) bool { return r == ',' || r == '\n' }) {
		p := strings.TrimSpace(part)
		p = strings.TrimSpace(strings.TrimLeft(p, "-*•"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func explanationOf(text string) string {
	loc := explanationRe.FindStringIndex(text)
	if loc != nil {
		if e := strings.TrimSpace(text[loc[1]:]); e != "" {
			return e
		}
	}
	return strings.TrimSpace(text)
}
