// Package depfile reads gcc-style make dependency files (".d" files).
package depfile

import (
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Rule is one "targets: prerequisites" entry of a depfile.
type Rule struct {
	Targets       []string
	Prerequisites []string
}

// Parse reads every rule in data.
//
// Backslash-newline joins lines, "\ " and "\#" escape a space or hash inside a
// path and "$$" stands for a literal dollar sign. Comments start with an
// unescaped '#'.
func Parse(data []byte) ([]Rule, error) {
	var rules []Rule
	for _, line := range logicalLines(string(data)) {
		words := split(line.text)
		if len(words) == 0 {
			continue
		}

		var rule Rule
		targets := true
		for _, w := range words {
			if !targets {
				rule.Prerequisites = append(rule.Prerequisites, w.text)
				continue
			}
			if w.colon {
				targets = false
				if w.text != "" {
					rule.Targets = append(rule.Targets, w.text)
				}
				continue
			}
			rule.Targets = append(rule.Targets, w.text)
		}

		if targets || len(rule.Targets) == 0 {
			return nil, zerr.With(domain.ErrDepfileParseFailed, "line", line.number)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Prerequisites returns the prerequisites of every rule in data, deduplicated
// in first-occurrence order.
func Prerequisites(data []byte) ([]string, error) {
	rules, err := Parse(data)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []string
	for _, r := range rules {
		for _, p := range r.Prerequisites {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out, nil
}

type logicalLine struct {
	// number is the 1-based physical line the logical line starts on.
	number int
	text   string
}

// logicalLines joins continuation lines.
func logicalLines(data string) []logicalLine {
	physical := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")
	lines := make([]logicalLine, 0, len(physical))

	start := -1
	var current strings.Builder
	for i, l := range physical {
		if start < 0 {
			start = i
		}
		if strings.HasSuffix(l, `\`) && !strings.HasSuffix(l, `\\`) {
			current.WriteString(strings.TrimSuffix(l, `\`))
			current.WriteByte(' ')
			continue
		}
		current.WriteString(l)
		lines = append(lines, logicalLine{number: start + 1, text: current.String()})
		current.Reset()
		start = -1
	}
	if start >= 0 {
		lines = append(lines, logicalLine{number: start + 1, text: current.String()})
	}
	return lines
}

type word struct {
	text string
	// colon is set for the word terminated by the rule separator.
	colon bool
}

func split(line string) []word {
	var (
		words []word
		cur   strings.Builder
	)
	flush := func(colon bool) {
		if cur.Len() > 0 || colon {
			words = append(words, word{text: cur.String(), colon: colon})
		}
		cur.Reset()
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line) && (line[i+1] == ' ' || line[i+1] == '#' || line[i+1] == '\\'):
			cur.WriteByte(line[i+1])
			i++
		case c == '$' && i+1 < len(line) && line[i+1] == '$':
			cur.WriteByte('$')
			i++
		case c == '#':
			flush(false)
			return words
		case c == ' ' || c == '\t':
			flush(false)
		case c == ':' && isSeparator(line, i):
			flush(true)
		default:
			cur.WriteByte(c)
		}
	}
	flush(false)
	return words
}

// isSeparator distinguishes the rule colon from a Windows drive letter ("C:\src").
func isSeparator(line string, i int) bool {
	if i+1 < len(line) && (line[i+1] == '\\' || line[i+1] == '/') && i >= 1 {
		prev := line[i-1]
		startOfWord := i == 1 || line[i-2] == ' ' || line[i-2] == '\t'
		if startOfWord && ((prev >= 'a' && prev <= 'z') || (prev >= 'A' && prev <= 'Z')) {
			return false
		}
	}
	return true
}
