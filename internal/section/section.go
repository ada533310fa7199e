// Package section splits raw agent output into named sections.
//
// A section starts with a "<<<name>>>" header. The header may carry a
// ":sep(N)" option, N being the decimal code of the field separator;
// without it lines are split on whitespace.
package section

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"codeberg.org/mutker/hellobakery/internal/errors"
)

const (
	ErrReadFailed    = errors.ErrorCode("section_read_failed")
	ErrInvalidHeader = errors.ErrorCode("section_invalid_header")
)

// Sections maps a section name to its lines. Repeated headers append to
// the same section.
type Sections map[string][][]string

// Parse reads agent output from r. Lines before the first header and
// blank lines are dropped.
func Parse(r io.Reader) (Sections, error) {
	errFactory := errors.New()
	sections := make(Sections)

	var (
		current string
		sep     rune
		inside  bool
	)

	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.HasPrefix(line, "<<<") && strings.HasSuffix(line, ">>>") {
			name, s, err := parseHeader(line)
			if err != nil {
				return nil, errFactory.WithData(ErrInvalidHeader, struct {
					Line   int
					Header string
					Error  string
				}{
					Line:   n,
					Header: line,
					Error:  err.Error(),
				})
			}
			current, sep, inside = name, s, true
			if _, ok := sections[current]; !ok {
				sections[current] = nil
			}
			continue
		}

		if !inside || strings.TrimSpace(line) == "" {
			continue
		}

		sections[current] = append(sections[current], split(line, sep))
	}

	if err := scanner.Err(); err != nil {
		return nil, errFactory.Wrap(ErrReadFailed, err)
	}

	return sections, nil
}

func parseHeader(line string) (string, rune, error) {
	header := strings.TrimSuffix(strings.TrimPrefix(line, "<<<"), ">>>")
	parts := strings.Split(header, ":")

	name := parts[0]
	if name == "" {
		return "", 0, errors.New().New(errors.ErrInvalidArgument).WithMessage("empty section name")
	}

	var sep rune
	for _, opt := range parts[1:] {
		if !strings.HasPrefix(opt, "sep(") || !strings.HasSuffix(opt, ")") {
			continue
		}
		code, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(opt, "sep("), ")"))
		if err != nil {
			return "", 0, err
		}
		sep = rune(code)
	}

	return name, sep, nil
}

func split(line string, sep rune) []string {
	if sep == 0 {
		return strings.Fields(line)
	}

	return strings.Split(line, string(sep))
}
