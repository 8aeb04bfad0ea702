// Package dispatch renders per-slice commands and runs them as bounded
// parallel subprocesses, each fed a self-contained pcap stream on its
// standard input.
package dispatch

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/slicecap/slicecap/pcap"
)

var ErrUnknownPlaceholder = errors.New("unknown placeholder")

var placeholderRE = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Template is a user-supplied command template whose {OFFSET}, {SIZE},
// and {SLICE_ID} placeholders are substituted per slice.
type Template struct {
	words []string
}

// ParseTemplate validates every placeholder in words against the closed
// set of known names so that a bad template fails before any subprocess
// is spawned.
func ParseTemplate(words []string) (*Template, error) {
	if len(words) == 0 {
		return nil, errors.New("empty command template")
	}
	for _, w := range words {
		for _, m := range placeholderRE.FindAllStringSubmatch(w, -1) {
			switch m[1] {
			case "OFFSET", "SIZE", "SLICE_ID":
			default:
				return nil, fmt.Errorf("%q: %w", m[0], ErrUnknownPlaceholder)
			}
		}
	}
	return &Template{words: words}, nil
}

// Render substitutes the part's offset, size, and id into the template
// and joins the words into the command to run.
func (t *Template) Render(p pcap.Part) string {
	r := strings.NewReplacer(
		"{OFFSET}", strconv.FormatInt(p.Offset, 10),
		"{SIZE}", strconv.FormatInt(p.Length, 10),
		"{SLICE_ID}", strconv.Itoa(p.ID),
	)
	words := make([]string, len(t.words))
	for i, w := range t.words {
		words[i] = r.Replace(w)
	}
	return strings.Join(words, " ")
}
