// Package isi interprets the ISI Web of Science plain text export format.
package isi

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matsen/treeofscience/internal/record"
)

// Field tags used to build labels.
const (
	TagAuthor        = "AU"
	TagYear          = "PY"
	TagSource        = "J9"
	TagVolume        = "VL"
	TagBeginPage     = "BP"
	TagArticleNumber = "AR"
	TagDOI           = "DI"
	TagCitedRefs     = "CR"
)

const (
	// EntrySeparator terminates every record.
	EntrySeparator = "\nER\n\n"

	// labelSeparator joins label parts.
	labelSeparator = ", "

	// punctuation is the ASCII punctuation set removed from author initials.
	punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

var headLine = regexp.MustCompile(`^([A-Z0-9]{2})\s(.+)`)

// MissingFieldsError reports mandatory label fields absent from a record.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// Interpreter implements interpreter.Interpreter for ISI plain text.
type Interpreter struct{}

// New returns an ISI interpreter.
func New() *Interpreter {
	return &Interpreter{}
}

// SplitEntries splits text on the record terminator and drops the trailing
// segment, which holds the EF marker.
func (*Interpreter) SplitEntries(text string) []string {
	parts := strings.Split(text, EntrySeparator)
	return parts[:len(parts)-1]
}

// ParseEntry parses one entry. A tag line followed by another tag line, or
// ending the entry, holds a scalar; otherwise it opens a list that collects
// the following untagged lines.
func (*Interpreter) ParseEntry(text string) *record.Record {
	lines := strings.Split(text, "\n")
	rec := record.New()
	section := record.UnknownTag

	for n, line := range lines {
		next := ""
		if n+1 < len(lines) {
			next = lines[n+1]
		}

		if m := headLine.FindStringSubmatch(line); m != nil {
			section = m[1]
			if next == "" || headLine.MatchString(next) {
				rec.Set(section, record.Scalar(m[2]))
			} else {
				rec.Set(section, record.List(m[2]))
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		if !rec.Append(section, trimmed) {
			// Continuation of a scalar field; keep it rather than lose it.
			rec.Append(record.UnknownTag, trimmed)
		}
	}

	return rec
}

// EntryLabel builds the citation label of a record:
//
//	"{first} {last}, {PY}, {J9}, V{VL}, P{BP}|p{AR}, DOI {DI}"
//
// using the first author only. A *MissingFieldsError accompanies the label
// when mandatory fields are absent.
func (*Interpreter) EntryLabel(rec *record.Record) (string, error) {
	var missing []string
	for _, tag := range []string{TagAuthor, TagYear, TagSource, TagVolume} {
		if !rec.Has(tag) {
			missing = append(missing, tag)
		}
	}
	if !rec.Has(TagBeginPage) && !rec.Has(TagArticleNumber) {
		missing = append(missing, TagBeginPage+"|"+TagArticleNumber)
	}

	parts := make([]string, 0, 6)
	if rec.Has(TagAuthor) {
		names := strings.Split(rec.Text(TagAuthor), ", ")
		parts = append(parts, names[0]+" "+stripPunctuation(names[len(names)-1]))
	} else {
		parts = append(parts, "")
	}
	parts = append(parts,
		rec.Text(TagYear),
		rec.Text(TagSource),
		"V"+rec.Text(TagVolume),
	)
	if rec.Has(TagBeginPage) {
		parts = append(parts, "P"+rec.Text(TagBeginPage))
	} else if rec.Has(TagArticleNumber) {
		parts = append(parts, "p"+strings.ToUpper(rec.Text(TagArticleNumber)))
	}
	if rec.Has(TagDOI) {
		parts = append(parts, "DOI "+rec.Text(TagDOI))
	}

	label := strings.Join(parts, labelSeparator)
	if len(missing) > 0 {
		return label, &MissingFieldsError{Fields: missing}
	}
	return label, nil
}

// ReferencedLabels returns the cited references of a record.
func (*Interpreter) ReferencedLabels(rec *record.Record) []string {
	v, ok := rec.Get(TagCitedRefs)
	if !ok {
		return []string{}
	}
	return v.Strings()
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, s)
}
