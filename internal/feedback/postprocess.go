// Package feedback post-processes raw grading-model output: it strips the
// model's hidden scratch-work, recomputes the total score from the visible
// per-section scores, and parses the text into flat records for export.
//
// Recomputing the total is the core correctness guarantee of the whole
// system: the header score is always derived from the section scores in the
// same text, never trusted from the model.
package feedback

import (
	"fmt"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ExpectedSections is how many per-section scores a well-formed feedback
// text carries. Fewer is tolerated; the recalculation proceeds with
// whatever was found.
const ExpectedSections = 10

// Two delimiter conventions for the model's internal arithmetic block have
// been in circulation; both must be stripped.
var scratchRe = regexp.MustCompile(`(?s)<<<MATH:.*?>>>|\[\[CALC:.*?\]\]`)

// sectionScoreRe matches "N. SECTION NAME: S/10". Names may contain
// letters, spaces and ampersands; the score may be wrapped in emphasis
// markers.
var sectionScoreRe = regexp.MustCompile(`(?i)(\d+)\.\s+([A-Za-z][A-Za-z\s&]*?):\s*\**([0-9]+(?:\.[0-9]+)?)\**\s*/10`)

// headerRe matches the top score header with any (or no) emoji between the
// hash and "SCORE:".
var headerRe = regexp.MustCompile(`#[^\n#]*?SCORE:\s*[0-9]+(?:\.[0-9]+)?/100`)

// looseHeaderScoreRe is the fallback used when reading (not rewriting) the
// score out of text without a markdown header.
var looseHeaderScoreRe = regexp.MustCompile(`SCORE:\s*([0-9]+(?:\.[0-9]+)?)/100`)

// Clean removes every scratch-work block. Text without such blocks passes
// through unchanged apart from outer whitespace.
func Clean(text string) string {
	return strings.TrimSpace(scratchRe.ReplaceAllString(text, ""))
}

// RecalculateTotal sums the section scores found in text and rewrites the
// score header to match. With no header present, a fresh one is prepended;
// with no section scores at all, the text is returned untouched. The
// operation is idempotent.
func RecalculateTotal(text string) string {
	matches := sectionScoreRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return text
	}
	if len(matches) != ExpectedSections {
		log.Printf("feedback: expected %d section scores, found %d; recalculating anyway", ExpectedSections, len(matches))
	}
	var total float64
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			continue
		}
		total += v
	}
	header := fmt.Sprintf("# 📝 SCORE: %s/100", FormatScore(total))
	if loc := headerRe.FindStringIndex(text); loc != nil {
		return text[:loc[0]] + header + text[loc[1]:]
	}
	return header + "\n\n" + text
}

// Postprocess applies Clean then RecalculateTotal, the fixed order every
// raw model response goes through before display, storage or export.
func Postprocess(raw string) string {
	return RecalculateTotal(Clean(raw))
}

// ParseScore reads the overall score out of cleaned feedback text, or
// "N/A" when no score header can be found (error texts, unparsable output).
func ParseScore(text string) string {
	if m := headerRe.FindString(text); m != "" {
		if sub := looseHeaderScoreRe.FindStringSubmatch(m); sub != nil {
			return sub[1]
		}
	}
	if sub := looseHeaderScoreRe.FindStringSubmatch(text); sub != nil {
		return sub[1]
	}
	return "N/A"
}

// FormatScore renders a total as an integer when whole, otherwise to one
// decimal place.
func FormatScore(total float64) string {
	rounded := math.Round(total*10) / 10
	if rounded == math.Trunc(rounded) {
		return strconv.FormatInt(int64(rounded), 10)
	}
	return strconv.FormatFloat(rounded, 'f', 1, 64)
}
