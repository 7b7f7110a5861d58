package feedback

import (
	"regexp"
	"strconv"
	"strings"
)

// SectionID identifies one of the ten known rubric sections.
type SectionID int

const (
	SecFormatting SectionID = iota + 1
	SecIntroduction
	SecHypothesis
	SecVariables
	SecProcedures
	SecRawData
	SecDataAnalysis
	SecConclusion
	SecEvaluation
	SecReferences
)

// KnownSections lists the canonical section identifiers in rubric order.
var KnownSections = []SectionID{
	SecFormatting, SecIntroduction, SecHypothesis, SecVariables,
	SecProcedures, SecRawData, SecDataAnalysis, SecConclusion,
	SecEvaluation, SecReferences,
}

// SectionRecord is one parsed per-section entry: number, title-cased name,
// score as printed, and the body text flattened to a single line.
type SectionRecord struct {
	Number int
	Name   string
	Score  string
	Body   string
}

// Record is the flat field set extracted from one feedback text for
// tabular export. Sections holds the known ten keyed by number; Extra
// catches anything outside 1..10 if the model's output drifts.
type Record struct {
	Summary  string
	Sections map[SectionID]SectionRecord
	Extra    []SectionRecord
}

const summaryMissing = "Summary not found"

var (
	markupRe   = regexp.MustCompile(`[*#]`)
	newlinesRe = regexp.MustCompile(`[\r\n]+`)

	// Free text after the overall-summary header, up to the start of the
	// numbered breakdown. Only "1." or the DETAILED marker terminates it;
	// decimals inside summary sentences are part of the summary.
	summaryRe = regexp.MustCompile(`(?is)OVERALL SUMMARY[^\n]*?:\s*\n(.*?)(?:1\.|DETAILED)`)

	// One numbered section heading; bodies are sliced out between
	// consecutive heading matches.
	sectionHeadRe = regexp.MustCompile(`(\d+)\.\s+([A-Za-z][A-Za-z\s&]*?):\s*([0-9]+(?:\.[0-9]+)?)\s*/10`)

	// Marker that ends the last section's body (the top-actions list).
	topActionsRe = regexp.MustCompile(`💡|TOP 3`)
)

// ParseRecord extracts the summary and per-section records from cleaned
// feedback text. Missing pieces produce absent fields, never errors: an
// unparsable text yields an empty record that still exports as a row.
func ParseRecord(text string) Record {
	rec := Record{Sections: map[SectionID]SectionRecord{}}
	clean := markupRe.ReplaceAllString(text, "")

	if m := summaryRe.FindStringSubmatch(clean); m != nil {
		rec.Summary = flatten(m[1])
	} else {
		rec.Summary = summaryMissing
	}

	heads := sectionHeadRe.FindAllStringSubmatchIndex(clean, -1)
	for i, h := range heads {
		n, err := strconv.Atoi(clean[h[2]:h[3]])
		if err != nil {
			continue
		}
		bodyEnd := len(clean)
		if i+1 < len(heads) {
			bodyEnd = heads[i+1][0]
		}
		body := clean[h[1]:bodyEnd]
		if loc := topActionsRe.FindStringIndex(body); loc != nil {
			body = body[:loc[0]]
		}
		sr := SectionRecord{
			Number: n,
			Name:   titleCase(strings.TrimSpace(clean[h[4]:h[5]])),
			Score:  clean[h[6]:h[7]],
			Body:   flatten(body),
		}
		if n >= 1 && n <= ExpectedSections {
			rec.Sections[SectionID(n)] = sr
		} else {
			rec.Extra = append(rec.Extra, sr)
		}
	}
	return rec
}

func flatten(s string) string {
	return strings.TrimSpace(newlinesRe.ReplaceAllString(strings.TrimSpace(s), " "))
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if w == "&" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
