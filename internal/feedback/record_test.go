package feedback

import (
	"strings"
	"testing"
)

const sampleFeedback = `# 📝 SCORE: 87.5/100
STUDENT: report1.docx

**📊 OVERALL SUMMARY & VISUAL ANALYSIS:**
* A well structured report with clear data presentation.
* Graphs are readable but missing axis units.

**📝 DETAILED RUBRIC BREAKDOWN:**

**1. FORMATTING: 9.5/10**
* **✅ Strengths:** Third-person passive voice throughout.
* **⚠️ Improvements:** Two subscript errors in chemical formulas.

**2. INTRODUCTION: 8.0/10**
* **✅ Strengths:** Clear objective.
* **⚠️ Improvements:** Balanced equation missing.

**10. REFERENCES: 9.0/10**
* **✅ Strengths:** Four credible sources.
* **⚠️ Improvements:** None.

**💡 TOP 3 ACTIONABLE STEPS FOR NEXT TIME:**
1. Fix subscripts.
2. Add the balanced equation.
3. Label graph axes.
`

func TestParseRecordSummary(t *testing.T) {
	rec := ParseRecord(sampleFeedback)
	if !strings.Contains(rec.Summary, "well structured report") {
		t.Fatalf("summary not captured: %q", rec.Summary)
	}
	if strings.Contains(rec.Summary, "\n") {
		t.Fatalf("summary newlines must collapse to spaces: %q", rec.Summary)
	}
	if strings.Contains(rec.Summary, "FORMATTING") {
		t.Fatalf("summary leaked into sections: %q", rec.Summary)
	}
}

func TestParseRecordSummaryKeepsDecimals(t *testing.T) {
	text := "OVERALL SUMMARY:\nThe temperature rose by 2.5 degrees across all trials.\n\nDETAILED RUBRIC BREAKDOWN:\n\n1. FORMATTING: 9/10\nFine.\n"
	rec := ParseRecord(text)
	if !strings.Contains(rec.Summary, "rose by 2.5 degrees") {
		t.Fatalf("decimal in summary sentence must not end it: %q", rec.Summary)
	}
	if strings.Contains(rec.Summary, "FORMATTING") {
		t.Fatalf("summary leaked into sections: %q", rec.Summary)
	}
}

func TestParseRecordSections(t *testing.T) {
	rec := ParseRecord(sampleFeedback)
	if len(rec.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(rec.Sections))
	}

	fm, ok := rec.Sections[SecFormatting]
	if !ok {
		t.Fatal("formatting section missing")
	}
	if fm.Name != "Formatting" {
		t.Errorf("name not title-cased: %q", fm.Name)
	}
	if fm.Score != "9.5" {
		t.Errorf("score: %q", fm.Score)
	}
	if !strings.Contains(fm.Body, "Third-person passive voice") {
		t.Errorf("body: %q", fm.Body)
	}
	if strings.Contains(fm.Body, "*") || strings.Contains(fm.Body, "#") {
		t.Errorf("markup not stripped from body: %q", fm.Body)
	}
	if strings.Contains(fm.Body, "INTRODUCTION") {
		t.Errorf("body ran into the next section: %q", fm.Body)
	}

	refs := rec.Sections[SecReferences]
	if strings.Contains(refs.Body, "ACTIONABLE") || strings.Contains(refs.Body, "Fix subscripts") {
		t.Errorf("last body must stop at the top-actions marker: %q", refs.Body)
	}
}

func TestParseRecordMultiWordNames(t *testing.T) {
	text := "5. PROCEDURES & MATERIALS: 8.5/10\nGood safety notes.\n"
	rec := ParseRecord(text)
	sec, ok := rec.Sections[SecProcedures]
	if !ok {
		t.Fatalf("section 5 missing: %+v", rec.Sections)
	}
	if sec.Name != "Procedures & Materials" {
		t.Errorf("name: %q", sec.Name)
	}
}

func TestParseRecordMissingEverything(t *testing.T) {
	rec := ParseRecord("⚠️ Error: upstream failure")
	if rec.Summary != summaryMissing {
		t.Errorf("summary: %q", rec.Summary)
	}
	if len(rec.Sections) != 0 || len(rec.Extra) != 0 {
		t.Errorf("expected no sections, got %+v / %+v", rec.Sections, rec.Extra)
	}
}

func TestParseRecordExtraSection(t *testing.T) {
	text := "11. BONUS CRITERION: 5/10\nUnexpected extra section.\n"
	rec := ParseRecord(text)
	if len(rec.Sections) != 0 {
		t.Fatalf("11 is outside the known range: %+v", rec.Sections)
	}
	if len(rec.Extra) != 1 || rec.Extra[0].Name != "Bonus Criterion" {
		t.Fatalf("extra escape hatch not used: %+v", rec.Extra)
	}
}
