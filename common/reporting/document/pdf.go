package document

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/reporting"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/encoding/charmap"
)

const (
	SectionHeader     = "header"
	SectionChild      = "child"
	SectionSummary    = "summary"
	SectionChart      = "chart"
	SectionBreakdown  = "breakdown"
	SectionCognitive  = "cognitive"
	SectionRecent     = "recent"
	PlaceholderNoData = "No activities have been recorded yet."

	lineHeight        = 6.0
	margin            = 15.0
	minSectionSpace   = 60.0
	chartWidthPx      = 720
	chartHeightPx     = 300
	chartWidthMm      = 170.0
	chartHeightMm     = chartWidthMm * chartHeightPx / chartWidthPx
	displayDateLayout = "Jan 2, 2006"

	coreFontFamily    = "Helvetica"
	unicodeFontFamily = "Go"
)

// Placement tells on which page a section of the document starts.
type Placement struct {
	Section string
	Page    int
}

type Renderer struct {
	NoCompression bool
}

// PerformanceLabel is the qualitative band of an activity average.
func PerformanceLabel(avg float64) string {
	switch {
	case avg >= 80:
		return "Excellent"
	case avg >= 60:
		return "Good"
	case avg >= 40:
		return "Fair"
	default:
		return "Needs Improvement"
	}
}

// FormatDuration prints seconds as "Xm Ys".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

// Render writes report as a PDF document to w and returns where each section landed.
func (r *Renderer) Render(w io.Writer, report reporting.Report) ([]Placement, error) {
	doc := newDocument(!r.NoCompression, !fitsCoreFonts(report))
	stats := report.Statistics

	doc.place(SectionHeader)
	doc.header(report)

	doc.place(SectionChild)
	doc.child(report.Child)

	doc.place(SectionSummary)
	doc.summary(stats)

	if len(stats.ProgressOverTime) >= 2 {
		if err := doc.chart(stats.ProgressOverTime); err != nil {
			return nil, err
		}
	}

	doc.place(SectionBreakdown)
	doc.breakdown(stats)

	if stats.TotalActivities > 0 || doc.remaining() < minSectionSpace {
		doc.pdf.AddPage()
	}
	doc.place(SectionCognitive)
	doc.cognitive(report.CognitiveAssessment, stats.TotalActivities)

	if len(stats.RecentActivities) > 0 {
		doc.pdf.AddPage()
		doc.place(SectionRecent)
		doc.recent(stats.RecentActivities)
	}

	if err := doc.pdf.Output(w); err != nil {
		return nil, errors.Wrap(err, "failed to render pdf")
	}
	return doc.placements, nil
}

// fitsCoreFonts tells whether every text of report can be written with the cp1252 core fonts.
func fitsCoreFonts(report reporting.Report) bool {
	texts := []string{report.Child.Name, report.Child.Gender, report.Child.Diagnosis, report.Child.SpecialNeeds}
	for name := range report.Statistics.ByActivityType {
		texts = append(texts, name)
	}
	for _, activity := range report.Statistics.RecentActivities {
		texts = append(texts, activity.ActivityName, activity.ActivityType, activity.Difficulty)
	}
	texts = append(texts, report.CognitiveAssessment.Strengths...)
	texts = append(texts, report.CognitiveAssessment.ImprovementAreas...)

	for _, text := range texts {
		for _, r := range text {
			if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
				return false
			}
		}
	}
	return true
}

type document struct {
	pdf        *fpdf.Fpdf
	family     string
	tr         func(string) string
	placements []Placement
}

// newDocument writes with the core fonts, or embeds the Go fonts when the text needs more than cp1252.
func newDocument(compress, unicodeText bool) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AliasNbPages("")
	pdf.SetCreator("AutiSmart", true)

	doc := &document{pdf: pdf, family: coreFontFamily, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	if unicodeText {
		pdf.AddUTF8FontFromBytes(unicodeFontFamily, "", goregular.TTF)
		pdf.AddUTF8FontFromBytes(unicodeFontFamily, "B", gobold.TTF)
		pdf.AddUTF8FontFromBytes(unicodeFontFamily, "I", goitalic.TTF)
		doc.family = unicodeFontFamily
		doc.tr = func(text string) string { return text }
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-margin + 3)
		pdf.SetFont(doc.family, "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	return doc
}

func (d *document) place(section string) {
	d.placements = append(d.placements, Placement{Section: section, Page: d.pdf.PageNo()})
}

func (d *document) remaining() float64 {
	_, pageH := d.pdf.GetPageSize()
	_, _, _, bottom := d.pdf.GetMargins()
	return pageH - bottom - d.pdf.GetY()
}

func (d *document) title(text string) {
	d.pdf.Ln(4)
	d.pdf.SetFont(d.family, "B", 13)
	d.pdf.SetTextColor(41, 98, 160)
	d.pdf.CellFormat(0, 8, d.tr(text), "B", 1, "L", false, 0, "")
	d.pdf.Ln(2)
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *document) line(label, value string) {
	d.pdf.SetFont(d.family, "B", 10)
	d.pdf.CellFormat(45, lineHeight, d.tr(label+":"), "", 0, "L", false, 0, "")
	d.pdf.SetFont(d.family, "", 10)
	d.pdf.MultiCell(0, lineHeight, d.tr(value), "", "L", false)
}

func (d *document) bullets(items []string, empty string) {
	if len(items) == 0 {
		d.pdf.SetFont(d.family, "I", 10)
		d.pdf.MultiCell(0, lineHeight, d.tr(empty), "", "L", false)
		return
	}
	d.pdf.SetFont(d.family, "", 10)
	for _, item := range items {
		d.pdf.MultiCell(0, lineHeight, d.tr("- "+item), "", "L", false)
	}
}

func (d *document) header(report reporting.Report) {
	d.pdf.SetTitle("Progress report - "+report.Child.Name, true)
	d.pdf.SetFont(d.family, "B", 20)
	d.pdf.SetTextColor(41, 98, 160)
	d.pdf.CellFormat(0, 12, "AutiSmart Progress Report", "", 1, "C", false, 0, "")
	d.pdf.SetFont(d.family, "", 10)
	d.pdf.SetTextColor(100, 100, 100)
	d.pdf.CellFormat(0, lineHeight, "Generated on "+report.GeneratedAt.Format(displayDateLayout), "", 1, "C", false, 0, "")
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *document) child(child reporting.Child) {
	d.title("Child Information")
	d.line("Name", child.Name)
	d.line("Age", fmt.Sprintf("%d years", child.Age))
	d.line("Gender", capitalize(child.Gender))
	if child.DateOfBirth != "" {
		d.line("Date of birth", child.DateOfBirth)
	}
	if child.Diagnosis != "" {
		d.line("Diagnosis", child.Diagnosis)
	}
	if child.SpecialNeeds != "" {
		d.line("Special needs", child.SpecialNeeds)
	}
}

func (d *document) summary(stats reporting.Statistics) {
	d.title("Activity Summary")
	if stats.TotalActivities == 0 {
		d.bullets(nil, PlaceholderNoData)
		return
	}
	d.line("Total activities", fmt.Sprintf("%d", stats.TotalActivities))
	d.line("Games", fmt.Sprintf("%d", stats.TotalGames))
	d.line("Assessments", fmt.Sprintf("%d", stats.TotalAssessments))
	d.line("Therapy sessions", fmt.Sprintf("%d", stats.TotalTherapy))
	d.line("Average score", fmt.Sprintf("%.1f%%", stats.AverageScore))
}

func (d *document) chart(points []reporting.ProgressPoint) error {
	png, err := ProgressChart(points, chartWidthPx, chartHeightPx)
	if err != nil {
		return err
	}
	if d.remaining() < chartHeightMm+lineHeight {
		d.pdf.AddPage()
	}
	d.place(SectionChart)
	d.pdf.Ln(4)

	options := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	d.pdf.RegisterImageOptionsReader("progress", options, bytes.NewReader(png))
	d.pdf.ImageOptions("progress", margin, d.pdf.GetY(), chartWidthMm, chartHeightMm, true, options, 0, "")
	return d.pdf.Error()
}

func (d *document) breakdown(stats reporting.Statistics) {
	d.title("Performance by Activity")
	if len(stats.ByActivityType) == 0 {
		d.bullets(nil, PlaceholderNoData)
		return
	}

	names := make([]string, 0, len(stats.ByActivityType))
	for name := range stats.ByActivityType {
		names = append(names, name)
	}
	sort.Strings(names)

	d.pdf.SetFont(d.family, "B", 10)
	d.pdf.SetFillColor(230, 238, 247)
	d.pdf.CellFormat(80, 7, "Activity", "1", 0, "L", true, 0, "")
	d.pdf.CellFormat(25, 7, "Sessions", "1", 0, "C", true, 0, "")
	d.pdf.CellFormat(30, 7, "Average", "1", 0, "C", true, 0, "")
	d.pdf.CellFormat(0, 7, "Performance", "1", 1, "C", true, 0, "")

	d.pdf.SetFont(d.family, "", 10)
	for _, name := range names {
		s := stats.ByActivityType[name]
		d.pdf.CellFormat(80, 7, d.tr(name), "1", 0, "L", false, 0, "")
		d.pdf.CellFormat(25, 7, fmt.Sprintf("%d", s.Count), "1", 0, "C", false, 0, "")
		d.pdf.CellFormat(30, 7, fmt.Sprintf("%.1f%%", s.AverageScore), "1", 0, "C", false, 0, "")
		d.pdf.CellFormat(0, 7, PerformanceLabel(s.AverageScore), "1", 1, "C", false, 0, "")
	}
}

func (d *document) cognitive(assessment reporting.CognitiveAssessment, totalActivities int) {
	d.title("Cognitive Assessment")
	d.line("Overall level", assessment.OverallLevel)
	if totalActivities > 0 {
		d.line("Progress trend", assessment.ProgressTrend)
	}

	d.pdf.Ln(2)
	d.pdf.SetFont(d.family, "B", 11)
	d.pdf.CellFormat(0, 7, "Strengths", "", 1, "L", false, 0, "")
	d.bullets(assessment.Strengths, "No particular strengths identified yet.")

	d.pdf.Ln(2)
	d.pdf.SetFont(d.family, "B", 11)
	d.pdf.CellFormat(0, 7, "Areas for Improvement", "", 1, "L", false, 0, "")
	d.bullets(assessment.ImprovementAreas, "No improvement areas identified yet.")

	d.pdf.Ln(2)
	d.pdf.SetFont(d.family, "B", 11)
	d.pdf.CellFormat(0, 7, "Recommendations", "", 1, "L", false, 0, "")
	d.bullets(assessment.Recommendations, "No recommendations at this time.")
}

func (d *document) recent(activities []reporting.Activity) {
	d.title("Recent Activities")
	for i, activity := range activities {
		d.pdf.SetFont(d.family, "B", 10)
		d.pdf.MultiCell(0, lineHeight, d.tr(fmt.Sprintf("%d. %s", i+1, activity.ActivityName)), "", "L", false)
		d.pdf.SetFont(d.family, "", 9)

		details := []string{
			"Date: " + activity.CompletedAt.UTC().Format(displayDateLayout),
			"Type: " + capitalize(activity.ActivityType),
			"Score: " + formatScore(activity),
		}
		if activity.Duration != nil {
			details = append(details, "Duration: "+FormatDuration(*activity.Duration))
		}
		if activity.Difficulty != "" {
			details = append(details, "Difficulty: "+capitalize(activity.Difficulty))
		}
		d.pdf.MultiCell(0, 5, d.tr(strings.Join(details, "   ")), "", "L", false)
		d.pdf.Ln(2)
	}
}

func capitalize(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}

func formatScore(activity reporting.Activity) string {
	var parts []string
	if activity.Score != nil && activity.MaxScore != nil {
		parts = append(parts, fmt.Sprintf("%g/%g", *activity.Score, *activity.MaxScore))
	} else if activity.Score != nil {
		parts = append(parts, fmt.Sprintf("%g", *activity.Score))
	}
	if activity.Percentage != nil {
		parts = append(parts, fmt.Sprintf("(%.0f%%)", *activity.Percentage))
	}
	if len(parts) == 0 {
		return "n/a"
	}
	return strings.Join(parts, " ")
}
