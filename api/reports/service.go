package reports

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/activities"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/children"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/log"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/reporting"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/reporting/document"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/tracing"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Pdf is a rendered report ready to be downloaded.
type Pdf struct {
	FileName string
	Content  []byte
}

type Service interface {
	Report(ctx context.Context, childId string) (reporting.Report, error)
	RenderPdf(ctx context.Context, childId string) (Pdf, error)
}

type ReportService struct {
	Store interface {
		ListActivities(tx *gorm.DB, childId string, limit int) ([]store.Activity, error)
	} `inject:""`
	Guard    *children.Guard    `inject:""`
	Renderer *document.Renderer `inject:""`
	Config   *shared.AppConfig  `inject:""`
	Logger   *log.Logger        `inject:""`
	// Now is overridden by tests.
	Now func() time.Time
}

func (c *ReportService) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *ReportService) Report(ctx context.Context, childId string) (report reporting.Report, err error) {
	ctx, span := tracing.Start(ctx, "reports.generate", attribute.String("child.id", childId))
	defer func() { tracing.End(span, err) }()

	child, err := c.Guard.Load(ctx, childId, children.Read)
	if err != nil {
		return reporting.Report{}, errors.Wrap(err, "failed to generate report")
	}

	records, err := c.Store.ListActivities(nil, childId, c.Config.ActivityScanLimit)
	if err != nil {
		return reporting.Report{}, errors.Wrap(err, "failed to load activities")
	}
	span.SetAttributes(attribute.Int("activities.count", len(records)))

	return reporting.NewReport(children.ToTransport(child, ""), activities.ToTransports(records), c.now()), nil
}

func (c *ReportService) RenderPdf(ctx context.Context, childId string) (pdf Pdf, err error) {
	report, err := c.Report(ctx, childId)
	if err != nil {
		return Pdf{}, err
	}

	_, span := tracing.Start(ctx, "reports.render_pdf", attribute.String("child.id", childId))
	defer func() { tracing.End(span, err) }()

	buf := &bytes.Buffer{}
	placements, err := c.Renderer.Render(buf, report)
	if err != nil {
		return Pdf{}, errors.Wrap(err, "failed to render report")
	}
	c.Logger.Debug(ctx, "report rendered", "childId", childId, "bytes", buf.Len(), "sections", len(placements))

	return Pdf{
		FileName: FileName(report.Child.Name, report.GeneratedAt),
		Content:  buf.Bytes(),
	}, nil
}

// FileName names the download after the child and the generation day.
func FileName(childName string, generatedAt time.Time) string {
	slug := strings.Trim(nonAlphanumeric.ReplaceAllString(strings.ToLower(childName), "-"), "-")
	if slug == "" {
		slug = "child"
	}
	return fmt.Sprintf("%s-progress-report-%s.pdf", slug, generatedAt.UTC().Format(reporting.DateLayout))
}
