package report

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	headerColor = &props.Color{Red: 44, Green: 62, Blue: 80}
	accentColor = &props.Color{Red: 52, Green: 152, Blue: 219}
	grayColor   = &props.Color{Red: 127, Green: 140, Blue: 141}

	titleStyle = props.Text{Size: 22, Style: fontstyle.Bold, Align: align.Center, Color: headerColor}
	h2Style    = props.Text{Size: 14, Style: fontstyle.Bold, Color: headerColor, Top: 4}
	smallStyle = props.Text{Size: 8, Color: grayColor}
	valueStyle = props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Center, Color: accentColor}
	labelStyle = props.Text{Size: 9, Align: align.Center, Color: grayColor}
	rowStyle   = props.Text{Size: 9}
)

func (e *Exporter) writeHealthPDF(snap Snapshot) error {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(e.marginOrDefault(e.cfg.PDF.MarginLeft)).
		WithTopMargin(e.marginOrDefault(e.cfg.PDF.MarginTop)).
		WithRightMargin(e.marginOrDefault(e.cfg.PDF.MarginRight)).
		Build()

	m := maroto.New(cfg)

	company := e.cfg.DefaultCompanyName
	if company == "" {
		company = "tikapipe"
	}

	m.AddRow(14, text.NewCol(12, company+" — Pipeline Health Report", titleStyle))
	m.AddRow(5, line.NewCol(12))
	m.AddRow(6,
		text.NewCol(6, fmt.Sprintf("Generated: %s", snap.TakenAt.Format(time.RFC3339)), smallStyle),
		text.NewCol(6, fmt.Sprintf("Registry size: %d", len(snap.Fetchers)), smallStyle),
	)

	m.AddRow(8)
	m.AddRow(10, text.NewCol(12, "Worker Pool", h2Style))
	m.AddRow(16,
		metricCol("Pool Size", fmt.Sprintf("%d", snap.PoolSize)),
		metricCol("Idle", fmt.Sprintf("%d", snap.WorkerStateCounts["idle"])),
		metricCol("Busy", fmt.Sprintf("%d", snap.WorkerStateCounts["busy"])),
		metricCol("Restarting", fmt.Sprintf("%d", snap.WorkerStateCounts["restarting"])),
		metricCol("Dead", fmt.Sprintf("%d", snap.WorkerStateCounts["dead"])),
	)

	if len(snap.ReplyStatusCounts) > 0 {
		m.AddRow(8)
		m.AddRow(10, text.NewCol(12, "Cumulative Reply Status", h2Style))

		statuses := make([]string, 0, len(snap.ReplyStatusCounts))
		for s := range snap.ReplyStatusCounts {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)

		for _, s := range statuses {
			m.AddRow(6,
				text.NewCol(8, s, rowStyle),
				text.NewCol(4, fmt.Sprintf("%d", snap.ReplyStatusCounts[s]), rowStyle),
			)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("report: generate pdf: %w", err)
	}

	return os.WriteFile(e.pdfPath(snap), doc.GetBytes(), 0o644)
}

func (e *Exporter) marginOrDefault(v float64) float64 {
	if v <= 0 {
		return 15
	}
	return v
}

func metricCol(label, value string) col.Col {
	return col.New(12 / 5).Add(
		text.New(value, valueStyle),
		text.New(label, labelStyle),
	)
}
