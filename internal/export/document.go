// Package export turns audit records into printable tabular reports.
//
// Build is pure: the same records, variant and header produce the same
// Document, and the renderers produce byte-identical output for it.
package export

import (
	"audit-service/internal/models"
	"fmt"
	"time"
)

type Variant string

const (
	// VariantSupervisor is the cross-region summary printed from the review dashboard.
	VariantSupervisor Variant = "supervisor"
	// VariantOfficer is an officer's own log with a personal header block.
	VariantOfficer Variant = "officer"
)

const DefaultRowsPerPage = 25

// Header carries the metadata printed above the table.
type Header struct {
	Title       string
	Inspector   string
	CommandUnit string
	GeneratedAt time.Time
}

type Column struct {
	Title string
	// Width is a share of the printable width; a document's widths sum to 1.
	Width float64
}

type Document struct {
	Variant     Variant
	Title       string
	HeaderLines []string
	Columns     []Column
	Rows        [][]string
	GeneratedAt time.Time
}

var (
	supervisorColumns = []Column{
		{Title: "Date", Width: 0.14},
		{Title: "State", Width: 0.16},
		{Title: "Utility Name", Width: 0.30},
		{Title: "Condition", Width: 0.20},
		{Title: "Inspector", Width: 0.20},
	}
	officerColumns = []Column{
		{Title: "Date", Width: 0.12},
		{Title: "Utility Name", Width: 0.24},
		{Title: "Building/Zone", Width: 0.18},
		{Title: "Condition", Width: 0.18},
		{Title: "Action Required", Width: 0.28},
	}
)

// Build lays out records in the order given.
func Build(records []*models.AuditRecord, variant Variant, header Header) (Document, error) {
	doc := Document{
		Variant:     variant,
		Title:       header.Title,
		GeneratedAt: header.GeneratedAt.UTC(),
		Rows:        make([][]string, 0, len(records)),
	}

	switch variant {
	case VariantSupervisor:
		if doc.Title == "" {
			doc.Title = "QMP AUDIT REPORT"
		}
		doc.Columns = supervisorColumns
		for _, r := range records {
			doc.Rows = append(doc.Rows, []string{
				recordDate(r), r.State, r.UtilityName, models.ConditionLabel(r.ConditionKey), r.InspectorName,
			})
		}
	case VariantOfficer:
		if doc.Title == "" {
			doc.Title = "QMP INFRASTRUCTURE AUDIT REPORT"
		}
		doc.Columns = officerColumns
		doc.HeaderLines = []string{
			"Inspector: " + header.Inspector,
			"Command Unit: " + header.CommandUnit,
			"Generated On: " + doc.GeneratedAt.Format("2006-01-02 15:04 MST"),
			fmt.Sprintf("Total Logs: %d", len(records)),
		}
		for _, r := range records {
			doc.Rows = append(doc.Rows, []string{
				recordDate(r), r.UtilityName, r.BuildingZone, models.ConditionLabel(r.ConditionKey), r.ActionRequired,
			})
		}
	default:
		return Document{}, fmt.Errorf("unknown export variant %q", variant)
	}

	return doc, nil
}

// Pages splits rows into fixed-size pages. An empty document still has one (empty) page.
func (d Document) Pages(rowsPerPage int) [][][]string {
	if rowsPerPage <= 0 {
		rowsPerPage = DefaultRowsPerPage
	}
	if len(d.Rows) == 0 {
		return [][][]string{{}}
	}
	pages := make([][][]string, 0, (len(d.Rows)+rowsPerPage-1)/rowsPerPage)
	for start := 0; start < len(d.Rows); start += rowsPerPage {
		end := min(start+rowsPerPage, len(d.Rows))
		pages = append(pages, d.Rows[start:end])
	}
	return pages
}

func recordDate(r *models.AuditRecord) string {
	if r.ReportDate != "" {
		return r.ReportDate
	}
	if r.CreatedAt.IsZero() {
		return ""
	}
	return r.CreatedAt.UTC().Format("2006-01-02")
}
