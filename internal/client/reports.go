package client

import (
	"audit-service/internal/models"
	"strings"
)

// ReportFilter narrows an officer's own reports. Level 0 means every level.
// Search matches utility name or building zone, case-insensitively.
type ReportFilter struct {
	Level  int
	Search string
}

func (f ReportFilter) Apply(records []*models.AuditRecord) []*models.AuditRecord {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]*models.AuditRecord, 0, len(records))
	for _, r := range records {
		if f.Level != 0 && r.ConditionKey != f.Level {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(r.UtilityName), term) &&
			!strings.Contains(strings.ToLower(r.BuildingZone), term) {
			continue
		}
		out = append(out, r)
	}
	return out
}
