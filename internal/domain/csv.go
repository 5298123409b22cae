package domain

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// csvHeader fixes the export column order. Downstream spreadsheets key on
// these names, so the order is part of the contract.
var csvHeader = []string{
	"ID", "Type", "Title", "Status", "Priority",
	"Location", "Reported By", "Reported At", "Resolved At", "Upvotes",
}

// ReportsCSV flattens the report collection into a comma-separated table.
// Timestamps are RFC 3339; an unresolved report exports "N/A" in the
// Resolved At column.
func ReportsCSV(reports []Report) (string, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range reports {
		resolvedAt := "N/A"
		if r.ResolvedAt != nil {
			resolvedAt = r.ResolvedAt.Format(time.RFC3339)
		}
		row := []string{
			r.ID,
			string(r.Type),
			r.Title,
			string(r.Status),
			string(r.Priority),
			r.Location.Address,
			r.ReportedBy,
			r.ReportedAt.Format(time.RFC3339),
			resolvedAt,
			strconv.Itoa(r.Upvotes),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write csv row for report %s: %w", r.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}
