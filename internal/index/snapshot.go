package index

import (
	"encoding/json"
	"fmt"

	"github.com/energy-blueprint/leaderboard/internal/domain"
)

// snapshotDoc is the pre-aggregated leaderboard document: the flat row
// schema under a single "runs" key.
type snapshotDoc struct {
	Runs []snapshotRow `json:"runs"`
}

// snapshotRow is a Run plus the legacy fields older index builds wrote.
type snapshotRow struct {
	domain.Run

	// HTBadge predates the tri-state threading_enabled field: a non-empty
	// badge meant threading was explicitly off.
	HTBadge string `json:"ht_badge,omitempty"`
}

// DecodeSnapshot parses a pre-aggregated collection. Rows are lightly
// repaired (stable image slots, label fallback) but never dropped.
func DecodeSnapshot(data []byte) ([]domain.Run, error) {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	runs := make([]domain.Run, 0, len(doc.Runs))
	for _, row := range doc.Runs {
		r := row.Run
		if r.ThreadingEnabled == nil && row.HTBadge != "" {
			off := false
			r.ThreadingEnabled = &off
		}
		if r.CPULabel == "" {
			r.CPULabel = "unknown"
		}
		if r.UserDisplay == "" {
			r.UserDisplay = r.User
		}
		r.Images = fixedSlots(r.Images)
		runs = append(runs, r)
	}
	return runs, nil
}

// EncodeSnapshot renders the collection back into the document shape the
// index CLI publishes.
func EncodeSnapshot(runs []domain.Run) ([]byte, error) {
	rows := make([]snapshotRow, 0, len(runs))
	for _, r := range runs {
		r.Images = fixedSlots(r.Images)
		rows = append(rows, snapshotRow{Run: r})
	}
	return json.MarshalIndent(snapshotDoc{Runs: rows}, "", "  ")
}

func fixedSlots(images []string) []string {
	slots := make([]string, domain.ImageSlots)
	copy(slots, images)
	return slots
}
