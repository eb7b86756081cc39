package matchsim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/okian/arena/internal/domain/model"
)

const directoryPermission = 0o750

// ExportRecord is the per-match entry of an export file, the input format of
// the offline recap renderer.
type ExportRecord struct {
	ID         string            `json:"id"`
	Mode       string            `json:"mode"`
	Outcome    string            `json:"outcome"`
	Duration   int64             `json:"duration"`
	TotalKills int               `json:"totalKills"`
	MVPName    string            `json:"mvpName,omitempty"`
	MVPTokens  int64             `json:"mvpTokens,omitempty"`
	Highlights []model.Highlight `json:"highlights"`
	Timeline   *model.Timeline   `json:"timeline,omitempty"`
}

// NewExportRecord summarizes tl. The full timeline is embedded only when
// withTimeline is set.
func NewExportRecord(tl *model.Timeline, withTimeline bool) ExportRecord {
	rec := ExportRecord{
		ID:         tl.ID,
		Mode:       tl.Mode,
		Outcome:    tl.Outcome,
		Duration:   tl.Duration,
		TotalKills: tl.Summary.TotalKills,
		Highlights: tl.Highlights,
	}
	if rec.Highlights == nil {
		rec.Highlights = []model.Highlight{}
	}
	if mvp := tl.Summary.MVP; mvp != nil {
		rec.MVPName = mvp.Name
		rec.MVPTokens = mvp.Tokens
	}
	if withTimeline {
		rec.Timeline = tl
	}
	return rec
}

// Export writes the timelines to w as an indented JSON array.
func Export(w io.Writer, timelines []*model.Timeline, withTimeline bool) error {
	records := make([]ExportRecord, 0, len(timelines))
	for _, tl := range timelines {
		records = append(records, NewExportRecord(tl, withTimeline))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("matchsim.export: %w", err)
	}
	return nil
}

// ExportFile writes the export to path, creating parent directories.
func ExportFile(path string, timelines []*model.Timeline, withTimeline bool) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("matchsim.export: create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("matchsim.export: create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("matchsim.export: close file: %w", cerr)
		}
	}()
	return Export(f, timelines, withTimeline)
}
