package analysis

import (
	"sort"
	"time"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

// Window is the set of entries dated within [Start, End], ascending by date.
// Entries sharing a date are all kept; uniqueness per date is enforced by storage.
type Window struct {
	Days    int
	Start   time.Time
	End     time.Time
	Entries []models.DailyEntry
}

type datedEntry struct {
	date  time.Time
	entry models.DailyEntry
}

// indexEntries parses entry dates, dropping entries whose date does not parse
func indexEntries(entries []models.DailyEntry) []datedEntry {
	out := make([]datedEntry, 0, len(entries))
	for _, e := range entries {
		d, err := models.ParseDate(e.EntryDate)
		if err != nil {
			continue
		}
		out = append(out, datedEntry{date: d, entry: e})
	}
	return out
}

// TrailingWindow returns the entries dated within the days-long range ending
// at end, sorted ascending. It returns nil when no entry falls in the range.
func TrailingWindow(entries []models.DailyEntry, end time.Time, days int) *Window {
	if days <= 0 {
		return nil
	}
	endDate := models.DateOf(end)
	startDate := endDate.AddDate(0, 0, -(days - 1))

	var inRange []datedEntry
	for _, de := range indexEntries(entries) {
		if de.date.Before(startDate) || de.date.After(endDate) {
			continue
		}
		inRange = append(inRange, de)
	}
	if len(inRange) == 0 {
		return nil
	}

	sort.SliceStable(inRange, func(i, j int) bool {
		return inRange[i].date.Before(inRange[j].date)
	})

	w := &Window{
		Days:    days,
		Start:   startDate,
		End:     endDate,
		Entries: make([]models.DailyEntry, len(inRange)),
	}
	for i, de := range inRange {
		w.Entries[i] = de.entry
	}
	return w
}

// TrailingWindows returns the 7 and 30 day windows ending at end
func TrailingWindows(entries []models.DailyEntry, end time.Time) (short, long *Window) {
	return TrailingWindow(entries, end, ShortWindowDays), TrailingWindow(entries, end, LongWindowDays)
}

// Len returns the number of entries in the window; a nil window has none
func (w *Window) Len() int {
	if w == nil {
		return 0
	}
	return len(w.Entries)
}

// MostRecent returns up to n entries ordered newest first
func MostRecent(entries []models.DailyEntry, n int) []models.DailyEntry {
	sorted := make([]models.DailyEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EntryDate > sorted[j].EntryDate
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
