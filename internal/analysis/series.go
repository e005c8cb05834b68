package analysis

import "github.com/JonnyWalker81/heldairy/backend/internal/models"

// Point is one numeric answer on a given entry date
type Point struct {
	Date  string
	Value float64
}

// Series is a metric's values in the order of the entries it came from
type Series []Point

// ExtractSeries collects the numeric answers to questionID, keeping the
// order of entries. Entries without a numeric answer are skipped.
func ExtractSeries(entries []models.DailyEntry, questionID string) Series {
	var s Series
	for i := range entries {
		if v, ok := entries[i].NumericAnswer(questionID); ok {
			s = append(s, Point{Date: entries[i].EntryDate, Value: v})
		}
	}
	return s
}

// Values returns just the numbers of the series
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}
