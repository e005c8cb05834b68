package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

// DetectAnomalies flags points of one metric's series that sit at least
// MildZScore population standard deviations from the series mean. Series with
// fewer than AnomalyMinPoints values or a deviation below AnomalyMinStdDev
// yield nothing. Results are ordered severe first, keeping series order on ties.
func DetectAnomalies(metric string, series Series) []models.AnomalyEvent {
	if len(series) < AnomalyMinPoints {
		return nil
	}
	values := series.Values()
	m := mean(values)
	sd := populationStdDev(values, m)
	if sd < AnomalyMinStdDev {
		return nil
	}

	expected := fmt.Sprintf("%.1f-%.1f", math.Max(m-sd, 0), m+sd)

	var events []models.AnomalyEvent
	for _, p := range series {
		severity, ok := severityFor(math.Abs(p.Value-m) / sd)
		if !ok {
			continue
		}
		events = append(events, models.AnomalyEvent{
			Date:          p.Date,
			Metric:        metric,
			Value:         p.Value,
			ExpectedRange: expected,
			Severity:      severity,
			Description:   anomalyDescription(metric, p.Value, m),
		})
	}
	sortBySeverity(events)
	return events
}

// DetectAllAnomalies runs DetectAnomalies per metric over the same entries and
// merges the results, severe first. Metrics are never compared with each other.
func DetectAllAnomalies(entries []models.DailyEntry, metrics []string) []models.AnomalyEvent {
	var all []models.AnomalyEvent
	for _, metric := range metrics {
		all = append(all, DetectAnomalies(metric, ExtractSeries(entries, metric))...)
	}
	sortBySeverity(all)
	return all
}

func severityFor(z float64) (models.Severity, bool) {
	switch {
	case z >= SevereZScore:
		return models.SeveritySevere, true
	case z >= ModerateZScore:
		return models.SeverityModerate, true
	case z >= MildZScore:
		return models.SeverityMild, true
	default:
		return "", false
	}
}

func sortBySeverity(events []models.AnomalyEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Severity.Rank() > events[j].Severity.Rank()
	})
}

func anomalyDescription(metric string, value, m float64) string {
	dir := "lower"
	if value > m {
		dir = "higher"
	}
	return fmt.Sprintf("%s %s than usual (diff %.1f)", DisplayName(metric), dir, math.Abs(value-m))
}
