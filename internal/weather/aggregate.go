package weather

import "sort"

// MaxForecastDays caps the number of daily summaries produced by Summarize.
const MaxForecastDays = 5

// Summarize groups 3-hour samples into at most MaxForecastDays daily summaries.
//
// Samples are bucketed by their UTC calendar date. Each bucket keeps a running
// minimum and maximum temperature, while its Sky and sort timestamp come from
// the first sample seen for that date. Buckets are returned in ascending order
// of that timestamp. Empty input yields an empty, non-nil slice.
func Summarize(samples []ForecastSample) []DailySummary {
	if len(samples) == 0 {
		return []DailySummary{}
	}

	days := make(map[string]*DailySummary)
	order := make([]string, 0, MaxForecastDays+1)

	for _, s := range samples {
		ts := s.Timestamp.UTC()
		key := ts.Format("2006-01-02")

		day, ok := days[key]
		if !ok {
			days[key] = &DailySummary{
				Date:      key,
				Weekday:   ts.Format("Mon"),
				TempMin:   s.TempMin,
				TempMax:   s.TempMax,
				Sky:       s.Sky,
				FirstSeen: ts,
			}
			order = append(order, key)
			continue
		}

		if s.TempMin < day.TempMin {
			day.TempMin = s.TempMin
		}
		if s.TempMax > day.TempMax {
			day.TempMax = s.TempMax
		}
	}

	out := make([]DailySummary, 0, len(order))
	for _, k := range order {
		out = append(out, *days[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FirstSeen.Before(out[j].FirstSeen)
	})

	if len(out) > MaxForecastDays {
		out = out[:MaxForecastDays]
	}
	return out
}
