package definition

import (
	"fmt"
	"time"
)

const (
	layoutInput = "2006-01-02"
	layoutAPI   = "20060102"
)

// DateRange is an inclusive range of days in the API's YYYYMMDD form.
type DateRange struct {
	Min string
	Max string
}

// ComputeDateRanges parses start and end (YYYY-MM-DD, end included) and
// returns the range plus, when compare is prev_day, prev_week, prev_month or
// prev_year, the comparison range. Any other compare value yields nil.
func ComputeDateRanges(start, end, compare string) (DateRange, *DateRange, error) {
	startT, err := time.Parse(layoutInput, start)
	if err != nil {
		return DateRange{}, nil, fmt.Errorf("definition: start date: %w", err)
	}
	endT, err := time.Parse(layoutInput, end)
	if err != nil {
		return DateRange{}, nil, fmt.Errorf("definition: end date: %w", err)
	}
	if endT.Before(startT) {
		return DateRange{}, nil, fmt.Errorf("definition: end date %s is before start date %s", end, start)
	}
	main := DateRange{Min: startT.Format(layoutAPI), Max: endT.Format(layoutAPI)}

	// Work on [start, end+1day) so the period length counts whole days.
	endX := endT.AddDate(0, 0, 1)
	period := endX.Sub(startT)

	var cmpStart, cmpEnd time.Time
	switch compare {
	case "prev_day":
		cmpEnd = startT
		cmpStart = cmpEnd.Add(-period)
	case "prev_week":
		if period > 7*24*time.Hour {
			cmpEnd = startT.AddDate(0, 0, -7)
			cmpStart = cmpEnd.Add(-period)
		} else {
			cmpStart = startT.AddDate(0, 0, -7)
			cmpEnd = endX.AddDate(0, 0, -7)
		}
	case "prev_month":
		if period > 28*24*time.Hour {
			cmpEnd = startT.AddDate(0, -1, 0)
			cmpStart = cmpEnd.Add(-period)
		} else {
			cmpStart = startT.AddDate(0, -1, 0)
			cmpEnd = endX.AddDate(0, -1, 0)
		}
	case "prev_year":
		if period > 365*24*time.Hour {
			cmpEnd = startT.AddDate(-1, 0, 0)
			cmpStart = cmpEnd.Add(-period)
		} else {
			cmpStart = startT.AddDate(-1, 0, 0)
			cmpEnd = endX.AddDate(-1, 0, 0)
		}
	default:
		return main, nil, nil
	}
	cmp := DateRange{Min: cmpStart.Format(layoutAPI), Max: cmpEnd.AddDate(0, 0, -1).Format(layoutAPI)}
	return main, &cmp, nil
}
