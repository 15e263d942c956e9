package findata

import (
	"context"
	"time"
)

// pageFunc fetches one batch of records with dates at or before batchEnd.
type pageFunc[T any] func(ctx context.Context, batchEnd time.Time) ([]T, error)

// fetchDateRange walks a date-paginated endpoint backwards from end toward
// start. It terminates on an empty batch, a short batch (fewer than limit
// records), or when the oldest record in a batch is not after start;
// otherwise the window advances to the day before the oldest record seen.
// The window end strictly decreases each iteration, so the walk always
// terminates. Records on window boundaries may appear twice; callers
// tolerate duplicates.
func fetchDateRange[T any](ctx context.Context, start, end time.Time, limit int, page pageFunc[T], dayOf func(T) (time.Time, bool)) ([]T, error) {
	var all []T
	batchEnd := end

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, err := page(ctx, batchEnd)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		if len(batch) < limit {
			break
		}

		minDay, ok := oldestDay(batch, dayOf)
		if !ok || !minDay.After(start) {
			break
		}
		batchEnd = minDay.AddDate(0, 0, -1)
	}

	return all, nil
}

// oldestDay returns the earliest parseable day in a batch.
func oldestDay[T any](batch []T, dayOf func(T) (time.Time, bool)) (time.Time, bool) {
	var min time.Time
	found := false
	for _, rec := range batch {
		day, ok := dayOf(rec)
		if !ok {
			continue
		}
		if !found || day.Before(min) {
			min = day
			found = true
		}
	}
	return min, found
}
