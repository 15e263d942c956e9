package findata

import (
	"context"
	"testing"
	"time"
)

type record struct {
	id  string
	day string
}

func recordDay(r record) (time.Time, bool) {
	return parseDay(r.day)
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("failed to parse day %q: %v", value, err)
	}
	return parsed
}

func TestFetchDateRangeShortBatchStops(t *testing.T) {
	calls := 0
	page := func(ctx context.Context, batchEnd time.Time) ([]record, error) {
		calls++
		return []record{{"a", "2025-06-01"}}, nil
	}

	got, err := fetchDateRange(context.Background(), day(t, "2025-01-01"), day(t, "2025-06-30"), 10, page, recordDay)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("page called %d times, want 1", calls)
	}
	if len(got) != 1 {
		t.Errorf("got %d records, want 1", len(got))
	}
}

func TestFetchDateRangeEmptyBatchStops(t *testing.T) {
	page := func(ctx context.Context, batchEnd time.Time) ([]record, error) {
		return nil, nil
	}

	got, err := fetchDateRange(context.Background(), day(t, "2025-01-01"), day(t, "2025-06-30"), 10, page, recordDay)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d records, want 0", len(got))
	}
}

func TestFetchDateRangeWindowWalk(t *testing.T) {
	// Two full batches then a short one. Each full batch moves the window to
	// the day before its oldest record.
	batches := map[string][]record{
		"2025-06-30": {{"a", "2025-06-20"}, {"b", "2025-06-10"}},
		"2025-06-09": {{"c", "2025-06-05"}, {"d", "2025-05-25"}},
		"2025-05-24": {{"e", "2025-05-01"}},
	}
	var ends []string
	page := func(ctx context.Context, batchEnd time.Time) ([]record, error) {
		key := batchEnd.Format("2006-01-02")
		ends = append(ends, key)
		batch, ok := batches[key]
		if !ok {
			t.Fatalf("unexpected window end %s", key)
		}
		return batch, nil
	}

	got, err := fetchDateRange(context.Background(), day(t, "2025-01-01"), day(t, "2025-06-30"), 2, page, recordDay)
	if err != nil {
		t.Fatal(err)
	}

	if len(ends) != 3 {
		t.Fatalf("page called %d times, want 3 (ends: %v)", len(ends), ends)
	}
	wantEnds := []string{"2025-06-30", "2025-06-09", "2025-05-24"}
	for i, want := range wantEnds {
		if ends[i] != want {
			t.Errorf("window end %d = %s, want %s", i, ends[i], want)
		}
	}

	// Batch contents are concatenated in fetch order, newest window first
	wantIDs := []string{"a", "b", "c", "d", "e"}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d records, want %d", len(got), len(wantIDs))
	}
	for i, want := range wantIDs {
		if got[i].id != want {
			t.Errorf("record %d = %s, want %s", i, got[i].id, want)
		}
	}
}

func TestFetchDateRangeStopsAtStart(t *testing.T) {
	// A full batch whose oldest record has reached the window start must not
	// trigger another page.
	calls := 0
	page := func(ctx context.Context, batchEnd time.Time) ([]record, error) {
		calls++
		return []record{{"a", "2025-03-01"}, {"b", "2025-01-01"}}, nil
	}

	_, err := fetchDateRange(context.Background(), day(t, "2025-01-01"), day(t, "2025-06-30"), 2, page, recordDay)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("page called %d times, want 1", calls)
	}
}

func TestFetchDateRangeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	page := func(ctx context.Context, batchEnd time.Time) ([]record, error) {
		// Cancel after the first page; the loop must notice before the next.
		cancel()
		return []record{{"a", "2025-06-20"}, {"b", "2025-06-10"}}, nil
	}

	_, err := fetchDateRange(ctx, day(t, "2025-01-01"), day(t, "2025-06-30"), 2, page, recordDay)
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestFetchDateRangeBoundaryDuplicatesKept(t *testing.T) {
	// A record sitting on the window boundary can arrive in two batches; the
	// fetcher concatenates without dedup.
	batches := [][]record{
		{{"a", "2025-06-20"}, {"b", "2025-06-10"}},
		{{"b", "2025-06-09"}, {"c", "2025-05-01"}},
	}
	call := 0
	page := func(ctx context.Context, batchEnd time.Time) ([]record, error) {
		batch := batches[call]
		call++
		return batch, nil
	}

	got, err := fetchDateRange(context.Background(), day(t, "2025-05-01"), day(t, "2025-06-30"), 2, page, recordDay)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Errorf("got %d records, want all 4 including the duplicate", len(got))
	}
}
