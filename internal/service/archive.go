package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dtroode/postkeeper-server/internal/model"
)

const monthKeyLayout = "2006-01"

// Archive counts published posts per "YYYY-MM" month, zero-filling every month between the first and the last.
func (s *Post) Archive(ctx context.Context) (map[string]int, error) {
	posts, err := s.postStore.ScanAll(ctx, s.publishedFilter(), []model.PostField{model.FieldPublishedAt})
	if err != nil {
		return nil, fmt.Errorf("failed to scan posts for archive: %w", err)
	}
	return monthBuckets(posts), nil
}

func monthBuckets(posts []model.Post) map[string]int {
	buckets := make(map[string]int)

	var first, last time.Time
	for _, p := range posts {
		if p.PublishedAt == nil {
			continue
		}
		month := startOfMonth(*p.PublishedAt)
		if first.IsZero() || month.Before(first) {
			first = month
		}
		if last.IsZero() || month.After(last) {
			last = month
		}
		buckets[month.Format(monthKeyLayout)]++
	}
	if first.IsZero() {
		return buckets
	}

	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		key := m.Format(monthKeyLayout)
		if _, ok := buckets[key]; !ok {
			buckets[key] = 0
		}
	}
	return buckets
}

func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
