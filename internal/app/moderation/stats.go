package moderation

import (
	"context"

	"github.com/dalemusser/memberhub/internal/app/registry"
)

// Stats produces the admin overview. It keeps no counters of its own.
type Stats struct {
	queue *Queue
}

func NewStats(q *Queue) *Stats {
	return &Stats{queue: q}
}

// Overview is the payload of the stats endpoint.
type Overview struct {
	Users        UserCounts              `json:"users"`
	Content      map[registry.Type]int64 `json:"content"`
	PendingTotal int64                   `json:"pending_total"`
}

// Overview recomputes the summary from the store on every call.
func (s *Stats) Overview(ctx context.Context, c Caller) (Overview, error) {
	sum, err := s.queue.Summary(ctx, c)
	if err != nil {
		return Overview{}, err
	}
	ov := Overview{Users: sum.Users, Content: sum.Content, PendingTotal: sum.Users.Pending}
	for _, n := range sum.Content {
		ov.PendingTotal += n
	}
	return ov, nil
}
