package moderation

import (
	"context"

	"github.com/dalemusser/memberhub/internal/app/registry"
	"go.uber.org/zap"
)

// Deps are the collaborators shared by the queue, engine and stats.
// Audit, Clock, Logger and Tx may be nil. A nil Tx runs each unit of work
// directly, without atomicity.
type Deps struct {
	Registry      *registry.Registry
	Content       ContentStore
	Users         UserStore
	Profiles      ProfileStore
	Notifications NotificationStore
	Tx            TxRunner
	Audit         Auditor
	Clock         Clock
	Logger        *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Registry == nil {
		d.Registry = registry.Default()
	}
	if d.Audit == nil {
		d.Audit = nopAuditor{}
	}
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Tx == nil {
		d.Tx = directRunner{}
	}
	return d
}

type directRunner struct{}

func (directRunner) Run(ctx context.Context, fn func(ctx context.Context) error) (bool, error) {
	return false, fn(ctx)
}

// Service bundles the moderation components over one set of Deps.
type Service struct {
	Queue  *Queue
	Engine *Engine
	Stats  *Stats
}

// New wires the queue reader, transition engine and stats aggregator.
func New(d Deps) *Service {
	d = d.withDefaults()
	q := NewQueue(d)
	return &Service{
		Queue:  q,
		Engine: NewEngine(d),
		Stats:  NewStats(q),
	}
}
