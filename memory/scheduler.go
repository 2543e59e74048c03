package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultDecaySchedule runs the decay pass every six hours.
const DefaultDecaySchedule = "6h"

// DecayScheduler invokes ApplyMemoryDecay on a wall-clock schedule,
// independent of request traffic. The decay pass only tightens a monotonic
// bound, so it is safe to interleave with concurrent reads and
// reinforcement.
type DecayScheduler struct {
	system   *System
	schedule cron.Schedule
}

// NewDecayScheduler builds a scheduler from a schedule string: either a cron
// expression ("0 */6 * * *", seconds field optional) or a Go duration
// ("6h", "90m"). An empty string uses DefaultDecaySchedule.
func NewDecayScheduler(system *System, schedule string) (*DecayScheduler, error) {
	if schedule == "" {
		schedule = DefaultDecaySchedule
	}

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if sched, err := parser.Parse(schedule); err == nil {
		return &DecayScheduler{system: system, schedule: sched}, nil
	}

	d, err := time.ParseDuration(schedule)
	if err != nil {
		return nil, fmt.Errorf("parse decay schedule %q as cron expression or duration: %w", schedule, err)
	}
	return &DecayScheduler{system: system, schedule: cron.ConstantDelaySchedule{Delay: d}}, nil
}

// Next returns the next run time after t.
func (d *DecayScheduler) Next(t time.Time) time.Time {
	return d.schedule.Next(t)
}

// Run blocks, firing the decay pass at each scheduled tick until the context
// is cancelled. A failed pass is logged and retried at the next tick, never
// sooner.
func (d *DecayScheduler) Run(ctx context.Context) {
	log := d.system.log
	for {
		next := d.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := d.system.ApplyMemoryDecay(ctx); err != nil {
			log.Warn().Err(err).Msg("scheduled decay pass failed")
		} else {
			log.Debug().Time("next", d.schedule.Next(time.Now())).Msg("scheduled decay pass complete")
		}
	}
}
