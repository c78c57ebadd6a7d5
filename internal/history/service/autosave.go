package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// AutoSaver runs Manager.AutoSave on a fixed interval. Start and Stop are
// an explicit lifecycle pair; a job that fires after Stop is a no-op.
type AutoSaver struct {
	mu       sync.Mutex
	manager  *Manager
	interval time.Duration
	cron     *cron.Cron
	active   bool
	zlog     zerolog.Logger
}

func NewAutoSaver(manager *Manager, interval time.Duration, zlog zerolog.Logger) *AutoSaver {
	if interval < time.Second {
		interval = 30 * time.Second
	}
	return &AutoSaver{
		manager:  manager,
		interval: interval,
		zlog:     zlog,
	}
}

// Start schedules the auto-save job. Restarting replaces the previous
// schedule.
func (a *AutoSaver) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cron != nil {
		a.cron.Stop()
	}

	c := cron.New(cron.WithSeconds())
	spec := fmt.Sprintf("@every %s", a.interval)

	_, err := c.AddFunc(spec, func() {
		a.mu.Lock()
		active := a.active
		a.mu.Unlock()
		if !active {
			// Stop raced with a queued firing; skip.
			return
		}

		if rec := a.manager.AutoSave(); rec != nil {
			a.zlog.Info().Str("record_id", rec.ID).Str("title", rec.Title).Msg("auto-saved editor state")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule auto-save: %w", err)
	}

	a.cron = c
	a.active = true
	c.Start()
	a.zlog.Info().Dur("interval", a.interval).Msg("auto-save started")
	return nil
}

// Stop cancels the auto-save schedule.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.active = false
	if a.cron != nil {
		a.cron.Stop()
		a.cron = nil
	}
	a.zlog.Info().Msg("auto-save stopped")
}

// Active reports whether the scheduler is running.
func (a *AutoSaver) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}
