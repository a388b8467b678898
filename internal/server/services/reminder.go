package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/dayplanner/internal/common"
	"github.com/dmitrijs2005/dayplanner/internal/logging"
	"github.com/dmitrijs2005/dayplanner/internal/server/models"
)

// Reminder is one armed notification.
type Reminder struct {
	Owner  string
	TaskID int64
	Title  string
	At     time.Time
}

// ReminderService arms wall-clock reminders for tasks. Reminders live in
// process memory only and do not survive a restart. A single polling
// goroutine checks the armed set and fires each reminder exactly once; the
// poll interval bounds how late a reminder can be.
type ReminderService struct {
	mu       sync.Mutex
	armed    map[string]map[int64]Reminder
	interval time.Duration
	logger   logging.Logger
	fired    func(Reminder)

	now func() time.Time
}

// NewReminderService creates the service. fired is called for every reminder
// whose time has come; nil means log only.
func NewReminderService(interval time.Duration, logger logging.Logger, fired func(Reminder)) *ReminderService {
	return &ReminderService{
		armed:    make(map[string]map[int64]Reminder),
		interval: interval,
		logger:   logger,
		fired:    fired,
		now:      time.Now,
	}
}

// Schedule arms a reminder for a task at the given instant. Times already in
// the past fail with ErrAlreadyPassed. Scheduling again for the same task
// replaces the earlier reminder.
func (s *ReminderService) Schedule(ctx context.Context, owner string, task *models.Task, at time.Time) error {
	if !at.After(s.now()) {
		return common.ErrAlreadyPassed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.armed[owner]
	if !ok {
		m = make(map[int64]Reminder)
		s.armed[owner] = m
	}
	m[task.ID] = Reminder{Owner: owner, TaskID: task.ID, Title: task.Title, At: at}

	return nil
}

// Cancel disarms the reminder for a task, if one is set.
func (s *ReminderService) Cancel(owner string, taskID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.armed[owner]; ok {
		delete(m, taskID)
	}
}

// Pending returns the reminder armed for a task, if any.
func (s *ReminderService) Pending(owner string, taskID int64) (Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.armed[owner][taskID]
	return r, ok
}

// Run polls until the context is cancelled. Blocks; callers run it in a
// goroutine.
func (s *ReminderService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep fires and removes every reminder whose time has passed. Removal
// happens before the callback so a reminder can never fire twice.
func (s *ReminderService) sweep(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []Reminder
	for _, m := range s.armed {
		for id, r := range m {
			if !r.At.After(now) {
				due = append(due, r)
				delete(m, id)
			}
		}
	}
	s.mu.Unlock()

	for _, r := range due {
		s.logger.Info(ctx, "reminder fired", "owner", r.Owner, "task_id", r.TaskID, "title", r.Title)
		if s.fired != nil {
			s.fired(r)
		}
	}
}
