// Package scheduler implements the calendar-driven periodic trigger: it
// owns at most one live cron timer per configuration id, invokes a
// caller-registered Implementation on each firing, and persists the
// implementation's returned configuration under a fresh transaction.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Dev-ALPM/imixs-workflow/internal/apperrors"
	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/logging"
	"github.com/Dev-ALPM/imixs-workflow/internal/store"
)

// maxConcurrentSchedulers bounds startAllSchedulers.
const maxConcurrentSchedulers = 100

// Implementation is the caller-supplied unit a scheduler configuration
// names: run(config) -> config, possibly raising a SchedulerError.
// Implementations register under a name via Scheduler.Register rather than
// being resolved by reflective class-name lookup.
type Implementation interface {
	Run(ctx context.Context, config *itemcollection.ItemCollection) (*itemcollection.ItemCollection, error)
}

// ImplementationFunc adapts a plain function to the Implementation interface.
type ImplementationFunc func(ctx context.Context, config *itemcollection.ItemCollection) (*itemcollection.ItemCollection, error)

// Run implements Implementation.
func (f ImplementationFunc) Run(ctx context.Context, config *itemcollection.ItemCollection) (*itemcollection.ItemCollection, error) {
	return f(ctx, config)
}

// Scheduler owns the live cron.Cron runtime, the registry of
// Implementations, and the document store scheduler configurations are
// persisted to.
type Scheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	timers map[string]cron.EntryID // config id -> live entry
	impls  map[string]Implementation

	store  store.DocumentStore
	logger *logging.Logger
}

// New wires a Scheduler against its document store. The returned Scheduler
// owns a running cron.Cron; callers must call Shutdown at process quiesce
// to cancel every live timer.
func New(docs store.DocumentStore, logger *logging.Logger) *Scheduler {
	c := cron.New(cron.WithParser(calendarParser))
	c.Start()
	return &Scheduler{
		cron:   c,
		timers: make(map[string]cron.EntryID),
		impls:  make(map[string]Implementation),
		store:  docs,
		logger: logger,
	}
}

// Register adds or replaces the Implementation callers may select by name
// from a configuration document's scheduler.class item.
func (s *Scheduler) Register(name string, impl Implementation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.impls[name] = impl
}

// Shutdown cancels every live timer and stops the underlying cron runtime,
// blocking until any in-flight firing completes.
func (s *Scheduler) Shutdown(ctx context.Context) {
	s.mu.Lock()
	for id, entryID := range s.timers {
		s.cron.Remove(entryID)
		delete(s.timers, id)
	}
	s.mu.Unlock()
	<-s.cron.Stop().Done()
}

// Start cancels any existing timer for config's id, parses its calendar
// expression, and creates a new timer.
func (s *Scheduler) Start(config *itemcollection.ItemCollection) (*itemcollection.ItemCollection, error) {
	id := ID(config)
	if id == "" {
		return nil, apperrors.SchedulerError("scheduler", "MISSING_ID", "configuration has no $uniqueid", nil)
	}

	sched, err := ParseCalendarExpression(config.GetItemValueString(ItemDefinition))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.timers[id]; ok {
		s.cron.Remove(existing)
	}
	entryID := s.cron.Schedule(sched, cron.FuncJob(func() { s.onTimeout(id) }))
	s.timers[id] = entryID
	s.mu.Unlock()

	_ = config.SetItemValue(ItemEnabled, true)
	appendLog(config, fmt.Sprintf("Started: %s", time.Now().UTC().Format(time.RFC3339)))
	s.UpdateTimerDetails(config)
	return config, nil
}

// Stop cancels the live timer, clears the derived display items, and
// marks the configuration disabled.
func (s *Scheduler) Stop(config *itemcollection.ItemCollection) (*itemcollection.ItemCollection, error) {
	id := ID(config)

	s.mu.Lock()
	if entryID, ok := s.timers[id]; ok {
		s.cron.Remove(entryID)
		delete(s.timers, id)
	}
	s.mu.Unlock()

	clearTimerDetails(config)
	_ = config.SetItemValue(ItemEnabled, false)
	appendLog(config, fmt.Sprintf("Stopped: %s", time.Now().UTC().Format(time.RFC3339)))
	return config, nil
}

// FindTimer reports whether a live timer exists for id.
func (s *Scheduler) FindTimer(id string) (cron.EntryID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entryID, ok := s.timers[id]
	return entryID, ok
}

// UpdateTimerDetails refreshes nextTimeout/timeRemaining on config from the
// live timer's schedule, if any.
func (s *Scheduler) UpdateTimerDetails(config *itemcollection.ItemCollection) {
	entryID, ok := s.FindTimer(ID(config))
	if !ok {
		clearTimerDetails(config)
		return
	}
	entry := s.cron.Entry(entryID)
	if entry.Next.IsZero() {
		clearTimerDetails(config)
		return
	}
	setTimerDetails(config, entry.Next)
}

// StartAllSchedulers scans persisted scheduler documents and starts a timer
// for every enabled configuration lacking a live one, capped at
// maxConcurrentSchedulers concurrently active schedulers.
func (s *Scheduler) StartAllSchedulers(ctx context.Context) error {
	docs, err := s.store.GetDocumentsByType(ctx, DocType)
	if err != nil {
		return apperrors.SchedulerError("scheduler", "STORE_FAILURE", "loading scheduler documents", err)
	}

	active := 0
	s.mu.Lock()
	active = len(s.timers)
	s.mu.Unlock()

	for _, doc := range docs {
		if active >= maxConcurrentSchedulers {
			s.logger.WithContext(ctx).Warn("scheduler concurrency cap reached, skipping remaining configurations")
			break
		}
		if !Enabled(doc) {
			continue
		}
		if _, ok := s.FindTimer(ID(doc)); ok {
			continue
		}
		if _, err := s.Start(doc); err != nil {
			s.logger.WithContext(ctx).WithField("scheduler_id", ID(doc)).WithError(err).Error("failed to start scheduler")
			continue
		}
		if _, err := s.store.Save(ctx, doc); err != nil {
			s.logger.WithContext(ctx).WithField("scheduler_id", ID(doc)).WithError(err).Error("failed to persist started scheduler")
		}
		active++
	}
	return nil
}

// timeoutOutcome is the closed result of one onTimeout dispatch: a
// result-returning alternative to a nested try/catch cascade, with three
// outcomes {Ok, Stop, Continue}.
type timeoutOutcome struct {
	kind   timeoutKind
	config *itemcollection.ItemCollection
	err    error
}

type timeoutKind int

const (
	outcomeOK timeoutKind = iota
	outcomeStop
	outcomeContinue
)

// onTimeout fires when the cron entry for configID matures. It loads the
// configuration, resolves the registered Implementation, runs it, and
// persists the result in a fresh transaction.
func (s *Scheduler) onTimeout(configID string) {
	ctx := context.Background()
	outcome := s.dispatchTimeout(ctx, configID)

	switch outcome.kind {
	case outcomeOK:
		appendLog(outcome.config, fmt.Sprintf("Finished: %s", time.Now().UTC().Format(time.RFC3339)))
		if _, err := s.store.Save(ctx, outcome.config); err != nil {
			s.logger.WithContext(ctx).WithField("scheduler_id", configID).WithError(err).Error("failed to persist scheduler result")
		}
	case outcomeStop:
		s.mu.Lock()
		if entryID, ok := s.timers[configID]; ok {
			s.cron.Remove(entryID)
			delete(s.timers, configID)
		}
		s.mu.Unlock()
		if outcome.config != nil {
			appendLog(outcome.config, fmt.Sprintf("Error: %s", outcome.err))
			_ = outcome.config.SetItemValue(ItemError, outcome.err.Error())
			_ = outcome.config.SetItemValue(ItemEnabled, false)
			if _, err := s.store.Save(ctx, outcome.config); err != nil {
				s.logger.WithContext(ctx).WithField("scheduler_id", configID).WithError(err).Error("failed to persist stopped scheduler")
			}
		}
		s.logger.WithContext(ctx).WithField("scheduler_id", configID).WithError(outcome.err).Error("scheduler timer stopped")
	case outcomeContinue:
		s.logger.WithContext(ctx).WithField("scheduler_id", configID).WithError(outcome.err).Warn("scheduler firing failed, timer left running")
	}
}

// dispatchTimeout performs the actual load/resolve/run and classifies the
// result; it never mutates the running timer itself, so it stays trivially
// testable without a live cron.Cron.
func (s *Scheduler) dispatchTimeout(ctx context.Context, configID string) timeoutOutcome {
	config, ok, err := s.store.Load(ctx, configID)
	if err != nil {
		return timeoutOutcome{kind: outcomeContinue, err: apperrors.SchedulerError("scheduler", "STORE_FAILURE", "loading configuration", err)}
	}
	if !ok {
		return timeoutOutcome{kind: outcomeStop, err: apperrors.SchedulerError("scheduler", "CONFIG_GONE", "configuration "+configID+" no longer exists", nil)}
	}

	s.mu.Lock()
	impl, ok := s.impls[config.GetItemValueString(ItemClass)]
	s.mu.Unlock()
	if !ok {
		return timeoutOutcome{kind: outcomeStop, config: config, err: apperrors.SchedulerError("scheduler", "UNKNOWN_IMPLEMENTATION", "no scheduler implementation registered for "+config.GetItemValueString(ItemClass), nil)}
	}

	result, err := impl.Run(ctx, config)
	if err != nil {
		if apperrors.Is(err, apperrors.KindSchedulerError) {
			return timeoutOutcome{kind: outcomeStop, config: config, err: err}
		}
		return timeoutOutcome{kind: outcomeStop, config: config, err: apperrors.SchedulerError("scheduler", "IMPLEMENTATION_FAILED", "scheduler implementation failed", err)}
	}
	return timeoutOutcome{kind: outcomeOK, config: result}
}
