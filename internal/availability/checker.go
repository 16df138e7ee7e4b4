// Package availability checks whether a candidate identifier (such as a
// public user tag) is already taken, collapsing rapid input into a single
// lookup and never letting a stale answer overwrite a fresher one.
package availability

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Daltraxx/life-rpg-sub000/internal/game"
)

// LookupFunc asks the backing store whether candidate exists.
type LookupFunc func(ctx context.Context, candidate string) (bool, error)

// Status is the state of the latest check.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusAvailable Status = "available"
	StatusTaken     Status = "taken"
	StatusFailed    Status = "failed"
)

// ErrLookupFailed marks a failed lookup. The check can be retried.
var ErrLookupFailed = errors.New("could not check availability, please try again")

// Result is what the caller shows next to the input field.
type Result struct {
	Candidate string
	Seq       uint64
	Status    Status
	Err       error
}

type Options struct {
	// Delay is the quiet period after the last Check before a lookup starts.
	// Zero starts lookups immediately.
	Delay time.Duration
	// OnResult, when set, is called with every result that becomes the latest.
	OnResult func(Result)
	// Group collapses identical in-flight lookups. Share one between
	// checkers to collapse them across checkers too.
	Group  *singleflight.Group
	Logger *slog.Logger
}

// Checker debounces, caches and sequences availability lookups. It is safe
// for concurrent use.
type Checker struct {
	lookup   LookupFunc
	delay    time.Duration
	onResult func(Result)
	logger   *slog.Logger

	group *singleflight.Group

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	cache  map[string]bool
	latest Result
	// gen counts updates to latest.
	gen    uint64
	closed bool

	// deliver orders OnResult calls. It is never held together with mu
	// while a callback runs.
	deliver sync.Mutex
}

func NewChecker(lookup LookupFunc, opts Options) *Checker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	group := opts.Group
	if group == nil {
		group = &singleflight.Group{}
	}
	return &Checker{
		lookup:   lookup,
		group:    group,
		delay:    opts.Delay,
		onResult: opts.OnResult,
		logger:   logger,
		cache:    map[string]bool{},
		latest:   Result{Status: StatusIdle},
	}
}

// Normalize is the cache key for a candidate.
func Normalize(candidate string) string {
	return game.FoldName(candidate)
}

// Check starts checking candidate, superseding any earlier check. It returns
// the sequence number of this check.
func (c *Checker) Check(candidate string) uint64 {
	key := Normalize(candidate)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}
	c.seq++
	seq := c.seq
	c.stopLocked()

	if key == "" {
		c.mu.Unlock()
		c.apply(Result{Seq: seq, Status: StatusIdle})
		return seq
	}
	if exists, ok := c.cache[key]; ok {
		c.mu.Unlock()
		c.apply(Result{Candidate: key, Seq: seq, Status: statusFor(exists)})
		return seq
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	c.apply(Result{Candidate: key, Seq: seq, Status: StatusPending})
	if c.delay <= 0 {
		go c.run(ctx, seq, key)
		return seq
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// A newer Check has already cancelled ctx if it got in first.
	if c.seq == seq && !c.closed {
		c.timer = time.AfterFunc(c.delay, func() { c.run(ctx, seq, key) })
	}
	return seq
}

// Latest returns the most recent result.
func (c *Checker) Latest() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Close cancels any pending or in-flight lookup. Results arriving afterwards
// are dropped.
func (c *Checker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopLocked()
}

func (c *Checker) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Checker) run(ctx context.Context, seq uint64, key string) {
	var exists bool
	var err error
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return
		}
		ch := c.group.DoChan(key, func() (any, error) {
			return c.lookup(ctx, key)
		})
		select {
		case <-ctx.Done():
			return
		case r := <-ch:
			exists, err = false, r.Err
			if err == nil {
				exists = r.Val.(bool)
			}
		}
		// We joined a lookup whose owner was superseded; start our own.
		if attempt == 0 && errors.Is(err, context.Canceled) && ctx.Err() == nil {
			c.group.Forget(key)
			continue
		}
		break
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		c.logger.Warn("availability lookup failed", "candidate", key, "error", err)
		c.apply(Result{Candidate: key, Seq: seq, Status: StatusFailed, Err: errors.Join(ErrLookupFailed, err)})
		return
	}

	c.mu.Lock()
	c.cache[key] = exists
	c.mu.Unlock()
	c.apply(Result{Candidate: key, Seq: seq, Status: statusFor(exists)})
}

// apply records r unless a newer check has been issued since. OnResult sees
// results in the order they were recorded; one overtaken on the way to the
// callback is skipped.
func (c *Checker) apply(r Result) {
	c.mu.Lock()
	if c.closed || r.Seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.latest = r
	c.gen++
	gen := c.gen
	cb := c.onResult
	c.mu.Unlock()

	if cb == nil {
		return
	}
	c.deliver.Lock()
	defer c.deliver.Unlock()
	c.mu.Lock()
	current := gen == c.gen && !c.closed
	c.mu.Unlock()
	if current {
		cb(r)
	}
}

func statusFor(exists bool) Status {
	if exists {
		return StatusTaken
	}
	return StatusAvailable
}
