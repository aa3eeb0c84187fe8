package productsync

import (
	"context"
	"sync"

	"github.com/herecomesthebride/boutique-api/models"
	"github.com/herecomesthebride/boutique-api/services"
	"go.uber.org/zap"
)

// Coordinator keeps subscribers supplied with the product collection,
// preferring the live channel and falling back to polling
type Coordinator struct {
	source    ProductSource
	channel   LiveChannel
	scheduler Scheduler
	policy    Policy
	logger    *zap.Logger
}

// Option customizes a Coordinator
type Option func(*Coordinator)

// WithPolicy overrides DefaultPolicy
func WithPolicy(p Policy) Option {
	return func(c *Coordinator) { c.policy = p }
}

// WithScheduler overrides the cron scheduler
func WithScheduler(s Scheduler) Option {
	return func(c *Coordinator) { c.scheduler = s }
}

// WithLogger overrides the global zap logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator creates a coordinator that polls source and listens on channel
func NewCoordinator(source ProductSource, channel LiveChannel, opts ...Option) *Coordinator {
	c := &Coordinator{
		source:  source,
		channel: channel,
		policy:  DefaultPolicy(),
		logger:  zap.L(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scheduler == nil {
		c.scheduler = NewCronScheduler()
	}
	return c
}

var coordinatorInstance *Coordinator

// InitCoordinator sets the coordinator used by the HTTP handlers
func InitCoordinator(c *Coordinator) *Coordinator {
	coordinatorInstance = c
	return coordinatorInstance
}

// GetCoordinator returns the initialized coordinator instance
func GetCoordinator() *Coordinator {
	return coordinatorInstance
}

// Subscribe starts delivering snapshots to onData and mode changes to
// onModeChange. Both callbacks run on the subscription's event loop, one at a
// time. The returned cancel stops the live channel or polling timer and any
// pending retry, and returns once no further callback can run; it must not
// be called from inside a callback.
func (c *Coordinator) Subscribe(onData func([]models.Product), onModeChange func(Mode)) (cancel func()) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	s := &subscription{
		c:            c,
		ctx:          ctx,
		onData:       onData,
		onModeChange: onModeChange,
		events:       make(chan loopEvent, 16),
		stopped:      make(chan struct{}),
	}

	go s.run()

	var once sync.Once
	return func() {
		once.Do(cancelCtx)
		<-s.stopped
	}
}

// loopEvent is an Event tagged with the generation of the channel or timer
// that produced it
type loopEvent struct {
	Event
	gen      uint64
	products []models.Product
}

type subscription struct {
	c            *Coordinator
	ctx          context.Context
	onData       func([]models.Product)
	onModeChange func(Mode)
	events       chan loopEvent
	stopped      chan struct{}

	// owned by the event loop
	state        State
	gen          uint64
	closeChannel func()
	stopTimer    func()
	lastMode     Mode
}

func (s *subscription) run() {
	defer close(s.stopped)

	s.openChannel()
	for {
		select {
		case <-s.ctx.Done():
			s.apply(loopEvent{Event: Event{Kind: EventCancel}, gen: s.gen})
			return
		case ev := <-s.events:
			if ev.gen != s.gen {
				continue
			}
			s.apply(ev)
		}
	}
}

func (s *subscription) apply(ev loopEvent) {
	prev := s.state
	next, fx := Transition(s.state, ev.Event, s.c.policy)
	s.state = next
	if prev != next {
		s.c.logger.Debug("Product sync transition",
			zap.Stringer("from", prev),
			zap.Stringer("to", next))
	}

	if fx.CloseChannel {
		s.dropChannel()
	}
	if fx.StopTimers {
		s.dropTimer()
	}
	if fx.Mode != "" && fx.Mode != s.lastMode {
		s.lastMode = fx.Mode
		s.c.logger.Info("Product sync mode changed", zap.String("mode", string(fx.Mode)))
		if s.onModeChange != nil {
			s.onModeChange(fx.Mode)
		}
	}
	if fx.Deliver && s.onData != nil {
		s.onData(ev.products)
	}
	if fx.OpenChannel {
		s.openChannel()
	}
	if fx.ScheduleRetry {
		s.dropTimer()
		gen := s.nextGen()
		s.stopTimer = s.c.scheduler.After(s.c.policy.RetryBackoff, func() {
			s.post(s.ctx, loopEvent{Event: Event{Kind: EventRetryElapsed}, gen: gen})
		})
	}
	if fx.StartPolling {
		s.poll()
		s.dropTimer()
		gen := s.nextGen()
		s.stopTimer = s.c.scheduler.Every(s.c.policy.PollInterval, func() {
			s.post(s.ctx, loopEvent{Event: Event{Kind: EventPollTick}, gen: gen})
		})
	}
	if fx.Poll {
		s.poll()
	}
}

// nextGen invalidates events from every earlier channel and timer
func (s *subscription) nextGen() uint64 {
	s.gen++
	return s.gen
}

func (s *subscription) openChannel() {
	gen := s.nextGen()
	chanCtx, cancel := context.WithCancel(s.ctx)

	closeFn, err := s.c.channel.Open(chanCtx,
		func(products []models.Product) {
			s.post(chanCtx, loopEvent{Event: Event{Kind: EventChannelUpdate}, gen: gen, products: products})
		},
		func(err error) {
			s.post(chanCtx, s.channelError(err, gen))
		},
	)
	if err != nil {
		cancel()
		if s.ctx.Err() != nil {
			return
		}
		// fed through the loop like any other channel failure
		s.apply(s.channelError(err, gen))
		return
	}

	s.closeChannel = func() {
		cancel()
		closeFn()
	}
}

func (s *subscription) channelError(err error, gen uint64) loopEvent {
	kind := ErrorUnavailable
	if services.IsAccessError(services.ClassifyStoreError(err)) {
		kind = ErrorAccess
	}
	s.c.logger.Warn("Live channel failed", zap.Error(err), zap.Bool("access_denied", kind == ErrorAccess))
	return loopEvent{Event: Event{Kind: EventChannelError, ErrorKind: kind}, gen: gen}
}

func (s *subscription) dropChannel() {
	if s.closeChannel != nil {
		s.closeChannel()
		s.closeChannel = nil
	}
}

func (s *subscription) dropTimer() {
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}

func (s *subscription) poll() {
	products, err := s.c.source.GetProducts(s.ctx)
	if err != nil {
		if s.ctx.Err() == nil {
			s.c.logger.Warn("Product poll failed", zap.Error(err))
		}
		return
	}
	if s.onData != nil {
		s.onData(products)
	}
}

// post hands ev to the event loop unless ctx ends first
func (s *subscription) post(ctx context.Context, ev loopEvent) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}
