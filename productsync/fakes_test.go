package productsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/herecomesthebride/boutique-api/models"
)

// manualScheduler records timers and fires them on demand
type manualScheduler struct {
	mu     sync.Mutex
	afters []*manualTimer
	everys []*manualTimer
}

type manualTimer struct {
	d       time.Duration
	fn      func()
	mu      sync.Mutex
	stopped bool
}

func (t *manualTimer) fire() {
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if !stopped {
		t.fn()
	}
}

func (t *manualTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *manualTimer) stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (m *manualScheduler) After(d time.Duration, fn func()) func() {
	t := &manualTimer{d: d, fn: fn}
	m.mu.Lock()
	m.afters = append(m.afters, t)
	m.mu.Unlock()
	return t.stop
}

func (m *manualScheduler) Every(d time.Duration, fn func()) func() {
	t := &manualTimer{d: d, fn: fn}
	m.mu.Lock()
	m.everys = append(m.everys, t)
	m.mu.Unlock()
	return t.stop
}

func (m *manualScheduler) afterCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.afters)
}

func (m *manualScheduler) everyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.everys)
}

func (m *manualScheduler) after(i int) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.afters[i]
}

func (m *manualScheduler) every(i int) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.everys[i]
}

// fakeChannel hands the test the callbacks of each open
type fakeChannel struct {
	mu       sync.Mutex
	openErrs []error
	opens    int
	closes   int
	snap     func([]models.Product)
	fail     func(error)
}

func (f *fakeChannel) Open(ctx context.Context, onSnapshot func([]models.Product), onError func(error)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.opens++
	if len(f.openErrs) > 0 {
		err := f.openErrs[0]
		if len(f.openErrs) > 1 {
			f.openErrs = f.openErrs[1:]
		}
		if err != nil {
			return nil, err
		}
	}
	f.snap = onSnapshot
	f.fail = onError
	return func() {
		f.mu.Lock()
		f.closes++
		f.mu.Unlock()
	}, nil
}

func (f *fakeChannel) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

func (f *fakeChannel) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func (f *fakeChannel) push(products []models.Product) {
	f.mu.Lock()
	snap := f.snap
	f.mu.Unlock()
	snap(products)
}

func (f *fakeChannel) breakWith(err error) {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	fail(err)
}

// fakeSource counts reads and returns a fixed collection
type fakeSource struct {
	mu       sync.Mutex
	reads    int
	products []models.Product
	err      error
}

func (f *fakeSource) GetProducts(ctx context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Product, len(f.products))
	copy(out, f.products)
	return out, nil
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeSource) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// recorder collects subscriber callbacks
type recorder struct {
	mu    sync.Mutex
	data  [][]models.Product
	modes []Mode
}

func (r *recorder) onData(products []models.Product) {
	r.mu.Lock()
	r.data = append(r.data, products)
	r.mu.Unlock()
}

func (r *recorder) onMode(m Mode) {
	r.mu.Lock()
	r.modes = append(r.modes, m)
	r.mu.Unlock()
}

func (r *recorder) deliveries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

func (r *recorder) lastData() []models.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.data) == 0 {
		return nil
	}
	return r.data[len(r.data)-1]
}

func (r *recorder) modeLog() []Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Mode, len(r.modes))
	copy(out, r.modes)
	return out
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
