package gpio

import "sync"

// Fake is an in-memory pin for tests. Reads return the current level unless
// an error has been queued with FailReads.
type Fake struct {
	mu     sync.Mutex
	level  Level
	errs   []error
	reads  int
	writes []Level
	closed bool
	onRead func(reads int)
}

// NewFake returns a fake pin idling at level.
func NewFake(level Level) *Fake {
	return &Fake{level: level}
}

// Set changes the level returned by subsequent reads.
func (f *Fake) Set(level Level) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.level = level
}

// FailReads queues errors returned by the next reads, in order.
func (f *Fake) FailReads(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, errs...)
}

// OnRead registers a hook invoked after each read with the read count.
func (f *Fake) OnRead(hook func(reads int)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onRead = hook
}

func (f *Fake) Read() (Level, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return Low, ErrClosed
	}
	f.reads++
	reads, hook, level := f.reads, f.onRead, f.level
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	f.mu.Unlock()

	if hook != nil {
		hook(reads)
	}
	return level, err
}

func (f *Fake) Write(level Level) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.level = level
	f.writes = append(f.writes, level)
	return nil
}

// Reads returns the number of reads performed.
func (f *Fake) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Writes returns the levels written so far.
func (f *Fake) Writes() []Level {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Level(nil), f.writes...)
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
