package live

import "sync"

// loop runs posted jobs one at a time, in posting order, on its own
// goroutine. Posting never blocks, so jobs may post further jobs.
type loop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake chan struct{}
	done chan struct{}
}

func newLoop() *loop {
	l := &loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *loop) post(job func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, job)
	l.mu.Unlock()

	l.signal()
	return true
}

// stop rejects further jobs. Jobs already queued still run.
func (l *loop) stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
	l.signal()
}

func (l *loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		jobs := l.queue
		l.queue = nil
		stopped := l.stopped
		l.mu.Unlock()

		if len(jobs) == 0 {
			if stopped {
				return
			}
			<-l.wake
			continue
		}

		for _, job := range jobs {
			job()
		}
	}
}
