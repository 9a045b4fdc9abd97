package job

import (
	"sync"
	"time"
)

// Scheduler runs task every interval until the returned cancel is called.
type Scheduler interface {
	Every(interval time.Duration, task func()) (cancel func())
}

// TickerScheduler runs tasks from a time.Ticker goroutine. Ticks that arrive
// while a task is still running are dropped.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, task func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				task()
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// ManualScheduler fires tasks only when Tick is called.
type ManualScheduler struct {
	mu     sync.Mutex
	nextID int
	tasks  map[int]scheduled
}

type scheduled struct {
	interval time.Duration
	task     func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{tasks: make(map[int]scheduled)}
}

func (m *ManualScheduler) Every(interval time.Duration, task func()) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.tasks[id] = scheduled{interval: interval, task: task}
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.tasks, id)
		m.mu.Unlock()
	}
}

// Tick runs every registered task once, synchronously.
func (m *ManualScheduler) Tick() {
	m.mu.Lock()
	tasks := make([]func(), 0, len(m.tasks))
	for _, s := range m.tasks {
		tasks = append(tasks, s.task)
	}
	m.mu.Unlock()
	for _, task := range tasks {
		task()
	}
}

// Active returns the number of registered tasks.
func (m *ManualScheduler) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Intervals returns the registered intervals in no particular order.
func (m *ManualScheduler) Intervals() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, 0, len(m.tasks))
	for _, s := range m.tasks {
		out = append(out, s.interval)
	}
	return out
}
