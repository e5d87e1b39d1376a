package eventlog

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	BufferSize             = 1024                  // circular buffer size
	MaxEventsPerSec        = 10000                 // global rate limit
	MaxEventsPerCharacter  = 100                   // per-character rate limit per second
	BatchFlushSize         = 64                    // events per batch write
	BatchFlushInterval     = 100 * time.Millisecond // how often to flush
	LimiterCleanupInterval = 5 * time.Minute        // cleanup interval for per-character limiters
)

// Log is a bounded, rate-limited, async-flushed append-only event log.
// Grounded on the teacher's EventLog: a lock-free SPSC circular buffer fed
// by Emit, drained by a periodic writer goroutine, with global and
// per-character rate limiting as backpressure against a runaway character
// (e.g. a full-auto weapon emitting a hit event per tick) flooding disk I/O.
type Log struct {
	buffer    [BufferSize]Event
	writeHead uint64 // atomic, producer position
	readHead  uint64 // atomic, consumer position

	globalLimiter *rate.Limiter
	perCharacter  sync.Map // map[string]*limiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount uint64 // atomic
	totalCount   uint64 // atomic
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// New returns an unstarted Log.
func New() *Log {
	return &Log{
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start opens filePath (if non-empty) for append and begins the async
// writer and cleanup goroutines. A no-op if already running.
func (l *Log) Start(filePath string) error {
	if l.running.Load() {
		return nil
	}
	l.filePath = filePath

	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		l.file = file
	}

	l.running.Store(true)
	l.writerWg.Add(2)
	go l.writerLoop()
	go l.cleanupLoop()
	return nil
}

// Stop flushes any remaining buffered events and closes the output file.
func (l *Log) Stop() {
	l.stopOnce.Do(func() {
		l.running.Store(false)
		close(l.stopChan)
		l.writerWg.Wait()

		l.fileMu.Lock()
		if l.file != nil {
			l.file.Close()
		}
		l.fileMu.Unlock()
	})
}

// Emit appends event to the buffer, subject to rate limiting. Returns
// false if the event was dropped (not running or rate limited). When the
// buffer is full the oldest unflushed event is evicted and counted as
// dropped; the new event is still accepted and Emit returns true.
func (l *Log) Emit(event Event) bool {
	if !l.running.Load() {
		return false
	}
	if !l.globalLimiter.Allow() {
		atomic.AddUint64(&l.droppedCount, 1)
		return false
	}
	if event.CharacterID != "" {
		if !l.limiterFor(event.CharacterID).Allow() {
			atomic.AddUint64(&l.droppedCount, 1)
			return false
		}
	}

	head := atomic.AddUint64(&l.writeHead, 1)
	tail := atomic.LoadUint64(&l.readHead)
	if head-tail >= BufferSize {
		atomic.AddUint64(&l.readHead, 1)
		atomic.AddUint64(&l.droppedCount, 1)
	}

	event.Sequence = head
	l.buffer[head%BufferSize] = event
	atomic.AddUint64(&l.totalCount, 1)
	return true
}

// EmitSimple builds and emits an event in one call.
func (l *Log) EmitSimple(t Type, tick uint64, characterID int64, payload interface{}) bool {
	return l.Emit(NewEvent(t, tick, characterID, payload))
}

func (l *Log) limiterFor(characterID string) *rate.Limiter {
	if entry, ok := l.perCharacter.Load(characterID); ok {
		e := entry.(*limiterEntry)
		e.lastUsed = time.Now()
		return e.limiter
	}
	entry := &limiterEntry{
		limiter:  rate.NewLimiter(MaxEventsPerCharacter, MaxEventsPerCharacter/10),
		lastUsed: time.Now(),
	}
	actual, _ := l.perCharacter.LoadOrStore(characterID, entry)
	return actual.(*limiterEntry).limiter
}

func (l *Log) writerLoop() {
	defer l.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)
	for {
		select {
		case <-l.stopChan:
			batch = l.collectBatch(batch[:0])
			if len(batch) > 0 {
				l.flushBatch(batch)
			}
			return
		case <-ticker.C:
			batch = l.collectBatch(batch[:0])
			if len(batch) > 0 {
				l.flushBatch(batch)
			}
		}
	}
}

func (l *Log) cleanupLoop() {
	defer l.writerWg.Done()

	ticker := time.NewTicker(LimiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.cleanupLimiters()
		}
	}
}

func (l *Log) cleanupLimiters() {
	cutoff := time.Now().Add(-LimiterCleanupInterval)
	l.perCharacter.Range(func(key, value interface{}) bool {
		if value.(*limiterEntry).lastUsed.Before(cutoff) {
			l.perCharacter.Delete(key)
		}
		return true
	})
}

func (l *Log) collectBatch(batch []Event) []Event {
	head := atomic.LoadUint64(&l.writeHead)
	tail := atomic.LoadUint64(&l.readHead)

	for i := tail; i < head && len(batch) < BatchFlushSize; i++ {
		batch = append(batch, l.buffer[i%BufferSize])
	}
	if len(batch) > 0 {
		atomic.AddUint64(&l.readHead, uint64(len(batch)))
	}
	return batch
}

func (l *Log) flushBatch(batch []Event) {
	l.fileMu.Lock()
	defer l.fileMu.Unlock()

	if l.file == nil {
		return
	}
	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		l.file.Write(data)
		l.file.Write([]byte("\n"))
	}
}

// Stats reports counters useful for monitoring and tests.
type Stats struct {
	Total   uint64
	Dropped uint64
	Pending uint64
	Running bool
}

// GetStats returns a snapshot of the log's counters.
func (l *Log) GetStats() Stats {
	head := atomic.LoadUint64(&l.writeHead)
	tail := atomic.LoadUint64(&l.readHead)
	return Stats{
		Total:   atomic.LoadUint64(&l.totalCount),
		Dropped: atomic.LoadUint64(&l.droppedCount),
		Pending: head - tail,
		Running: l.running.Load(),
	}
}
