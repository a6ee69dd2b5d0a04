package interpreter

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/repository/store"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/service/notify"
)

// Worker consumes reading ids from a queue and fills in interpretations
// out-of-band from the originating request. Delivery is at-least-once: on
// start every PENDING reading is re-enqueued, and a periodic sweep picks up
// anything that was dropped (crash, full queue). Duplicate deliveries are
// harmless because completion is a status-guarded update.
type Worker struct {
	store    *store.Store
	svc      Service
	notifier notify.Notifier

	workers       int
	sweepInterval time.Duration
	staleAfter    time.Duration

	queue  chan string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool

	inFlightMu sync.Mutex
	inFlight   map[string]struct{}
}

type WorkerConfig struct {
	Workers       int
	QueueSize     int
	SweepInterval time.Duration
	StaleAfter    time.Duration
}

func NewWorker(st *store.Store, svc Service, notifier notify.Notifier, cfg WorkerConfig) *Worker {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 30 * time.Second
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		store:         st,
		svc:           svc,
		notifier:      notifier,
		workers:       cfg.Workers,
		sweepInterval: cfg.SweepInterval,
		staleAfter:    cfg.StaleAfter,
		queue:         make(chan string, cfg.QueueSize),
		ctx:           ctx,
		cancel:        cancel,
		inFlight:      make(map[string]struct{}),
	}
}

func (w *Worker) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	log.Printf("interpreter: started with %d workers", w.workers)
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
	go w.recoverPending(time.Now())
	w.wg.Add(1)
	go w.sweep()
}

func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
}

// Enqueue hands a reading to the worker. A full queue is not an error; the
// sweep will pick the reading up again.
func (w *Worker) Enqueue(readingID string) {
	select {
	case w.queue <- readingID:
	default:
		log.Printf("interpreter: queue full, reading %s deferred to sweep", readingID)
	}
}

func (w *Worker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case id := <-w.queue:
			w.process(id)
		}
	}
}

func (w *Worker) sweep() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.ctx.Done():
			return
		case now := <-ticker.C:
			w.recoverPending(now.Add(-w.staleAfter))
		}
	}
}

func (w *Worker) recoverPending(before time.Time) {
	ids, err := w.store.PendingReadingIDs(w.ctx, before)
	if err != nil {
		log.Printf("interpreter: listing pending readings: %v", err)
		return
	}
	for _, id := range ids {
		w.Enqueue(id)
	}
	if len(ids) > 0 {
		log.Printf("interpreter: re-enqueued %d pending readings", len(ids))
	}
}

func (w *Worker) process(id string) {
	w.inFlightMu.Lock()
	if _, busy := w.inFlight[id]; busy {
		w.inFlightMu.Unlock()
		return
	}
	w.inFlight[id] = struct{}{}
	w.inFlightMu.Unlock()
	defer func() {
		w.inFlightMu.Lock()
		delete(w.inFlight, id)
		w.inFlightMu.Unlock()
	}()

	reading, err := w.store.GetReading(w.ctx, id)
	if err != nil {
		log.Printf("interpreter: loading reading %s: %v", id, err)
		return
	}
	// Terminal readings keep their stored text; never pay for a second
	// interpretation of the same reading.
	if reading.Status != domain.ReadingPending {
		return
	}

	cards := make([]CardView, 0, len(reading.Cards))
	for _, c := range reading.Cards {
		cards = append(cards, ViewFromDrawn(c))
	}

	text, err := w.svc.Interpret(w.ctx, cards, reading.Question, reading.Language)
	if err != nil {
		log.Printf("interpreter: reading %s failed: %v", id, err)
		if ferr := w.store.FailReading(w.ctx, id); ferr != nil {
			log.Printf("interpreter: marking reading %s failed: %v", id, ferr)
		}
		return
	}

	if err := w.store.CompleteReading(w.ctx, id, text, w.svc.Model(), time.Now()); err != nil {
		log.Printf("interpreter: completing reading %s: %v", id, err)
		return
	}
	if err := w.notifier.SendReadingReady(w.ctx, reading.UserEmail, id); err != nil {
		log.Printf("interpreter: reading-ready notification for %s: %v", id, err)
	}
}
