package catalog

import (
	"context"
	"sync"
	"time"

	"rrnagar-backend/internal/translate"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type TranslationWriter interface {
	UpdateTranslations(ctx context.Context, id uint, title, description string) error
}

// ProductText is the part of a product the enricher translates. It is copied
// out of the request so the task never touches request-scoped memory.
type ProductText struct {
	ID          uint
	Title       string
	Description string
}

// QueueSize bounds the number of products waiting for a free translation
// worker.
const QueueSize = 512

// Enricher fills in the regional-language copy of new products in the
// background. Enqueue never blocks: tasks wait in a bounded queue and are
// dropped only when it is full or the enricher is closed.
type Enricher struct {
	pool       *ants.Pool
	queue      chan ProductText
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
	translator translate.Translator
	writer     TranslationWriter
	target     string
}

func NewEnricher(workers int, translator translate.Translator, writer TranslationWriter, target string) (*Enricher, error) {
	return newEnricher(workers, QueueSize, translator, writer, target)
}

func newEnricher(workers, queueSize int, translator translate.Translator, writer TranslationWriter, target string) (*Enricher, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p interface{}) {
			zap.S().Errorf("translation worker panicked: %v", p)
		}),
	)
	if err != nil {
		return nil, err
	}
	e := &Enricher{
		pool:       pool,
		queue:      make(chan ProductText, queueSize),
		translator: translator,
		writer:     writer,
		target:     target,
	}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		if err := pool.Submit(e.drain); err != nil {
			e.wg.Done()
			close(e.queue)
			pool.Release()
			return nil, errors.Wrap(err, "start translation worker")
		}
	}
	return e, nil
}

func (e *Enricher) Enqueue(p ProductText) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		zap.L().Warn("translation task dropped", zap.Uint("product_id", p.ID), zap.String("reason", "closed"))
		return
	}
	select {
	case e.queue <- p:
	default:
		zap.L().Warn("translation task dropped", zap.Uint("product_id", p.ID), zap.String("reason", "queue full"))
	}
}

func (e *Enricher) drain() {
	defer e.wg.Done()
	for p := range e.queue {
		e.run(p)
	}
}

func (e *Enricher) run(p ProductText) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Errorf("translation task for product %d panicked: %v", p.ID, r)
		}
	}()
	e.enrich(context.Background(), p)
}

func (e *Enricher) enrich(ctx context.Context, p ProductText) {
	var title, description string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		title, err = e.translator.Translate(gctx, p.Title, e.target)
		return err
	})
	if p.Description != "" {
		g.Go(func() error {
			var err error
			description, err = e.translator.Translate(gctx, p.Description, e.target)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		zap.L().Debug("product translation skipped", zap.Uint("product_id", p.ID), zap.Error(err))
		return
	}

	if err := e.writer.UpdateTranslations(ctx, p.ID, title, description); err != nil {
		zap.L().Debug("product translation not saved", zap.Uint("product_id", p.ID), zap.Error(err))
	}
}

// Close stops accepting tasks and waits up to timeout for the queue to drain,
// then releases the pool.
func (e *Enricher) Close(timeout time.Duration) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	deadline := time.Now().Add(timeout)
	select {
	case <-done:
	case <-time.After(timeout):
		e.pool.Release()
		return errors.Errorf("translation queue not drained within %s", timeout)
	}
	return e.pool.ReleaseTimeout(time.Until(deadline))
}
