package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"vecindex/internal/adapter/checksum"
	"vecindex/internal/domain"
	"vecindex/internal/port"
)

const maxBackoff = 8 * time.Second

// PipelineParams wires the ports an indexing run needs.
type PipelineParams struct {
	Source     port.Source
	Extractor  port.Extractor
	Chunker    port.Chunker
	Embedder   port.Embedder
	Index      port.VectorIndex
	Checksums  port.ChecksumStore
	Collection string
	Workers    int
	MaxRetries int
	Backoff    time.Duration

	// OnProgress, when set, receives every terminal per-document outcome
	// as it happens. Called from worker goroutines.
	OnProgress func(domain.DocOutcome)
}

// Pipeline runs documents through extract, chunk, embed and upsert.
// Each document is processed in isolation: one failure never aborts the
// run, and a document's checksum is committed only after every one of
// its chunks is in the index.
type Pipeline struct {
	params PipelineParams

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	claimed map[domain.Fingerprint]bool
}

func NewPipeline(params PipelineParams) *Pipeline {
	if params.Workers <= 0 {
		params.Workers = 4
	}
	if params.MaxRetries < 0 {
		params.MaxRetries = 0
	}
	if params.Backoff <= 0 {
		params.Backoff = 500 * time.Millisecond
	}
	return &Pipeline{
		params:  params,
		sleep:   sleepCtx,
		claimed: make(map[domain.Fingerprint]bool),
	}
}

// Run executes one full indexing pass and returns its summary. Fatal
// setup errors (unreachable index, dimension conflict) abort before any
// document is touched.
func (p *Pipeline) Run(ctx context.Context) (domain.RunSummary, error) {
	var summary domain.RunSummary

	err := p.params.Index.EnsureCollection(ctx, p.params.Collection, p.params.Embedder.Dimension())
	if err != nil {
		return summary, fmt.Errorf("failed to ensure collection %q: %w", p.params.Collection, err)
	}

	docs, err := p.params.Source.Discover(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to discover documents: %w", err)
	}

	outcomes := make([]domain.DocOutcome, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.params.Workers)

	for i, doc := range docs {
		i, doc := i, doc
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome := p.processDocument(gctx, doc)
			outcomes[i] = outcome
			if p.params.OnProgress != nil {
				p.params.OnProgress(outcome)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	for _, outcome := range outcomes {
		if outcome.DocID == "" {
			continue // slot never dispatched, run was cancelled
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
		switch outcome.State {
		case domain.StateCommitted:
			summary.Indexed++
			summary.Chunks += outcome.Chunks
		case domain.StateSkippedDuplicate:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	return summary, ctx.Err()
}

func (p *Pipeline) processDocument(ctx context.Context, doc domain.Document) domain.DocOutcome {
	outcome := domain.DocOutcome{DocID: doc.ID, Name: doc.Name}

	fail := func(err error) domain.DocOutcome {
		outcome.State = domain.StateFailed
		outcome.Err = err.Error()
		return outcome
	}

	fp := checksum.Compute(doc.Raw)

	if dup, err := p.claim(fp); err != nil {
		return fail(fmt.Errorf("checksum lookup: %w", err))
	} else if dup {
		outcome.State = domain.StateSkippedDuplicate
		return outcome
	}

	text, err := p.params.Extractor.Extract(ctx, doc)
	if err != nil {
		p.release(fp)
		return fail(fmt.Errorf("extract: %w", err))
	}
	if strings.TrimSpace(text) == "" {
		p.release(fp)
		return fail(fmt.Errorf("extract: document %s produced no text", doc.ID))
	}

	chunks := p.params.Chunker.Chunk(doc.ID, text)
	chunks = dropBlankChunks(chunks)
	if len(chunks) == 0 {
		p.release(fp)
		return fail(fmt.Errorf("chunk: document %s produced no chunks", doc.ID))
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	var vectors [][]float32
	err = p.withRetry(ctx, func() error {
		var embedErr error
		vectors, embedErr = p.params.Embedder.Embed(ctx, texts)
		return embedErr
	})
	if err != nil {
		p.release(fp)
		return fail(fmt.Errorf("embed: %w", err))
	}
	if len(vectors) != len(chunks) {
		p.release(fp)
		return fail(fmt.Errorf("embed: got %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	records := make([]domain.IndexRecord, len(chunks))
	for i, ch := range chunks {
		records[i] = domain.IndexRecord{
			DocID:    ch.DocID,
			Ordinal:  ch.Ordinal,
			Vector:   vectors[i],
			Text:     ch.Text,
			Start:    ch.Start,
			End:      ch.End,
			Provider: p.params.Embedder.ProviderName(),
			Model:    p.params.Embedder.ModelName(),
			Source:   doc.Name,
		}
	}

	// A record under the same DocID with a different fingerprint means
	// the content changed. Drop the old points and record first, so a
	// version that re-chunks shorter leaves no stale ordinals behind.
	// Losing the old record before the new commit is safe: a crash in
	// between just means the document reprocesses on the next run.
	if stale, err := p.hasPriorVersion(doc.ID); err != nil {
		p.release(fp)
		return fail(fmt.Errorf("checksum lookup: %w", err))
	} else if stale {
		err = p.withRetry(ctx, func() error {
			return p.params.Index.Delete(ctx, p.params.Collection, doc.ID)
		})
		if err != nil {
			p.release(fp)
			return fail(fmt.Errorf("drop superseded points: %w", err))
		}
		if _, err := p.params.Checksums.DeleteByDoc(doc.ID); err != nil {
			p.release(fp)
			return fail(fmt.Errorf("drop superseded checksum: %w", err))
		}
	}

	err = p.withRetry(ctx, func() error {
		return p.params.Index.Upsert(ctx, p.params.Collection, records)
	})
	if err != nil {
		// No checksum commit: the next run reprocesses this document and
		// the deterministic keys overwrite whatever partial state landed.
		p.release(fp)
		return fail(fmt.Errorf("upsert: %w", err))
	}

	rec := domain.ChecksumRecord{
		DocID:      doc.ID,
		IndexedAt:  time.Now().UTC(),
		ChunkCount: len(chunks),
	}
	if err := p.params.Checksums.Put(fp, rec); err != nil {
		p.release(fp)
		return fail(fmt.Errorf("commit checksum: %w", err))
	}

	outcome.State = domain.StateCommitted
	outcome.Chunks = len(chunks)
	return outcome
}

// claim marks a fingerprint as in flight so two identical documents in
// the same run cannot both index. Returns true when the fingerprint is
// already indexed or claimed by a concurrent worker.
func (p *Pipeline) claim(fp domain.Fingerprint) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.claimed[fp] {
		return true, nil
	}
	has, err := p.params.Checksums.Has(fp)
	if err != nil {
		return false, err
	}
	if has {
		return true, nil
	}
	p.claimed[fp] = true
	return false, nil
}

// hasPriorVersion reports whether the store holds a record for the
// document under any fingerprint. The current fingerprint cannot be
// among them: claim already skipped that case.
func (p *Pipeline) hasPriorVersion(docID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	records, err := p.params.Checksums.List()
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if rec.DocID == docID {
			return true, nil
		}
	}
	return false, nil
}

func (p *Pipeline) release(fp domain.Fingerprint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.claimed, fp)
}

// withRetry retries fn on transient errors with exponential backoff.
// Fatal and permanent errors return immediately.
func (p *Pipeline) withRetry(ctx context.Context, fn func() error) error {
	var err error
	backoff := p.params.Backoff

	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !domain.Retryable(err) || attempt >= p.params.MaxRetries {
			return err
		}
		if sleepErr := p.sleep(ctx, backoff); sleepErr != nil {
			return err
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// dropBlankChunks removes whitespace-only chunks, which every embedding
// provider rejects. Surviving chunks keep their original ordinals.
func dropBlankChunks(chunks []domain.TextChunk) []domain.TextChunk {
	kept := chunks[:0]
	for _, ch := range chunks {
		if strings.TrimSpace(ch.Text) != "" {
			kept = append(kept, ch)
		}
	}
	return kept
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
