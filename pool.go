package glyphraster

import (
	"github.com/gogpu/glyphraster/internal/parallel"
)

// GlyphRequest names one glyph to rasterize in a batch.
type GlyphRequest struct {
	Instance *FontInstance
	Key      GlyphKey
}

// GlyphResult is the outcome of one GlyphRequest.
type GlyphResult struct {
	Glyph *RasterizedGlyph
	Err   error
}

// Pool shards rasterization across worker goroutines, each owning one
// FontContext. Font registration and deletion are applied to every worker's
// context before any later batch runs.
//
// Pool methods are safe for concurrent use.
type Pool struct {
	workers  *parallel.WorkerPool
	contexts []*FontContext
}

// NewPool starts a pool with the given number of workers (GOMAXPROCS when
// workers <= 0). The options are applied to every worker's context, so
// WithBackendInstance must not be used here.
func NewPool(workers int, opts ...Option) (*Pool, error) {
	wp := parallel.NewWorkerPool(workers)
	contexts := make([]*FontContext, wp.Workers())
	for i := range contexts {
		ctx, err := NewFontContext(opts...)
		if err != nil {
			wp.Close()
			return nil, err
		}
		contexts[i] = ctx
	}
	return &Pool{workers: wp, contexts: contexts}, nil
}

// Workers returns the number of worker contexts.
func (p *Pool) Workers() int { return len(p.contexts) }

// AddRawFont registers font bytes in every worker's context.
func (p *Pool) AddRawFont(key FontKey, data []byte, index uint32) {
	p.workers.Broadcast(func(w int) { p.contexts[w].AddRawFont(key, data, index) })
}

// AddNativeFont registers a platform font handle in every worker's context.
func (p *Pool) AddNativeFont(key FontKey, handle NativeFontHandle) {
	p.workers.Broadcast(func(w int) { p.contexts[w].AddNativeFont(key, handle) })
}

// DeleteFont drops the font from every worker's context.
func (p *Pool) DeleteFont(key FontKey) {
	p.workers.Broadcast(func(w int) { p.contexts[w].DeleteFont(key) })
}

// DeleteFontInstance drops the instance's cached images in every worker.
func (p *Pool) DeleteFontInstance(instance *FontInstance) {
	inst := *instance
	p.workers.Broadcast(func(w int) { p.contexts[w].DeleteFontInstance(&inst) })
}

// Rasterize renders a batch in parallel. Results are in request order.
func (p *Pool) Rasterize(reqs []GlyphRequest) []GlyphResult {
	results := make([]GlyphResult, len(reqs))
	tasks := make([]parallel.Task, len(reqs))
	for i, req := range reqs {
		tasks[i] = func(w int) {
			g, err := p.contexts[w].RasterizeGlyph(req.Instance, req.Key)
			results[i] = GlyphResult{Glyph: g, Err: err}
		}
	}
	p.workers.ExecuteAll(tasks)
	return results
}

// Close releases every context's fonts and stops the workers.
func (p *Pool) Close() {
	p.workers.Broadcast(func(w int) { p.contexts[w].Close() })
	p.workers.Close()
}
