package buffer

import "sync"

// Chunk is a pooled block of samples tagged with its stream position.
type Chunk struct {
	Seq     uint64
	Samples []int16
}

// ChunkPool provides sync.Pool-based reuse of fixed-length chunks to reduce
// GC pressure in real-time processing loops.
type ChunkPool struct {
	length int
	pool   sync.Pool
}

// NewChunkPool returns a pool of chunks holding length samples each.
func NewChunkPool(length int) *ChunkPool {
	if length < 0 {
		length = 0
	}

	p := &ChunkPool{length: length}
	p.pool.New = func() any {
		return &Chunk{Samples: make([]int16, length)}
	}

	return p
}

// Length returns the chunk length served by the pool.
func (p *ChunkPool) Length() int { return p.length }

// Get returns a zeroed chunk. Callers must return it via Put when done.
func (p *ChunkPool) Get() *Chunk {
	c := p.pool.Get().(*Chunk)
	c.Seq = 0
	clear(c.Samples)

	return c
}

// Put returns a chunk to the pool. Chunks of a different length are
// dropped. The caller must not use the chunk after calling Put.
func (p *ChunkPool) Put(c *Chunk) {
	if c == nil || len(c.Samples) != p.length {
		return
	}

	p.pool.Put(c)
}
