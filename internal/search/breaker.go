package search

import (
	"context"

	"github.com/ryanbastic/go-contentstore/internal/circuitbreaker"
)

// BreakerIndexer guards an Indexer with a circuit breaker. While the breaker
// is open, writes fail fast with circuitbreaker.ErrCircuitOpen.
type BreakerIndexer struct {
	next    Indexer
	breaker *circuitbreaker.Breaker
}

func NewBreakerIndexer(next Indexer, breaker *circuitbreaker.Breaker) *BreakerIndexer {
	return &BreakerIndexer{next: next, breaker: breaker}
}

func (b *BreakerIndexer) IndexElementFields(ctx context.Context, elementID, siteID int64, keywords map[int64]string) error {
	return b.breaker.Execute(func() error {
		return b.next.IndexElementFields(ctx, elementID, siteID, keywords)
	})
}

// Search delegates to the wrapped indexer when it is a Searcher. Reads do
// not count against the breaker.
func (b *BreakerIndexer) Search(ctx context.Context, q Query) ([]Hit, error) {
	s, ok := b.next.(Searcher)
	if !ok {
		return nil, ErrSearchUnsupported
	}
	return s.Search(ctx, q)
}

// Open reports whether index writes are currently being rejected.
func (b *BreakerIndexer) Open() bool {
	return b.breaker.GetState() == circuitbreaker.Open
}
