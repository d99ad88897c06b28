package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Retriever selects the tools relevant to a query text.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Tool, error)
}

// RetrieverFunc adapts a function to the Retriever interface.
type RetrieverFunc func(ctx context.Context, query string) ([]Tool, error)

// Retrieve implements Retriever.
func (f RetrieverFunc) Retrieve(ctx context.Context, query string) ([]Tool, error) {
	return f(ctx, query)
}

// CachedRetriever memoizes another Retriever by query text. The catalog is
// resolved on every step of a task with the same input, so repeated lookups
// hit the cache.
type CachedRetriever struct {
	next  Retriever
	cache *lru.Cache[string, []Tool]
}

// NewCachedRetriever wraps next with an LRU cache holding up to size queries.
func NewCachedRetriever(next Retriever, size int) (*CachedRetriever, error) {
	cache, err := lru.New[string, []Tool](size)
	if err != nil {
		return nil, fmt.Errorf("create retriever cache: %w", err)
	}

	return &CachedRetriever{next: next, cache: cache}, nil
}

// Retrieve implements Retriever. Errors are not cached.
func (c *CachedRetriever) Retrieve(ctx context.Context, query string) ([]Tool, error) {
	if tools, ok := c.cache.Get(query); ok {
		return append([]Tool(nil), tools...), nil
	}

	tools, err := c.next.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	c.cache.Add(query, append([]Tool(nil), tools...))

	return tools, nil
}

// Purge drops every cached entry.
func (c *CachedRetriever) Purge() { c.cache.Purge() }

// Len reports the number of cached queries.
func (c *CachedRetriever) Len() int { return c.cache.Len() }

// KeywordRetriever ranks tools by how many query words occur in their name
// or description and returns at most TopK of them. Tools without any match
// are omitted.
type KeywordRetriever struct {
	tools []Tool
	topK  int
}

// NewKeywordRetriever creates a KeywordRetriever; topK <= 0 means no limit.
func NewKeywordRetriever(tools []Tool, topK int) *KeywordRetriever {
	return &KeywordRetriever{tools: append([]Tool(nil), tools...), topK: topK}
}

// Retrieve implements Retriever.
func (k *KeywordRetriever) Retrieve(_ context.Context, query string) ([]Tool, error) {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_')
	})

	type scored struct {
		tool  Tool
		score int
	}

	var hits []scored

	for _, t := range k.tools {
		meta := t.Metadata()
		text := strings.ToLower(meta.Name + " " + strings.ReplaceAll(meta.Name, "_", " ") + " " + meta.Description)

		score := 0
		for _, w := range words {
			if len(w) > 2 && strings.Contains(text, w) {
				score++
			}
		}

		if score > 0 {
			hits = append(hits, scored{tool: t, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if k.topK > 0 && len(hits) > k.topK {
		hits = hits[:k.topK]
	}

	out := make([]Tool, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.tool)
	}

	return out, nil
}
