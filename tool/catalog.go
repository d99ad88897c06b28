package tool

import (
	"context"
	"errors"
	"fmt"
)

// ErrToolsAndRetriever is returned when a catalog is configured with both a
// fixed tool list and a retriever.
var ErrToolsAndRetriever = errors.New("cannot specify both tools and tool_retriever")

// SourceKind tags where a Catalog takes its tools from.
type SourceKind int

const (
	// SourceNone resolves to an empty catalog.
	SourceNone SourceKind = iota
	// SourceFixed resolves to the same list on every call.
	SourceFixed
	// SourceRetriever asks a Retriever with the task input.
	SourceRetriever
)

func (k SourceKind) String() string {
	switch k {
	case SourceNone:
		return "none"
	case SourceFixed:
		return "fixed"
	case SourceRetriever:
		return "retriever"
	default:
		return "unknown"
	}
}

// Catalog resolves the tools visible to a step. Its source is fixed at
// construction time.
type Catalog struct {
	kind      SourceKind
	fixed     []AsyncTool
	retriever Retriever
}

// NewCatalog builds a catalog from at most one of tools and retriever.
func NewCatalog(tools []Tool, retriever Retriever) (*Catalog, error) {
	switch {
	case len(tools) > 0 && retriever != nil:
		return nil, ErrToolsAndRetriever
	case len(tools) > 0:
		return &Catalog{kind: SourceFixed, fixed: AdaptAll(tools)}, nil
	case retriever != nil:
		return &Catalog{kind: SourceRetriever, retriever: retriever}, nil
	default:
		return &Catalog{kind: SourceNone}, nil
	}
}

// Kind reports the configured source.
func (c *Catalog) Kind() SourceKind { return c.kind }

// Resolve returns the tools for the given task input, each adapted to the
// asynchronous call contract.
func (c *Catalog) Resolve(ctx context.Context, input string) ([]AsyncTool, error) {
	switch c.kind {
	case SourceFixed:
		return append([]AsyncTool(nil), c.fixed...), nil
	case SourceRetriever:
		tools, err := c.retriever.Retrieve(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("retrieve tools: %w", err)
		}
		return AdaptAll(tools), nil
	default:
		return []AsyncTool{}, nil
	}
}
