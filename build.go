package concord

// CollectionOf populates a collection from construction items, in order.
// Each item is coerced to a middleware first: Middleware values pass through
// unchanged, handler-shaped functions are adapted with AsMiddleware, and
// anything else fails with ErrNotMiddleware. The populated collection is
// returned.
//
// Example:
//
//	chain, err := concord.CollectionOf(concord.NewChain("inbound"),
//	    authMiddleware,
//	    func(ctx context.Context, ec *concord.Context, args concord.Args, next concord.Next) (any, error) {
//	        return next(ctx, ec, args)
//	    },
//	)
func CollectionOf[C Collection](collection C, items ...any) (C, error) {
	for _, item := range items {
		mw, err := coerce(item)
		if err != nil {
			return collection, err
		}
		if _, err := collection.Add(mw); err != nil {
			return collection, err
		}
	}
	return collection, nil
}

// ChainOf creates a new chain of the given items, coercing plain handler
// functions into middleware.
func ChainOf(name Name, items ...any) (*Chain, error) {
	return CollectionOf(NewChain(name), items...)
}

// FirstOf creates a new first-success group of the given items, coercing
// plain handler functions into middleware.
func FirstOf(name Name, items ...any) (*First, error) {
	return CollectionOf(NewFirst(name), items...)
}

// AllOf creates a new collect-all group of the given items, coercing plain
// handler functions into middleware.
func AllOf(name Name, items ...any) (*All, error) {
	return CollectionOf(NewAll(name), items...)
}

// ChainBuilder grows a single chain by wrapping an inner target with
// successive outer middleware. It replaces decorator stacking: each Prepend
// call appends its middleware to the chain's storage, which by Chain's
// composition order makes it the new outermost wrapper. The last Prepend -
// the analogue of the topmost decorator - is entered first at run time.
//
// Construction and coercion errors are accumulated; the first one surfaces
// from Chain and every later call is a no-op, so call sites can build
// fluently and check once.
type ChainBuilder struct {
	chain *Chain
	err   error
}

// BuildChain starts a builder around an inner target. When inner is already
// a *Chain, that same instance is grown and name is ignored; otherwise a
// new chain named name is created with the coerced inner as its first
// member.
func BuildChain(name Name, inner any) *ChainBuilder {
	if chain, ok := inner.(*Chain); ok {
		return &ChainBuilder{chain: chain}
	}
	mw, err := coerce(inner)
	if err != nil {
		return &ChainBuilder{err: err}
	}
	chain := NewChain(name)
	if _, err := chain.Add(mw); err != nil {
		return &ChainBuilder{err: err}
	}
	return &ChainBuilder{chain: chain}
}

// Prepend wraps the chain built so far with outer, making it the outermost
// member. The item is coerced like a CollectionOf item.
func (b *ChainBuilder) Prepend(outer any) *ChainBuilder {
	if b.err != nil {
		return b
	}
	mw, err := coerce(outer)
	if err != nil {
		b.err = err
		return b
	}
	_, b.err = b.chain.Add(mw)
	return b
}

// Chain finalizes the builder, returning the built chain or the first error
// encountered.
func (b *ChainBuilder) Chain() (*Chain, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.chain, nil
}
