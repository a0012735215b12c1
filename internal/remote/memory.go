package remote

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"sync"
)

// MemoryClient is an in-process Client. Item ids are assigned sequentially
// as integers, like a list store does.
type MemoryClient struct {
	mu       sync.Mutex
	items    map[CollectionRef][]Record
	resolved map[CollectionRef]bool
	nextID   int
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		items:    make(map[CollectionRef][]Record),
		resolved: make(map[CollectionRef]bool),
		nextID:   1,
	}
}

// MemoryFactory returns a Factory that always hands out c.
func MemoryFactory(c *MemoryClient) Factory {
	return func(string) (Client, error) { return c, nil }
}

// Seed appends records to ref as they are, without assigning ids.
func (c *MemoryClient) Seed(ref CollectionRef, records ...Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range records {
		c.items[ref] = append(c.items[ref], maps.Clone(r))
	}
}

func (c *MemoryClient) Resolve(_ context.Context, refs ...CollectionRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ref := range refs {
		c.resolved[ref] = true
	}
	return nil
}

func (c *MemoryClient) List(ctx context.Context, ref CollectionRef) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.resolved[ref] {
		return nil, fmt.Errorf("%w: %s", ErrNotResolved, ref)
	}
	out := make([]Record, 0, len(c.items[ref]))
	for _, r := range c.items[ref] {
		out = append(out, maps.Clone(r))
	}
	return out, nil
}

func (c *MemoryClient) Create(ctx context.Context, ref CollectionRef, fields Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.resolved[ref] {
		return nil, fmt.Errorf("%w: %s", ErrNotResolved, ref)
	}
	r := maps.Clone(fields)
	if r == nil {
		r = Record{}
	}
	r["id"] = strconv.Itoa(c.nextID)
	c.nextID++
	c.items[ref] = append(c.items[ref], r)
	return maps.Clone(r), nil
}

func (c *MemoryClient) Update(ctx context.Context, ref CollectionRef, id string, fields Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(ref, id)
	if i < 0 {
		return &HTTPError{StatusCode: 404, Code: "itemNotFound", Message: id}
	}
	for k, v := range fields {
		c.items[ref][i][k] = v
	}
	return nil
}

func (c *MemoryClient) Delete(ctx context.Context, ref CollectionRef, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(ref, id)
	if i < 0 {
		return &HTTPError{StatusCode: 404, Code: "itemNotFound", Message: id}
	}
	c.items[ref] = append(c.items[ref][:i], c.items[ref][i+1:]...)
	return nil
}

func (c *MemoryClient) index(ref CollectionRef, id string) int {
	for i, r := range c.items[ref] {
		if fmt.Sprint(r["id"]) == id {
			return i
		}
	}
	return -1
}
