package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Reply is one scripted outcome of a Complete call.
type Reply struct {
	Text string
	Err  error
}

// Text is a scripted successful reply.
func Text(s string) Reply { return Reply{Text: s} }

// Fail is a scripted failing reply.
func Fail(err error) Reply { return Reply{Err: err} }

// ScriptedClient replays a fixed list of replies and records every request.
// Once the script is exhausted it answers with Fallback, or ErrGeneration
// when no fallback is set.
type ScriptedClient struct {
	mu       sync.Mutex
	replies  []Reply
	calls    []Request
	Fallback string
}

var _ Client = (*ScriptedClient)(nil)

// NewScriptedClient creates a client that replays replies in order.
func NewScriptedClient(replies ...Reply) *ScriptedClient {
	return &ScriptedClient{replies: replies}
}

// Complete records req and returns the next scripted reply.
func (c *ScriptedClient) Complete(ctx context.Context, req Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, req)
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(c.replies) == 0 {
		if c.Fallback != "" {
			return c.Fallback, nil
		}
		return "", fmt.Errorf("%w: script exhausted", ErrGeneration)
	}
	next := c.replies[0]
	c.replies = c.replies[1:]
	return next.Text, next.Err
}

// Push appends replies to the script.
func (c *ScriptedClient) Push(replies ...Reply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, replies...)
}

// Calls returns a copy of every request seen so far.
func (c *ScriptedClient) Calls() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Request(nil), c.calls...)
}

// CallCount returns how many requests were made.
func (c *ScriptedClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}
