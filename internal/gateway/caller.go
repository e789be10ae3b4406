package gateway

import "context"

// Caller is the part of Client the repositories depend on.
type Caller interface {
	Call(ctx context.Context, method, path string, body, out any) error
	CallAnonymous(ctx context.Context, method, path string, body, out any) error
}

var _ Caller = (*Client)(nil)
