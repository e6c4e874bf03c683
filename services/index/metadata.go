package index

import "context"

// StateStore persists the progress of refresh requests and can drop every
// fetched document.
type StateStore interface {
	SetRequestStatus(ctx context.Context, requestID string, status int) error
	GetRequestStatus(ctx context.Context, requestID string) (int, error)
	Clear(ctx context.Context) error
}
