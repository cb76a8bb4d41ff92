package activity

import "context"

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	// List returns entries newest first together with the unpaged total.
	List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error)
}
