package ports

import "context"

// Limiter paces page fetches within one source's sync loop. Take blocks
// until the next fetch may proceed or ctx is done.
type Limiter interface {
	Take(ctx context.Context, source string) error
}
