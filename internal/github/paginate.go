package github

import (
	"context"
	"net/http"

	"github.com/google/go-github/v81/github"
)

// PageSize is the fixed per_page value for every paginated list call.
const PageSize = 100

// PageFunc fetches one page of a list resource. Pages are 1-based.
type PageFunc[T any] func(ctx context.Context, page int) ([]T, *github.Response, error)

// All collects every item of a paginated list resource.
//
// Pages are fetched strictly sequentially; the remote's pagination is stateful
// and offers no trustworthy total count, so end-of-data is the first empty
// page. On error All returns the items accumulated so far together with the
// error; callers decide whether partial data is usable.
func All[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	var items []T
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return items, err
		}
		batch, _, err := fetch(ctx, page)
		if err != nil {
			return items, err
		}
		if len(batch) == 0 {
			return items, nil
		}
		items = append(items, batch...)
	}
}

// Resp unwraps the http.Response behind a go-github response, tolerating nil.
func Resp(r *github.Response) *http.Response {
	if r == nil {
		return nil
	}
	return r.Response
}
