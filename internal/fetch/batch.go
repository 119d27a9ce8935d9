package fetch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one fetch in a batch
type Result struct {
	Locator string
	Content string
	Err     error
	Took    time.Duration
}

// OK reports whether the fetch succeeded
func (r Result) OK() bool {
	return r.Err == nil
}

// All fetches every locator concurrently and waits for all of them.
//
// The join is all-or-nothing: if any fetch fails, contents is nil and err is
// the first failure. Results always has one entry per locator, in input
// order, so callers can still see which items failed.
func All(ctx context.Context, f Fetcher, locators []string) (contents []string, results []Result, err error) {
	results = make([]Result, len(locators))

	var g errgroup.Group
	for i, loc := range locators {
		g.Go(func() error {
			start := time.Now()
			text, err := f.Fetch(ctx, loc)
			results[i] = Result{
				Locator: loc,
				Content: text,
				Err:     err,
				Took:    time.Since(start),
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, results, err
	}

	contents = make([]string, len(results))
	for i, r := range results {
		contents[i] = r.Content
	}
	return contents, results, nil
}
