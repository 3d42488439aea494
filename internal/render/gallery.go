package render

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"zomato-dashboard/internal/models"
)

// Gallery renders every chart concurrently. Charts without data are left
// out of the result.
func Gallery(ctx context.Context, d *models.DashboardData) (map[string][]byte, error) {
	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	out := make(map[string][]byte, len(charts))

	for _, name := range Names() {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			err := Render(name, d, &buf)
			if errors.Is(err, ErrNoData) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			out[name] = buf.Bytes()
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
