// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package recommend

import (
	"context"
	"sync"
)

// runBlocks partitions [0, n) into consecutive blocks of blockSize rows and
// hands them to a pool of workers. fn must only write output rows in
// [lo, hi). The context is checked before each block is dispatched, so a
// cancelled run stops at the next block boundary.
func runBlocks(ctx context.Context, n, blockSize, workers int, fn func(lo, hi int)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if blockSize < 1 {
		blockSize = 1
	}
	numBlocks := (n + blockSize - 1) / blockSize
	if workers > numBlocks {
		workers = numBlocks
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				lo := b * blockSize
				fn(lo, min(lo+blockSize, n))
			}
		}()
	}

	var err error
dispatch:
	for b := 0; b < numBlocks; b++ {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case jobs <- b:
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	return err
}
