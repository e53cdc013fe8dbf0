// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheHit(t *testing.T) {
	c := NewCache(4)
	first, err := c.Parse(twoUniforms)
	require.NoError(t, err)
	second, err := c.Parse(twoUniforms)
	require.NoError(t, err)

	assert.Same(t, first, second)
	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestCacheSkipsFailures(t *testing.T) {
	c := NewCache(4)
	_, err := c.Parse("@vertex fn (")
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	_, err = c.Parse("@vertex fn (")
	require.Error(t, err)
	_, misses := c.Stats()
	assert.Equal(t, uint64(2), misses)
}

func fragment(i int) string {
	return fmt.Sprintf("@fragment fn f%d() {}", i)
}

func TestCacheEvictsLeastRecent(t *testing.T) {
	c := NewCache(4)
	for i := range 4 {
		_, err := c.Parse(fragment(i))
		require.NoError(t, err)
	}
	// Touch 0 so it survives.
	_, err := c.Parse(fragment(0))
	require.NoError(t, err)

	_, err = c.Parse(fragment(4))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	hitsBefore, _ := c.Stats()
	_, err = c.Parse(fragment(0))
	require.NoError(t, err)
	hits, _ := c.Stats()
	assert.Equal(t, hitsBefore+1, hits)
}

func TestCacheUnlimitedAndClear(t *testing.T) {
	c := NewCache(0)
	for i := range 10 {
		_, err := c.Parse(fragment(i))
		require.NoError(t, err)
	}
	assert.Equal(t, 10, c.Len())
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestCacheConcurrent(t *testing.T) {
	c := NewCache(2)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Parse(fragment(i % 3))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	hits, misses := c.Stats()
	assert.Equal(t, uint64(8), hits+misses)
}
