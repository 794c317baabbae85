package codec

import (
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheBuildsOncePerType(t *testing.T) {
	var builds atomic.Int32
	cache := NewCache(func(t reflect.Type) (*Object, error) {
		builds.Add(1)
		return NewObject(t)
	})

	const callers = 32
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		got   = make([]*Object, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			obj, err := cache.Get(reflect.TypeOf(question{}))
			assert.NoError(t, err)
			got[i] = obj
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	require.NotNil(t, got[0])
	for _, obj := range got {
		assert.Same(t, got[0], obj)
	}
	assert.Equal(t, 1, cache.Len())
}

func TestCacheNormalizesPointers(t *testing.T) {
	cache := NewCache(nil)

	a, err := cache.Get(reflect.TypeOf(answer{}))
	require.NoError(t, err)
	b, err := cache.Get(reflect.TypeOf(&answer{}))
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, reflect.TypeOf(answer{}), a.Type())
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	cache := NewCache(nil)

	_, err := cache.Get(reflect.TypeOf(0))
	assert.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}
