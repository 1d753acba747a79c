package store

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
)

func TestNew_PrefersRedis(t *testing.T) {
	server, err := miniredis.Run()
	assert.Nil(t, err)
	defer server.Close()

	counter := New("redis://" + server.Addr())
	redisCounter, ok := counter.(*RedisCounter)
	assert.True(t, ok)
	_ = redisCounter.Close()
}

func TestNew_FallsBackToMemory(t *testing.T) {
	counter := New("redis://127.0.0.1:1")
	_, ok := counter.(*MemoryCounter)
	assert.True(t, ok)
}

func TestNew_MalformedURLFallsBack(t *testing.T) {
	counter := New("::: definitely not a url :::")
	_, ok := counter.(*MemoryCounter)
	assert.True(t, ok)
}
