package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/assessment-api/internal/config"
)

func TestRedisOptions(t *testing.T) {
	t.Run("single по умолчанию берет Addr", func(t *testing.T) {
		opts, mode, err := redisOptions(config.RedisConfig{Addr: "localhost:6379", MinRetryBackoff: 8})

		require.NoError(t, err)
		assert.Equal(t, "single", mode)
		assert.Equal(t, []string{"localhost:6379"}, opts.Addrs)
		assert.Equal(t, 8*time.Millisecond, opts.MinRetryBackoff)
	})

	t.Run("single оставляет только первый адрес", func(t *testing.T) {
		opts, _, err := redisOptions(config.RedisConfig{Mode: "single", Addrs: []string{"a:1", "b:2"}})

		require.NoError(t, err)
		assert.Equal(t, []string{"a:1"}, opts.Addrs)
	})

	t.Run("sentinel без MasterName", func(t *testing.T) {
		_, _, err := redisOptions(config.RedisConfig{Mode: "sentinel", Addrs: []string{"a:26379"}})
		assert.Error(t, err)
	})

	t.Run("cluster", func(t *testing.T) {
		opts, mode, err := redisOptions(config.RedisConfig{Mode: "cluster", Addrs: []string{"a:1", "b:2", "c:3"}})

		require.NoError(t, err)
		assert.Equal(t, "cluster", mode)
		assert.Len(t, opts.Addrs, 3)
	})

	t.Run("нет адресов", func(t *testing.T) {
		_, _, err := redisOptions(config.RedisConfig{})
		assert.Error(t, err)
	})

	t.Run("неизвестный режим", func(t *testing.T) {
		_, _, err := redisOptions(config.RedisConfig{Mode: "ring", Addr: "a:1"})
		assert.Error(t, err)
	})
}
