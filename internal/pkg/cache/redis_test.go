package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilClientIsDisabledCache(t *testing.T) {
	var c *RedisClient
	ctx := context.Background()

	var dst map[string]string
	hit, err := c.GetJSON(ctx, "k", &dst)
	assert.NoError(t, err)
	assert.False(t, hit)

	assert.NoError(t, c.SetJSON(ctx, "k", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Close())
}
