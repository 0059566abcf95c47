package container

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRunsProviderOnce(t *testing.T) {
	calls := 0
	Provide("test.counter", ProviderFunc(func(c *Container) error {
		calls++
		c.Instance("counter", calls)
		return nil
	}))

	c := New()
	require.NoError(t, c.Register("test.counter"))
	require.NoError(t, c.Register("test.counter"))

	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"test.counter"}, c.Registered())

	v, ok := MakeAs[int](c, "counter")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestRegisterUnknownProvider(t *testing.T) {
	err := New().Register("test.missing")
	assert.True(t, errors.Is(err, ErrUnknownProvider))
}

func TestRegisterProviderError(t *testing.T) {
	boom := errors.New("boom")
	Provide("test.failing", ProviderFunc(func(*Container) error { return boom }))

	err := New().Register("test.failing")
	assert.ErrorIs(t, err, boom)
}

func TestAliases(t *testing.T) {
	c := New()
	c.Instance("cart.service", "cart")
	c.Alias("Cart", "cart.service")
	c.Alias("Basket", "Cart")

	v, ok := c.Make("Basket")
	require.True(t, ok)
	assert.Equal(t, "cart", v)
	assert.Equal(t, []string{"Basket", "Cart"}, c.Aliases())

	_, ok = c.Make("Missing")
	assert.False(t, ok)

	_, ok = MakeAs[int](c, "Cart")
	assert.False(t, ok, "type mismatch must not resolve")
}

func TestAliasCycleTerminates(t *testing.T) {
	c := New()
	c.Alias("a", "b")
	c.Alias("b", "a")

	_, ok := c.Make("a")
	assert.False(t, ok)
}

func TestContext(t *testing.T) {
	c := New()
	ctx := WithContext(context.Background(), c)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, c, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
