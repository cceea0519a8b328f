package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/cue/app/store"
)

type resizeArgs struct {
	ImageID int    `json:"image_id"`
	Size    string `json:"size"`
}

func TestFunc(t *testing.T) {
	reg := NewRegistry(nil)
	var got []resizeArgs
	resize, err := NewFunc(reg, "images.resize", func(_ context.Context, a resizeArgs) error {
		got = append(got, a)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "images.resize", resize.Name())
	assert.True(t, reg.Has("images.resize"))

	cmd := resize.Command(resizeArgs{ImageID: 12, Size: "100x100"})
	assert.Equal(t, "images.resize", cmd.Name())
	assert.Equal(t, resizeArgs{ImageID: 12, Size: "100x100"}, cmd.Payload())

	msg, err := reg.Serialize(cmd)
	require.NoError(t, err)
	assert.Equal(t, `images.resize:{"image_id":12,"size":"100x100"}`, msg)

	inv := NewInvoker(store.NewMemory(), reg, "images")
	ctx := context.Background()
	require.NoError(t, resize.Enqueue(ctx, inv, resizeArgs{ImageID: 1, Size: "s"}))
	require.NoError(t, resize.Enqueue(ctx, inv, resizeArgs{ImageID: 2, Size: "m"}))
	for range 2 {
		ok, err := inv.Dequeue(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, []resizeArgs{{ImageID: 1, Size: "s"}, {ImageID: 2, Size: "m"}}, got)
}

func TestFunc_Errors(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := NewFunc[int](reg, "nil", nil)
	assert.Error(t, err)

	MustFunc(reg, "dup", func(context.Context, int) error { return nil })
	_, err = NewFunc(reg, "dup", func(context.Context, string) error { return nil })
	assert.ErrorIs(t, err, ErrDuplicateRegistration)
	assert.Panics(t, func() { MustFunc(reg, "bad:id", func(context.Context, int) error { return nil }) })
}
