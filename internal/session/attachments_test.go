package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapchat/internal/model"
)

func att(name string) model.Attachment {
	return model.Attachment{Name: name, Content: "content of " + name}
}

func TestAttachmentSet_SequentialFill(t *testing.T) {
	set := NewAttachmentSet(3)

	assert.True(t, set.IsSlotEnabled(0))
	assert.False(t, set.IsSlotEnabled(1))
	assert.False(t, set.Ready())

	require.NoError(t, set.SetSlot(0, att("a.csv")))
	assert.True(t, set.IsSlotEnabled(1))
	assert.False(t, set.IsSlotEnabled(2))
	assert.True(t, set.Ready())

	require.NoError(t, set.SetSlot(1, att("b.csv")))
	require.NoError(t, set.SetSlot(2, att("c.csv")))

	got := set.OrderedAttachments()
	require.Len(t, got, 3)
	assert.Equal(t, "a.csv", got[0].Name)
	assert.Equal(t, "b.csv", got[1].Name)
	assert.Equal(t, "c.csv", got[2].Name)
}

func TestAttachmentSet_OutOfOrder(t *testing.T) {
	for n := 2; n <= 5; n++ {
		set := NewAttachmentSet(n)
		for i := 0; i < n-2; i++ {
			require.NoError(t, set.SetSlot(i, att("f")))
		}

		err := set.SetSlot(n-1, att("last"))
		require.Error(t, err, "n=%d", n)
		assert.True(t, errors.Is(err, ErrOutOfOrder))

		var slotErr *SlotError
		require.True(t, errors.As(err, &slotErr))
		assert.Equal(t, n-1, slotErr.Index)
		assert.False(t, set.IsSlotFilled(n-1))
	}
}

func TestAttachmentSet_OverwriteSlot(t *testing.T) {
	set := NewAttachmentSet(2)
	require.NoError(t, set.SetSlot(0, att("old")))
	require.NoError(t, set.SetSlot(0, att("new")))

	got, ok := set.Slot(0)
	require.True(t, ok)
	assert.Equal(t, "new", got.Name)
	assert.Equal(t, 1, set.Count())
}

func TestAttachmentSet_ClearCascades(t *testing.T) {
	set := NewAttachmentSet(4)
	for i := 0; i < 4; i++ {
		require.NoError(t, set.SetSlot(i, att("f")))
	}

	require.NoError(t, set.ClearSlot(1))

	assert.True(t, set.IsSlotFilled(0))
	for i := 1; i < 4; i++ {
		assert.False(t, set.IsSlotFilled(i), "slot %d", i)
	}
	assert.Len(t, set.OrderedAttachments(), 1)
	assert.True(t, set.IsSlotEnabled(1))
	assert.False(t, set.IsSlotEnabled(2))
}

func TestAttachmentSet_Range(t *testing.T) {
	set := NewAttachmentSet(2)

	assert.ErrorIs(t, set.SetSlot(-1, att("x")), ErrSlotRange)
	assert.ErrorIs(t, set.SetSlot(2, att("x")), ErrSlotRange)
	assert.ErrorIs(t, set.ClearSlot(5), ErrSlotRange)
	assert.False(t, set.IsSlotEnabled(2))
}

func TestAttachmentSet_Reset(t *testing.T) {
	set := NewAttachmentSet(2)
	require.NoError(t, set.SetSlot(0, att("a")))
	require.NoError(t, set.SetSlot(1, att("b")))

	set.Reset()

	assert.Empty(t, set.OrderedAttachments())
	assert.NotNil(t, set.OrderedAttachments())
	assert.False(t, set.Ready())
}
