package session

import (
	"fmt"

	"mapchat/internal/model"
)

// AttachmentSet is an ordered, fixed-size list of attachment slots.
// Slots are filled contiguously from index 0; there is never a filled slot
// after an empty one.
type AttachmentSet struct {
	slots []*model.Attachment
}

func NewAttachmentSet(size int) *AttachmentSet {
	if size < 1 {
		size = 1
	}
	return &AttachmentSet{
		slots: make([]*model.Attachment, size),
	}
}

// Size returns the number of slots.
func (a *AttachmentSet) Size() int {
	return len(a.slots)
}

// SetSlot fills slot index, replacing whatever was there.
func (a *AttachmentSet) SetSlot(index int, attachment model.Attachment) error {
	if err := a.checkRange(index); err != nil {
		return err
	}
	if !a.IsSlotEnabled(index) {
		return &SlotError{Index: index}
	}

	a.slots[index] = &attachment
	return nil
}

// ClearSlot empties slot index and every slot after it.
func (a *AttachmentSet) ClearSlot(index int) error {
	if err := a.checkRange(index); err != nil {
		return err
	}

	for i := index; i < len(a.slots); i++ {
		a.slots[i] = nil
	}
	return nil
}

// IsSlotEnabled reports whether slot index may currently be filled.
func (a *AttachmentSet) IsSlotEnabled(index int) bool {
	if index < 0 || index >= len(a.slots) {
		return false
	}
	return index == 0 || a.slots[index-1] != nil
}

// IsSlotFilled reports whether slot index holds an attachment.
func (a *AttachmentSet) IsSlotFilled(index int) bool {
	if index < 0 || index >= len(a.slots) {
		return false
	}
	return a.slots[index] != nil
}

// Slot returns the attachment held at index, if any.
func (a *AttachmentSet) Slot(index int) (model.Attachment, bool) {
	if !a.IsSlotFilled(index) {
		return model.Attachment{}, false
	}
	return *a.slots[index], true
}

// OrderedAttachments returns the filled slots in index order.
// The result is never nil.
func (a *AttachmentSet) OrderedAttachments() []model.Attachment {
	result := make([]model.Attachment, 0, len(a.slots))
	for _, slot := range a.slots {
		if slot == nil {
			break
		}
		result = append(result, *slot)
	}
	return result
}

// Count returns the number of filled slots.
func (a *AttachmentSet) Count() int {
	n := 0
	for _, slot := range a.slots {
		if slot == nil {
			break
		}
		n++
	}
	return n
}

// Ready is true once at least one slot is filled.
func (a *AttachmentSet) Ready() bool {
	return a.slots[0] != nil
}

func (a *AttachmentSet) Reset() {
	for i := range a.slots {
		a.slots[i] = nil
	}
}

func (a *AttachmentSet) checkRange(index int) error {
	if index < 0 || index >= len(a.slots) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrSlotRange, index, len(a.slots))
	}
	return nil
}
