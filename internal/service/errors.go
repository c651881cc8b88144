package service

import "errors"

var (
	ErrEmptyInput   = errors.New("message is empty")
	ErrNoAttachment = errors.New("attach at least one file before the first message")
	ErrDecodeFailed = errors.New("file could not be read as text")
	ErrSlotOrder    = errors.New("fill the previous attachment slot first")
	ErrBusy         = errors.New("a message is already being sent")
	ErrLocked       = errors.New("attachments and search mode are locked after the first message")
)
