package tasks

import "errors"

var (
	ErrContentRequired = errors.New("content required")
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrCorruptState    = errors.New("corrupt persisted tasks")
	ErrRemote          = errors.New("remote task service")
)
