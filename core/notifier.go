package core

import "time"

type NotifyKind string

const (
	NotifyInfo       NotifyKind = "info"
	NotifySuccess    NotifyKind = "success"
	NotifyError      NotifyKind = "error"
	NotifyValidation NotifyKind = "validation"
)

type Notification struct {
	ID        uint64     `json:"id"`
	Kind      NotifyKind `json:"kind"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
}

// Notifier is called synchronously by the core. Implementations must not block.
type Notifier interface {
	Notify(kind NotifyKind, message string)
}
