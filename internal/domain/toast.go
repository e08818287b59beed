package domain

import (
	"time"
)

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is a transient UI notification. It lives only in the in-memory
// queue and auto-expires shortly after creation.
type Toast struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      ToastKind `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
