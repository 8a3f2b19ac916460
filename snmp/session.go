// Package snmp provides the walk/get polling primitive used by the collectors.
package snmp

import (
	"context"
	"errors"

	"github.com/AravindhGoutham/NetMan/common"
)

// Error kinds. Returned errors wrap one of these.
var (
	// ErrConnection - A session could not be established.
	ErrConnection = errors.New("connection error")
	// ErrWalk - A table walk failed.
	ErrWalk = errors.New("walk error")
	// ErrGet - A scalar read failed or returned no value.
	ErrGet = errors.New("get error")
)

// Session - An open polling session to one device. Not safe for concurrent use.
type Session interface {
	// Walk returns every (OID, value) pair under the OID, in walk order.
	Walk(ctx context.Context, oid string) (common.WalkResult, error)
	// Get returns the value of a single scalar OID.
	Get(ctx context.Context, oid string) (string, error)
	Close() error
}

// Poller - Opens sessions to devices.
type Poller interface {
	Open(ctx context.Context, device common.Device) (Session, error)
}
