// Package sgsnclient is the narrow external interface to the SGSN/GGSN
// packet-data session layer described in spec.md section 6: find a UE,
// allocate a RAB, start integrity protection, and hand uplink SDUs up to
// the high side — the rest of that layer is out of scope for this core.
package sgsnclient

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RabStatusKind mirrors ue.RabStatus without importing the ue package,
// keeping this client's dependency direction outward-only.
type RabStatusKind int

const (
	RabPending RabStatusKind = iota
	RabAllocated
	RabFailure
)

// SmCause is the 3GPP Session Management cause code carried on RAB
// allocation failure.
type SmCause string

const (
	CauseInsufficientResources SmCause = "InsufficientResources"
	CauseUnspecified           SmCause = "Unspecified"
)

// RabResult is the outcome of an allocateRabForPdp call.
type RabResult struct {
	Status       RabStatusKind
	UplinkBps    uint64
	DownlinkBps  uint64
	Cause        SmCause
}

// ErrUnknownUE is available to Client implementations that report an
// unknown U-RNTI as an error; Simulated.FindMs reports an unknown UE as
// (false, nil) instead.
var ErrUnknownUE = errors.New("sgsnclient: unknown UE")

// Client is the interface this core calls out on; Simulated below is an
// in-memory reference implementation used by tests and standalone runs.
type Client interface {
	FindMs(ctx context.Context, urnti uint32) (bool, error)
	AllocateRabForPdp(ctx context.Context, urnti uint32, rbID int, qosBytesPerSec int) (RabResult, error)
	StartIntegrityProtection(ctx context.Context, urnti uint32, kc []byte) error
	WriteHighSide(ctx context.Context, urnti uint32, rbID int, data []byte, descr string) error
}

// RetryingClient wraps every call of a Client with exponential backoff
// for transient failures.
type RetryingClient struct {
	inner  Client
	logger *zap.Logger
}

func NewRetryingClient(inner Client, logger *zap.Logger) *RetryingClient {
	return &RetryingClient{inner: inner, logger: logger}
}

func (c *RetryingClient) retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	return backoff.WithContext(b, ctx)
}

func (c *RetryingClient) FindMs(ctx context.Context, urnti uint32) (bool, error) {
	var found bool
	op := func() error {
		f, err := c.inner.FindMs(ctx, urnti)
		if err != nil {
			return err
		}
		found = f
		return nil
	}
	if err := backoff.Retry(op, c.retryPolicy(ctx)); err != nil {
		c.logger.Warn("sgsn FindMs failed after retries", zap.Uint32("urnti", urnti), zap.Error(err))
		return false, err
	}
	return found, nil
}

func (c *RetryingClient) AllocateRabForPdp(ctx context.Context, urnti uint32, rbID int, qosBytesPerSec int) (RabResult, error) {
	var result RabResult
	op := func() error {
		r, err := c.inner.AllocateRabForPdp(ctx, urnti, rbID, qosBytesPerSec)
		if err != nil {
			return err
		}
		result = r
		return nil
	}
	if err := backoff.Retry(op, c.retryPolicy(ctx)); err != nil {
		c.logger.Warn("sgsn AllocateRabForPdp failed after retries", zap.Uint32("urnti", urnti), zap.Int("rb_id", rbID), zap.Error(err))
		return RabResult{}, err
	}
	return result, nil
}

func (c *RetryingClient) StartIntegrityProtection(ctx context.Context, urnti uint32, kc []byte) error {
	op := func() error { return c.inner.StartIntegrityProtection(ctx, urnti, kc) }
	return backoff.Retry(op, c.retryPolicy(ctx))
}

func (c *RetryingClient) WriteHighSide(ctx context.Context, urnti uint32, rbID int, data []byte, descr string) error {
	op := func() error { return c.inner.WriteHighSide(ctx, urnti, rbID, data, descr) }
	return backoff.Retry(op, c.retryPolicy(ctx))
}
