package sgsnclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAllocateRabForPdpIsIdempotent(t *testing.T) {
	s := NewSimulated(zap.NewNop())
	ctx := context.Background()

	first, err := s.AllocateRabForPdp(ctx, 0x00100001, 5, 16000)
	require.NoError(t, err)
	assert.Equal(t, RabAllocated, first.Status)
	assert.Equal(t, uint64(128_000), first.UplinkBps)

	second, err := s.AllocateRabForPdp(ctx, 0x00100001, 5, 16000)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAllocateRabInsufficientResources(t *testing.T) {
	s := NewSimulated(zap.NewNop())
	result, err := s.AllocateRabForPdp(context.Background(), 1, 5, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, RabFailure, result.Status)
	assert.Equal(t, CauseInsufficientResources, result.Cause)
}

func TestWriteHighSideAccumulates(t *testing.T) {
	s := NewSimulated(zap.NewNop())
	ctx := context.Background()
	require.NoError(t, s.WriteHighSide(ctx, 1, 5, []byte("a"), "test"))
	require.NoError(t, s.WriteHighSide(ctx, 1, 5, []byte("b"), "test"))
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, s.Received(1))
}
