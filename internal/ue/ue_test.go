package ue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateAttachReusesURNTI(t *testing.T) {
	table := NewTable(1)
	now := time.Now()

	first, existed := table.FindOrCreateByExternalID("1234567890", now)
	require.False(t, existed)
	assert.Equal(t, uint32(0x00100001), first.URNTI)

	second, existed := table.FindOrCreateByExternalID("1234567890", now)
	require.True(t, existed)
	assert.Equal(t, first.URNTI, second.URNTI)
}

func TestTransactionRingOverwritesOldestSlot(t *testing.T) {
	u := New(1, "x", time.Now())
	now := time.Now()
	var ids []uint8
	for i := 0; i < 5; i++ {
		tx := u.OpenTransaction("k", nil, CellFACH, now, now.Add(time.Second))
		ids = append(ids, tx.ID)
	}
	// fifth open reused slot 0's id
	assert.Equal(t, ids[0], ids[4])
	_, ok := u.Transaction(ids[0])
	assert.True(t, ok)
}

func TestCloseTransactionRemovesIt(t *testing.T) {
	u := New(1, "x", time.Now())
	now := time.Now()
	tx := u.OpenTransaction("ConnectionSetup", nil, CellFACH, now, now.Add(time.Second))
	u.CloseTransaction(tx.ID)
	_, ok := u.Transaction(tx.ID)
	assert.False(t, ok)
}
