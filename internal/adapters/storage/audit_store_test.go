package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zizzania-go/zizzaniad/internal/core/domain"
)

func newTestStore(t *testing.T) *AuditStore {
	t.Helper()
	store, err := NewAuditStore("file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordEventPersistsDecodedMessage(t *testing.T) {
	store := newTestStore(t)

	msg := domain.DispatcherMessage{
		Action: domain.ActionHandshake,
		Client: domain.Address{1, 2, 3, 4, 5, 6},
		BSSID:  domain.Address{6, 5, 4, 3, 2, 1},
	}
	require.NoError(t, store.RecordEvent(msg.Encode()))

	events, err := store.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "HANDSHAKE", events[0].Action)
	assert.Equal(t, msg.BSSID.String(), events[0].BSSID)
	assert.Equal(t, msg.Client.String(), events[0].Client)
}

func TestCountByActionTallies(t *testing.T) {
	store := newTestStore(t)

	newClient := domain.DispatcherMessage{Action: domain.ActionNewClient}.Encode()
	handshake := domain.DispatcherMessage{Action: domain.ActionHandshake}.Encode()
	require.NoError(t, store.RecordEvent(newClient))
	require.NoError(t, store.RecordEvent(newClient))
	require.NoError(t, store.RecordEvent(handshake))

	count, err := store.CountByAction("NEW_CLIENT")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = store.CountByAction("HANDSHAKE")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRecordEventAcceptsZeroValueRecord(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.RecordEvent([13]byte{}))
	events, err := store.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "NEW_CLIENT", events[0].Action)
}
