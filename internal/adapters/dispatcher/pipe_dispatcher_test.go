package dispatcher

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zizzania-go/zizzaniad/internal/core/domain"
)

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) - 1, nil }

type failingWriter struct{ err error }

func (f failingWriter) Write(p []byte) (int, error) { return 0, f.err }

func TestPipeDispatcherWritesFullRecord(t *testing.T) {
	var buf bytes.Buffer
	d := NewPipeDispatcher(&buf)

	msg := domain.DispatcherMessage{
		Action: domain.ActionHandshake,
		Client: domain.Address{1, 2, 3, 4, 5, 6},
		BSSID:  domain.Address{6, 5, 4, 3, 2, 1},
	}
	require.NoError(t, d.Write(msg.Encode()))

	decoded, ok := Decode(buf.Bytes())
	require.True(t, ok)
	assert.Equal(t, msg, decoded)
}

func TestPipeDispatcherReportsShortWrite(t *testing.T) {
	d := NewPipeDispatcher(shortWriter{})
	err := d.Write(domain.DispatcherMessage{}.Encode())
	assert.Error(t, err)
}

func TestPipeDispatcherPropagatesWriteError(t *testing.T) {
	cause := errors.New("broken pipe")
	d := NewPipeDispatcher(failingWriter{err: cause})
	err := d.Write(domain.DispatcherMessage{}.Encode())
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestChannelDispatcherFansOutAndIgnoresObserverErrors(t *testing.T) {
	var primaryRecords [][13]byte
	var observed int

	primary := DispatcherFunc(func(record [13]byte) error {
		primaryRecords = append(primaryRecords, record)
		return nil
	})
	observer := DispatcherFunc(func(record [13]byte) error {
		observed++
		return errors.New("dashboard client disconnected")
	})

	d := NewChannelDispatcher(primary, observer)
	require.NoError(t, d.Write(domain.DispatcherMessage{}.Encode()))
	assert.Len(t, primaryRecords, 1)
	assert.Equal(t, 1, observed)
}

func TestChannelDispatcherPropagatesPrimaryError(t *testing.T) {
	cause := errors.New("dispatcher gone")
	primary := DispatcherFunc(func(record [13]byte) error { return cause })
	d := NewChannelDispatcher(primary)
	err := d.Write(domain.DispatcherMessage{}.Encode())
	assert.ErrorIs(t, err, cause)
}
