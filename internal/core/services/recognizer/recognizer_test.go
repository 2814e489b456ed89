package recognizer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zizzania-go/zizzaniad/internal/core/domain"
)

// fakeClock is a manually advanced ports.Clock for deterministic tests of
// the reconnection-grace boundary.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeDispatcher records every record written to it, optionally failing on
// a configured record count.
type fakeDispatcher struct {
	writes  [][13]byte
	failAt  int // 1-based; 0 means never fail
	nwrites int
}

func (d *fakeDispatcher) Write(record [13]byte) error {
	d.nwrites++
	if d.failAt != 0 && d.nwrites == d.failAt {
		return errors.New("broken pipe")
	}
	d.writes = append(d.writes, record)
	return nil
}

// fakeDumper records what it was asked to dump.
type fakeDumper struct {
	count int
}

func (d *fakeDumper) Dump(_ time.Time, _ int, _ []byte) error {
	d.count++
	return nil
}

func eapolFrame(bssid, client domain.Address, flags uint16, replay uint64) domain.Frame {
	return domain.Frame{
		BSSID:      bssid,
		ClientAddr: client,
		EAPOL:      &domain.EAPOLKeyView{Flags: flags, ReplayCounter: replay},
		Raw:        []byte{0x01, 0x02, 0x03},
	}
}

func dataFrame(bssid, client domain.Address) domain.Frame {
	return domain.Frame{
		BSSID:      bssid,
		ClientAddr: client,
		Raw:        []byte{0xAA, 0xBB},
	}
}

var (
	testBSSID  = domain.Address{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	testClient = domain.Address{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}
)

func TestCompleteHandshakeEmitsNewClientAndHandshake(t *testing.T) {
	clock := newFakeClock()
	dispatcher := &fakeDispatcher{}
	r := New(Options{AutoAddTargets: true, Clock: clock, Dispatcher: dispatcher})

	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags1, 1), clock.Now(), 100))
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags24, 1), clock.Now(), 100))
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags3, 2), clock.Now(), 100))
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags24, 2), clock.Now(), 100))

	require.Len(t, dispatcher.writes, 2)
	msg, ok := domain.DecodeDispatcherMessage(dispatcher.writes[0][:])
	require.True(t, ok)
	assert.Equal(t, domain.ActionNewClient, msg.Action)
	msg, ok = domain.DecodeDispatcherMessage(dispatcher.writes[1][:])
	require.True(t, ok)
	assert.Equal(t, domain.ActionHandshake, msg.Action)
}

func TestAmbiguousMessageBeforeFirstIsDropped(t *testing.T) {
	clock := newFakeClock()
	dispatcher := &fakeDispatcher{}
	r := New(Options{AutoAddTargets: true, Clock: clock, Dispatcher: dispatcher})

	// #2/#4-shaped frame with no preceding #1: new client event only, no
	// handshake progress.
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags24, 7), clock.Now(), 100))
	require.Len(t, dispatcher.writes, 1)
	msg, _ := domain.DecodeDispatcherMessage(dispatcher.writes[0][:])
	assert.Equal(t, domain.ActionNewClient, msg.Action)
}

func TestThirdMessageBeforeFirstIsDropped(t *testing.T) {
	clock := newFakeClock()
	dispatcher := &fakeDispatcher{}
	r := New(Options{AutoAddTargets: true, Clock: clock, Dispatcher: dispatcher})

	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags3, 9), clock.Now(), 100))
	require.Len(t, dispatcher.writes, 1) // new-client only
}

func TestForeignReplayCounterIsIgnored(t *testing.T) {
	clock := newFakeClock()
	dispatcher := &fakeDispatcher{}
	r := New(Options{AutoAddTargets: true, Clock: clock, Dispatcher: dispatcher})

	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags1, 5), clock.Now(), 100))
	// replay counter doesn't match start(5) or start+1(6): part of another
	// handshake, dropped without state change.
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags24, 99), clock.Now(), 100))
	require.Len(t, dispatcher.writes, 1) // only the initial new-client event
}

func TestReconnectionAfterGraceResetsAndReannounces(t *testing.T) {
	clock := newFakeClock()
	dispatcher := &fakeDispatcher{}
	r := New(Options{AutoAddTargets: true, Clock: clock, Dispatcher: dispatcher})

	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags1, 1), clock.Now(), 100))
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags24, 1), clock.Now(), 100))
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags3, 2), clock.Now(), 100))
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags24, 2), clock.Now(), 100))
	require.Len(t, dispatcher.writes, 2) // new client + handshake

	// Exactly at the grace boundary: not yet a reconnection (strict >).
	clock.advance(5 * time.Second)
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags1, 3), clock.Now(), 100))
	require.Len(t, dispatcher.writes, 2, "at exactly the grace boundary a new message #1 is treated as a normal reset, not a reconnection re-announcement")

	// Complete it again, then push clearly past the grace window.
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags24, 3), clock.Now(), 100))
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags3, 4), clock.Now(), 100))
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags24, 4), clock.Now(), 100))
	countBefore := len(dispatcher.writes)

	clock.advance(6 * time.Second)
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags3, 100), clock.Now(), 100))
	require.Len(t, dispatcher.writes, countBefore+1, "an EAPOL frame arriving well past the grace window re-announces the client as new")
	msg, _ := domain.DecodeDispatcherMessage(dispatcher.writes[countBefore][:])
	assert.Equal(t, domain.ActionNewClient, msg.Action)
}

func TestPassiveModeNeverWritesDispatcher(t *testing.T) {
	clock := newFakeClock()
	dispatcher := &fakeDispatcher{}
	r := New(Options{AutoAddTargets: true, Passive: true, Clock: clock, Dispatcher: dispatcher})

	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags1, 1), clock.Now(), 100))
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags24, 1), clock.Now(), 100))
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags3, 2), clock.Now(), 100))
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags24, 2), clock.Now(), 100))
	assert.Empty(t, dispatcher.writes)
}

func TestUnknownTargetWithoutAutoAddIsIgnored(t *testing.T) {
	clock := newFakeClock()
	dispatcher := &fakeDispatcher{}
	r := New(Options{AutoAddTargets: false, Clock: clock, Dispatcher: dispatcher})

	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags1, 1), clock.Now(), 100))
	assert.Empty(t, dispatcher.writes)
	assert.Equal(t, 0, r.KnownTargets())
}

func TestKnownTargetWithoutAutoAddTracksClients(t *testing.T) {
	clock := newFakeClock()
	dispatcher := &fakeDispatcher{}
	r := New(Options{AutoAddTargets: false, Clock: clock, Dispatcher: dispatcher})
	r.AddTarget(testBSSID)

	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags1, 1), clock.Now(), 100))
	require.Len(t, dispatcher.writes, 1)
}

func TestDispatcherFailureStopsRecognizer(t *testing.T) {
	clock := newFakeClock()
	dispatcher := &fakeDispatcher{failAt: 1}
	r := New(Options{AutoAddTargets: true, Clock: clock, Dispatcher: dispatcher})

	err := r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags1, 1), clock.Now(), 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStopped))
	assert.True(t, r.Stopped())

	// Once stopped, further frames are rejected outright.
	err = r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags24, 1), clock.Now(), 100)
	assert.ErrorIs(t, err, ErrStopped)
}

func TestDumpPolicyAlwaysDumpsEAPOLAndOnlyDumpsDataAfterCompletion(t *testing.T) {
	clock := newFakeClock()
	dispatcher := &fakeDispatcher{}
	dumper := &fakeDumper{}
	r := New(Options{AutoAddTargets: true, Clock: clock, Dispatcher: dispatcher, Dumper: dumper})

	// Data frame before handshake completion: not dumped.
	require.NoError(t, r.ProcessFrame(dataFrame(testBSSID, testClient), clock.Now(), 50))
	assert.Equal(t, 0, dumper.count)

	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags1, 1), clock.Now(), 100))
	assert.Equal(t, 1, dumper.count, "EAPOL frames are always dumped once their target is known")

	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags24, 1), clock.Now(), 100))
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags3, 2), clock.Now(), 100))
	require.NoError(t, r.ProcessFrame(eapolFrame(testBSSID, testClient, domain.EAPOLFlags24, 2), clock.Now(), 100))
	assert.Equal(t, 4, dumper.count)

	// Data frame after completion: now dumped too.
	require.NoError(t, r.ProcessFrame(dataFrame(testBSSID, testClient), clock.Now(), 50))
	assert.Equal(t, 5, dumper.count)
}

func TestNeedSetBitEncoding(t *testing.T) {
	assert.True(t, domain.NeedAll.NeedsFirst())
	assert.False(t, domain.NeedAfterFirst.NeedsFirst())
	assert.True(t, domain.NeedNone.Complete())
	assert.Equal(t, domain.NeedNone, domain.NeedAfterFirst.Clear(1).Clear(2).Clear(3))
}
