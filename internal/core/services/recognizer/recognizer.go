// Package recognizer implements the handshake recognizer: the per-client
// state machine that classifies EAPOL-Key messages and tracks 4-way
// handshake progress. It owns the target/client registries, runs the
// EAPOL-Key classifier, and drives the event emitter and dump policy. It
// never imports internal/adapters — every collaborator (dispatcher, dumper,
// clock) is a small interface from internal/core/ports, and is treated as an
// external collaborator the recognizer has no knowledge of how to implement.
package recognizer

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/zizzania-go/zizzaniad/internal/core/domain"
	"github.com/zizzania-go/zizzaniad/internal/core/ports"
)

// ReconnectionGrace is the window after which a new EAPOL frame for an
// already-completed client is treated as a reconnection rather than a
// retransmission of the finished handshake.
const ReconnectionGrace = 5 * time.Second

// ErrStopped is returned by ProcessFrame once a prior dispatcher write
// failure has set the stop condition; the outer capture loop is expected to
// terminate on this error.
var ErrStopped = errors.New("recognizer: stopped after dispatcher failure")

// Options configures a Recognizer. All callbacks and collaborators are
// optional; a zero-value Options is a valid, fully passive configuration.
type Options struct {
	// AutoAddTargets enables auto-add of a target on first observation of
	// its BSSID.
	AutoAddTargets bool

	// Passive, when true, skips all dispatcher enqueues.
	Passive bool

	// Verbose enables human-readable diagnostic logging of skip reasons;
	// it never alters classification or state.
	Verbose bool

	// OnNewClient is invoked on first observation of a client and on every
	// reconnection-triggered reset.
	OnNewClient func(bssid, client domain.Address)

	// OnHandshake is invoked when a client's NeedSet transitions to empty.
	OnHandshake func(bssid, client domain.Address)

	// Dispatcher receives lifecycle events as fixed-layout records. Nil
	// behaves as if Passive were true.
	Dispatcher ports.Dispatcher

	// Dumper persists raw frames per the dump policy. Nil disables dumping
	// entirely.
	Dumper ports.Dumper

	// Clock supplies wall-clock time; defaults to ports.SystemClock.
	Clock ports.Clock

	// Logger receives diagnostic lines, including the message logged when a
	// dispatcher write fails. Defaults to log.Default().
	Logger *log.Logger
}

// Recognizer is the per-process handshake recognizer. It is not safe for
// concurrent use: callers must process frames from a single goroutine, and
// the recognizer relies on that to avoid internal locking.
type Recognizer struct {
	opts     Options
	registry *targetRegistry
	stopped  bool
}

// New constructs a Recognizer from opts, filling in defaults for an absent
// Clock or Logger.
func New(opts Options) *Recognizer {
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Recognizer{
		opts:     opts,
		registry: newTargetRegistry(opts.AutoAddTargets),
	}
}

// AddTarget explicitly registers a BSSID as a target. Idempotent.
func (r *Recognizer) AddTarget(bssid domain.Address) {
	r.registry.addTarget(bssid)
}

// KnownTargets reports how many targets are currently registered.
func (r *Recognizer) KnownTargets() int {
	return r.registry.knownTargets()
}

// Targets returns a snapshot of every currently registered target and its
// tracked client count, in no particular order.
func (r *Recognizer) Targets() []TargetStatus {
	return r.registry.snapshot()
}

// Stopped reports whether a dispatcher write failure has halted the
// recognizer.
func (r *Recognizer) Stopped() bool {
	return r.stopped
}

// ProcessFrame advances the state machine for one already-parsed frame. When
// a dispatcher write fails it returns an error wrapping ErrStopped (the
// underlying cause appears in the message text only), and every later call
// returns ErrStopped itself; the caller is expected to stop its capture loop.
// Frames for unknown targets (no auto-add) are ignored entirely: no client
// is created, no event fires, nothing is dumped.
func (r *Recognizer) ProcessFrame(frame domain.Frame, timestamp time.Time, origLen int) error {
	if r.stopped {
		return ErrStopped
	}

	table, ok := r.registry.lookup(frame.BSSID)
	if !ok {
		return nil
	}

	client, exists := table[frame.ClientAddr]
	if !exists {
		client = domain.NewClient()
		table[frame.ClientAddr] = client
		if err := r.emitNewClient(frame.BSSID, frame.ClientAddr); err != nil {
			return err
		}
	}

	if frame.EAPOL != nil && client.PastReconnectionGrace(r.opts.Clock.Now(), ReconnectionGrace) {
		r.debugf("possible reconnection of client %s @ %s", frame.ClientAddr, frame.BSSID)
		client.ResetForReconnection()
		if err := r.emitNewClient(frame.BSSID, frame.ClientAddr); err != nil {
			return err
		}
	}

	r.applyDumpPolicy(client, frame, timestamp, origLen)

	if frame.EAPOL == nil {
		return nil
	}
	return r.classify(frame.BSSID, frame.ClientAddr, client, frame.EAPOL)
}

// classify masks the key-information flags, disambiguates #2/#4 via the
// replay counter, and applies the resulting sequence's state transition.
func (r *Recognizer) classify(bssid, clientAddr domain.Address, client *domain.Client, eapol *domain.EAPOLKeyView) error {
	masked := eapol.Flags & domain.EAPOLFlagMask

	var sequence int
	switch masked {
	case domain.EAPOLFlags1:
		sequence = 0

	case domain.EAPOLFlags24:
		if client.NeedBits.NeedsFirst() {
			r.debugf("waiting for handshake #1, cannot distinguish between #2 and #4 for %s @ %s", clientAddr, bssid)
			return nil
		}
		switch eapol.ReplayCounter {
		case client.StartCounter:
			sequence = 1
		case client.StartCounter + 1:
			sequence = 3
		default:
			r.debugf("skipping #2/#4 for %s @ %s: part of another handshake", clientAddr, bssid)
			return nil
		}

	case domain.EAPOLFlags3:
		sequence = 2

	default:
		r.debugf("unrecognizable EAPOL flags 0x%04x from %s @ %s", eapol.Flags, clientAddr, bssid)
		return nil
	}

	if sequence == 0 {
		client.ResetForFirstMessage(eapol.ReplayCounter)
		return nil
	}

	if client.NeedBits.NeedsFirst() {
		// message #2/#3/#4 arrived before any #1 this round: dropped.
		return nil
	}

	client.NeedBits = client.NeedBits.Clear(sequence)
	if !client.NeedBits.Complete() {
		return nil
	}

	client.HandshakeAt = r.opts.Clock.Now()
	if r.opts.OnHandshake != nil {
		r.opts.OnHandshake(bssid, clientAddr)
	}
	return r.emitDispatch(domain.ActionHandshake, bssid, clientAddr)
}

// applyDumpPolicy decides whether the current frame gets handed to the
// dumper: EAPOL-Key frames always do, others only once the client's
// handshake is already complete.
func (r *Recognizer) applyDumpPolicy(client *domain.Client, frame domain.Frame, timestamp time.Time, origLen int) {
	if r.opts.Dumper == nil {
		return
	}
	switch {
	case frame.EAPOL != nil:
	case client.NeedBits.Complete():
	default:
		return
	}
	if err := r.opts.Dumper.Dump(timestamp, origLen, frame.Raw); err != nil {
		r.debugf("dumper write failed: %v", err)
	}
}

func (r *Recognizer) emitNewClient(bssid, client domain.Address) error {
	if r.opts.OnNewClient != nil {
		r.opts.OnNewClient(bssid, client)
	}
	return r.emitDispatch(domain.ActionNewClient, bssid, client)
}

// emitDispatch writes a dispatcher record unless passive mode or the
// absence of a configured dispatcher makes it a no-op. A write failure is
// always fatal: it sets the stop condition and surfaces as an error from
// ProcessFrame. (DESIGN.md records the decision to unify this across all
// three emit sites, including the reconnection-reset re-announcement.)
func (r *Recognizer) emitDispatch(action domain.DispatcherAction, bssid, client domain.Address) error {
	if r.opts.Passive || r.opts.Dispatcher == nil {
		return nil
	}
	msg := domain.DispatcherMessage{Action: action, Client: client, BSSID: bssid}
	if err := r.opts.Dispatcher.Write(msg.Encode()); err != nil {
		r.stopped = true
		r.opts.Logger.Printf("cannot communicate with the dispatcher: %v", err)
		return fmt.Errorf("%w: %v", ErrStopped, err)
	}
	return nil
}

func (r *Recognizer) debugf(format string, args ...interface{}) {
	if r.opts.Verbose {
		r.opts.Logger.Printf(format, args...)
	}
}
