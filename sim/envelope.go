package sim

import "fmt"

// Message is the contract for user payloads sent between processes.
type Message interface {
	// VirtualSize is the simulated wire size of the payload in bytes. It is
	// queried exactly once, at the moment the message is scheduled, and feeds
	// the bandwidth gate of the sending process. Large transfers can be
	// simulated without holding large buffers in memory.
	VirtualSize() int
}

// Envelope is a type-erased carrier for one user payload. The dynamic type
// of the payload is preserved, so the receiver can attempt a typed downcast
// with TryAs. Envelopes are single-consumer: after delivery to OnMessage the
// engine never observes them again.
type Envelope struct {
	payload Message
}

func wrap(m Message) *Envelope {
	return &Envelope{payload: m}
}

// TryAs returns the payload as T when the dynamic type matches, and reports
// whether it did.
func TryAs[T Message](env *Envelope) (T, bool) {
	v, ok := env.payload.(T)
	return v, ok
}

// MustAs returns the payload as T, panicking with a diagnostic when the
// dynamic type does not match. Use it when the protocol guarantees the type.
func MustAs[T Message](env *Envelope) T {
	v, ok := TryAs[T](env)
	if !ok {
		var want T
		panic(fmt.Sprintf("sim: envelope holds %T, not %T", env.payload, want))
	}
	return v
}
