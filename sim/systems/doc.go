// Package systems bundles small ready-made distributed behaviors used by the
// CLI and by the engine's integration tests: a ping-pong pair, an
// acknowledged broadcast, a bandwidth-saturating burst sender, a periodic
// heartbeat and a rumor gossip. Each file defines the behavior plus its
// message types; registry.go maps behavior and scenario names to
// constructors.
package systems
