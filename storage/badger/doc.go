// Package badger provides the BadgerDB implementation of the storage
// repositories. Records are serialized with MUS and indexed with composite
// keys whose BigEndian timestamps make lexicographic order chronological.
package badger
