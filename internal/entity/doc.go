// Package entity implements the runtime side of sensors: each entity
// applies its derivation functions to the coordinator's cached payloads,
// holds the resulting state and attributes, and guards against transient
// zero readings and panicking derivations. The connectivity entity
// mirrors the synthesised cycle-outcome record as an on/off state.
package entity
