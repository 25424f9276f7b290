// Package processor wires configuration into the translation services and
// carries out each CLI command. It is the coordinator between the resolver,
// the community backend, local storage, speech and the HTTP API.
package processor
