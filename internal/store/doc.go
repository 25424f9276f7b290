// Package store provides the small local key-value store that holds
// translation history, profile fields and learning progress. Values are
// JSON documents keyed by name, mirroring the on-device storage the mobile
// app used.
package store
