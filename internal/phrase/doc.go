// Package phrase provides the session cache of community-approved phrase
// pairs for minority languages and the substring search used to match a
// user's input against them.
package phrase
