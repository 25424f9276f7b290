// Package translation resolves a translation request to exactly one outcome.
// Standard language pairs go to machine translation with a generative
// fallback; pairs involving a minority language are served from the
// community phrase dictionary and optionally polished by a generative model.
// Every successful resolution is appended to the translation history.
package translation
