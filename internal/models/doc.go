// Package models lists the generative and speech models available to the
// configured API key, so users can pick values for llm.model and the
// text-to-speech model.
package models
