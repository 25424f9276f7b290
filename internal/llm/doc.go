// Package llm provides the generative language backends used for the
// fallback translation, the polish step and the chat tutor. Gemini, OpenAI
// and the hosted Gemini proxy all sit behind the Generator interface and are
// selected by configuration.
package llm
