// Package llm adapts hosted and local language-model SDKs to ports.Provider.
//
// Every client sends a single user message and returns the plain text of the
// reply. Timeouts come from the caller's context; classification of failures
// into generation causes is the orchestrator's job.
package llm
