/*
Package generation produces plan artifacts from completed questionnaires.

The Orchestrator builds a prompt from the answers (embedded text/template files
under prompts/), calls a ports.Provider with a per-attempt timeout and a retry
budget, then stores the artifact. Generation and persistence are reported
separately so a plan reaches the subject even when it could not be stored.
*/
package generation
