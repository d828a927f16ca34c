/*
Package ports defines the driven ports (interfaces) of the questionnaire core.

These interfaces decouple the dispatcher and the generation orchestrator from
concrete storage backends, lock services and text-generation vendors.

# Key Interfaces

  - SessionStore: Persists and loads the session of a subject.
  - DistributedLocker: Coordinates per-subject exclusivity across replicas.
  - Provider: Turns a prompt into generated text.
*/
package ports
