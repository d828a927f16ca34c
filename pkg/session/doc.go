/*
Package session serializes work per subject and persists questionnaire progress.

Manager gives each subject an exclusive section: a process-local queue served in
arrival order, optionally backed by a distributed lock so several replicas can
share one store. Dispatcher runs inbound events through the questionnaire engine
inside that section and saves after every applied step, so a crash never loses
more than the event in flight.
*/
package session
