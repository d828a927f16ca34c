/*
Package domain holds the core types of the questionnaire: sessions, typed answers,
generated artifacts, inbound events, outbound instructions and the error taxonomy.

It has no dependencies on adapters and performs no I/O.
*/
package domain
