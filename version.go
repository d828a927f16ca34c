package fitcoach

// Version is the release of fitcoach. Overridden at build time with
// -ldflags "-X github.com/aretw0/fitcoach.Version=...".
var Version = "0.3.0"
