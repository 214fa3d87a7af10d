package parley

// Version is set at build time with
// -ldflags "-X github.com/aretw0/parley.Version=v1.2.3".
var Version = "dev"
