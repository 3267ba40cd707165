package version

// Version is set at build time via ldflags and stamped into every status
// document as cli_version.
var Version = "dev"
