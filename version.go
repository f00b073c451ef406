package scripthost

// Version is the release of the host, printed by the CLI.
const Version = "v0.3.0"
