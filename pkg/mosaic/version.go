package mosaic

// Version is the release version of the mosaic module and CLI.
const Version = "0.1.0"
