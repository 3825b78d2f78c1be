package stencil

// Version is the library and CLI release version.
var Version = "0.1.0"
