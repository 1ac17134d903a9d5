package version

// Version is overridden at build time with
// -ldflags "-X github.com/ReEnvision-AI/focus/version.Version=1.2.3"
var Version = "0.0.0"
