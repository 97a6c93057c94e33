// File: cmd/version.go
package cmd

// Version is the application version, set at build time using ldflags:
//
//	go build -ldflags "-X github.com/veiloak/rednote-cli/cmd.Version=1.0.0"
var Version = "0.1.0-dev"
