// Package version reports walletctl build information.
//
// Values are stamped at link time, falling back to the VCS settings the Go
// toolchain embeds:
//
//	go build -ldflags "-X github.com/kbukum/walletkit/version.Version=1.0.0" ./cmd/walletctl
package version
