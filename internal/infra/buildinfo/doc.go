// Package buildinfo exposes version metadata injected at build time.
//
//	go build -ldflags "-X github.com/chatvault/chatvault-go/internal/infra/buildinfo.Version=v1.0.0"
package buildinfo
