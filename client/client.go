// Package client constructs sessions. It is the only entry point; the
// implementation lives in the internal packages.
package client

import (
	"github.com/crateandcrypt/netclient"
	"github.com/crateandcrypt/netclient/internal/session"
)

// New builds a session from the config and collaborators and starts its
// network tick. Any collaborator may be nil; the corresponding calls are
// skipped.
//
// Example:
//
//	cfg := netclient.DefaultConfig()
//	cfg.ServerURL = "ws://localhost:8080/ws"
//	s := client.New(cfg, renderer, ui, input)
//	if err := s.Connect(); err != nil {
//	    log.Fatal(err)
//	}
func New(cfg *netclient.Config, renderer netclient.Renderer, ui netclient.UI, input netclient.InputSource) netclient.Session {
	return session.New(cfg, renderer, ui, input)
}
