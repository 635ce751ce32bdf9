package rag

import (
	"strings"
	"sync"
)

type Verdict int

const (
	Rejected Verdict = iota
	Accepted
)

// Gate holds the credential most recently accepted by the process. Index
// handles stay keyed per credential in the IndexCache, so replacing the
// active credential never evicts another credential's handle.
type Gate struct {
	mu     sync.Mutex
	active string
}

func NewGate() *Gate {
	return &Gate{}
}

// Validate rejects an empty or blank credential and otherwise installs it as
// the active one.
func (g *Gate) Validate(credential string) Verdict {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Rejected
	}

	g.mu.Lock()
	g.active = credential
	g.mu.Unlock()
	return Accepted
}

// Active returns the installed credential, or "" if none.
func (g *Gate) Active() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Revoke clears the active credential if it is still credential.
func (g *Gate) Revoke(credential string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == strings.TrimSpace(credential) {
		g.active = ""
	}
}
