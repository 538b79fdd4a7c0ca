package sim

import (
	"fmt"
	"sort"
)

// PagePath returns the path of the n-th page (1-based) an origin serves.
func PagePath(n int) string {
	return fmt.Sprintf("path-%d/page.html", n)
}

// OriginServer is a fixed, read-only path → document map for one domain.
type OriginServer struct {
	domain string
	pages  map[string]string
}

// NewOriginServer builds an origin for domain serving pages PagePath(1..numPages).
func NewOriginServer(domain string, numPages int) *OriginServer {
	pages := make(map[string]string, numPages)
	for p := 1; p <= numPages; p++ {
		path := PagePath(p)
		pages[path] = fmt.Sprintf("< A page from %s/%s >", domain, path)
	}
	return &OriginServer{domain: domain, pages: pages}
}

// Domain returns the key this origin is reachable under.
func (o *OriginServer) Domain() string { return o.domain }

// Get returns the document at path. Panics on an unknown path.
func (o *OriginServer) Get(path string) string {
	doc, ok := o.pages[path]
	if !ok {
		panic(fmt.Sprintf("OriginServer.Get: domain %s has no page %q", o.domain, path))
	}
	return doc
}

// Paths returns the served paths in sorted order.
func (o *OriginServer) Paths() []string {
	paths := make([]string, 0, len(o.pages))
	for p := range o.pages {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
