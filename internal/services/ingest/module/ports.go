package module

import dom "keycap/internal/services/ingest/domain"

// Ports holds the ports exposed by the ingest module
type Ports struct {
	Sink dom.ServicePort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
