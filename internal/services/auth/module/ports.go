package module

import authsvc "keycap/internal/services/auth/service"

// Ports holds the ports exposed by the auth module
type Ports struct {
	// Service answers both account workflows and token parsing
	Service authsvc.Service
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
