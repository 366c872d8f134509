package systems

import "github.com/pthm-cable/thermoscape/telemetry"

// PhaseInfo describes one pipeline phase. IDs match the perf collector keys.
type PhaseInfo struct {
	ID          string // Perf tracking key
	Name        string // Display name
	Description string
	Stage       string // "generation" or "simulation"
}

// PhaseRegistry holds metadata about every pipeline phase in run order.
type PhaseRegistry struct {
	phases []PhaseInfo
	byID   map[string]PhaseInfo
}

// NewPhaseRegistry creates a registry with all known phases.
func NewPhaseRegistry() *PhaseRegistry {
	reg := &PhaseRegistry{
		byID: make(map[string]PhaseInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds the built-in phases. Update this when adding a phase.
func (r *PhaseRegistry) registerDefaults() {
	// Generation, once per Generate call
	r.Register(PhaseInfo{ID: telemetry.PhaseNoise, Name: "Noise", Description: "Builds height and covering fields", Stage: "generation"})
	r.Register(PhaseInfo{ID: telemetry.PhaseClassify, Name: "Classify", Description: "Maps heights to tile types", Stage: "generation"})
	r.Register(PhaseInfo{ID: telemetry.PhaseZones, Name: "Zones", Description: "Flood fills zones and landmasses", Stage: "generation"})
	r.Register(PhaseInfo{ID: telemetry.PhaseNetwork, Name: "Network", Description: "Creates and wires monitors", Stage: "generation"})

	// Simulation, once per tick
	r.Register(PhaseInfo{ID: telemetry.PhaseDiffusion, Name: "Diffusion", Description: "Moves temperature between neighbors", Stage: "simulation"})
	r.Register(PhaseInfo{ID: telemetry.PhasePublish, Name: "Publish", Description: "Records tick events and flushes stats windows", Stage: "simulation"})
}

// Register adds a phase to the registry.
func (r *PhaseRegistry) Register(info PhaseInfo) {
	r.phases = append(r.phases, info)
	r.byID[info.ID] = info
}

// Get returns phase info by ID.
func (r *PhaseRegistry) Get(id string) (PhaseInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a phase ID.
// Falls back to the ID itself if not found.
func (r *PhaseRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered phases.
func (r *PhaseRegistry) All() []PhaseInfo {
	return r.phases
}

// IDs returns all phase IDs in registration order.
func (r *PhaseRegistry) IDs() []string {
	ids := make([]string, len(r.phases))
	for i, info := range r.phases {
		ids[i] = info.ID
	}
	return ids
}
