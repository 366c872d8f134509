package components

// FieldDescriptor describes a published per-cell field for consumers.
type FieldDescriptor struct {
	ID     string  // Layer name
	Label  string  // Display name
	Format string  // Printf format (e.g., "%.2f")
	Min    float64 // Minimum expected value (for color ramps)
	Max    float64 // Maximum expected value
	Group  string  // Logical grouping
}

// Layer names published by the simulation.
const (
	LayerTemperature = "temperature"
	LayerTiles       = "tiles"
	LayerCoverings   = "coverings"
)

// LayerFieldDescriptors returns metadata for every layer the simulation publishes.
func LayerFieldDescriptors() []FieldDescriptor {
	return []FieldDescriptor{
		{ID: LayerTemperature, Label: "Temperature", Format: "%.2f", Min: 0, Max: 100, Group: "simulation"},
		{ID: LayerTiles, Label: "Tile", Format: "%s", Group: "terrain"},
		{ID: LayerCoverings, Label: "Grass density", Format: "%.2f", Min: 0, Max: 1, Group: "terrain"},
	}
}

// FieldDescriptorByID returns the descriptor for a layer name.
func FieldDescriptorByID(id string) (FieldDescriptor, bool) {
	for _, d := range LayerFieldDescriptors() {
		if d.ID == id {
			return d, true
		}
	}
	return FieldDescriptor{}, false
}
