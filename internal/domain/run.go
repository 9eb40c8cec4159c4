package domain

// Canonical plot filenames in their fixed semantic order. A Run's Images
// slice always has one slot per entry, empty when the file is missing.
var CanonicalImages = [4]string{
	"power-over-time.png",
	"total-energy-per-node.png",
	"current-over-time.png",
	"smoothed-voltage.png",
}

// ImageSlots is the fixed number of plot positions a Run exposes.
const ImageSlots = len(CanonicalImages)

// ProcessorSocket describes one physical processor package.
type ProcessorSocket struct {
	Slot         string         `json:"slot,omitempty"`
	Vendor       string         `json:"vendor,omitempty"`
	Model        string         `json:"model,omitempty"`
	Cores        *int           `json:"cores,omitempty"`
	Threads      *int           `json:"threads,omitempty"`
	Architecture string         `json:"architecture,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Metrics holds the optional energy measurements of a run. A nil field
// means the value is unknown, never zero.
type Metrics struct {
	AvgPowerW  *float64 `json:"avg_power_w,omitempty"`
	PeakPowerW *float64 `json:"peak_power_w,omitempty"`
	EnergyWh   *float64 `json:"energy_wh,omitempty"`
}

// Empty reports whether no measurement is present at all.
func (m Metrics) Empty() bool {
	return m.AvgPowerW == nil && m.PeakPowerW == nil && m.EnergyWh == nil
}

// Run is the canonical row schema the query engine operates on. It is
// built once per refresh and held immutably until the next refresh
// replaces the whole collection.
type Run struct {
	ID              string            `json:"id"`
	User            string            `json:"user"`
	UserDisplay     string            `json:"user_display"`
	AffiliationName string            `json:"affiliation_name,omitempty"`
	AffiliationROR  string            `json:"affiliation_ror,omitempty"`
	Node            string            `json:"node,omitempty"`
	CPULabel        string            `json:"cpu_label"`
	Cores           int               `json:"cores"`
	Threads         int               `json:"threads"`
	Sockets         int               `json:"sockets"`
	SocketDetails   []ProcessorSocket `json:"socket_details,omitempty"`

	// ThreadingEnabled is tri-state: nil means the manifest did not say,
	// which renders differently from an explicit false.
	ThreadingEnabled *bool `json:"threading_enabled,omitempty"`

	AvgPowerW  *float64 `json:"avg_power_w,omitempty"`
	PeakPowerW *float64 `json:"peak_power_w,omitempty"`
	EnergyWh   *float64 `json:"energy_wh,omitempty"`

	Created         string `json:"created"`
	PublicationLink string `json:"zenodo,omitempty"`

	// Images holds the four canonical plot locations, empty-string
	// placeholders for missing files so the grid stays stable.
	Images []string `json:"images"`
}

// Metrics returns the run's measurements as a Metrics value.
func (r Run) Metrics() Metrics {
	return Metrics{AvgPowerW: r.AvgPowerW, PeakPowerW: r.PeakPowerW, EnergyWh: r.EnergyWh}
}

// DisplayName is the name shown in ranked views.
func (r Run) DisplayName() string {
	if r.UserDisplay != "" {
		return r.UserDisplay
	}
	return r.User
}
