package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Manifests are semi-trusted: any field may be absent, renamed by an older
// pipeline version, or carry the wrong type. Decoding therefore never
// fails on a single bad field; only a document that is not a JSON object
// at all is rejected. The Loose* types absorb type mismatches per field.

// LooseString decodes a JSON string and silently ignores anything else.
type LooseString struct {
	value string
	ok    bool
}

func (s *LooseString) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err == nil {
		s.value, s.ok = v, true
	}
	return nil
}

// Val returns the decoded string, empty when absent or mistyped.
func (s LooseString) Val() string { return s.value }

// Present reports whether a string value was decoded.
func (s LooseString) Present() bool { return s.ok }

// LooseInt decodes a JSON number (truncated) or a numeric string.
type LooseInt struct {
	value int
	ok    bool
}

func (i *LooseInt) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		i.value, i.ok = int(f), true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			i.value, i.ok = n, true
		}
	}
	return nil
}

// Ptr returns the decoded value, nil when absent, mistyped or negative.
func (i LooseInt) Ptr() *int {
	if !i.ok || i.value < 0 {
		return nil
	}
	v := i.value
	return &v
}

// LooseFloat decodes a JSON number or a numeric string.
type LooseFloat struct {
	value float64
	ok    bool
}

func (f *LooseFloat) UnmarshalJSON(b []byte) error {
	var v float64
	if err := json.Unmarshal(b, &v); err == nil {
		f.value, f.ok = v, true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			f.value, f.ok = n, true
		}
	}
	return nil
}

// Ptr returns the decoded value or nil when absent or mistyped.
func (f LooseFloat) Ptr() *float64 {
	if !f.ok {
		return nil
	}
	v := f.value
	return &v
}

// LooseBool decodes a JSON boolean and ignores anything else.
type LooseBool struct {
	value bool
	ok    bool
}

func (b *LooseBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		b.value, b.ok = v, true
	}
	return nil
}

// Ptr returns the tri-state boolean: nil when the manifest did not say.
func (b LooseBool) Ptr() *bool {
	if !b.ok {
		return nil
	}
	v := b.value
	return &v
}

// RawAuthor carries every author field name observed across the
// manifest's evolution. Resolution into a display name and handle is an
// explicit ordered chain in the normalizer, not field-guessing here.
type RawAuthor struct {
	DisplayName     LooseString `json:"display_name"`
	Name            LooseString `json:"name"`
	GivenName       LooseString `json:"given_name"`
	FamilyName      LooseString `json:"family_name"`
	AlternateName   LooseString `json:"alternateName"`
	Handle          LooseString `json:"handle"`
	ORCID           LooseString `json:"orcid"`
	AffiliationName LooseString `json:"affiliation_name"`
	AffiliationROR  LooseString `json:"affiliation_ror"`
}

func (a *RawAuthor) UnmarshalJSON(b []byte) error {
	type alias RawAuthor
	var v alias
	if err := json.Unmarshal(b, &v); err == nil {
		*a = RawAuthor(v)
	}
	return nil
}

// RawSocket is one processor descriptor. Unknown keys are preserved
// opaquely in Extra; sockets are the only place the manifest allows
// submitter-defined extensions.
type RawSocket struct {
	Slot         LooseString
	Vendor       LooseString
	Model        LooseString
	Cores        LooseInt
	Threads      LooseInt
	Architecture LooseString
	Extra        map[string]any
}

var socketKnownKeys = map[string]bool{
	"slot": true, "vendor": true, "model": true,
	"cores": true, "threads": true, "architecture": true,
}

func (s *RawSocket) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil
	}
	decode := func(key string, dst json.Unmarshaler) {
		if raw, ok := fields[key]; ok {
			_ = dst.UnmarshalJSON(raw)
		}
	}
	decode("slot", &s.Slot)
	decode("vendor", &s.Vendor)
	decode("model", &s.Model)
	decode("cores", &s.Cores)
	decode("threads", &s.Threads)
	decode("architecture", &s.Architecture)
	for key, raw := range fields {
		if socketKnownKeys[key] {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		if s.Extra == nil {
			s.Extra = map[string]any{}
		}
		s.Extra[key] = v
	}
	return nil
}

// RawSocketList tolerates a missing, null or mistyped processor list and
// skips elements that are not objects.
type RawSocketList []RawSocket

func (l *RawSocketList) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return nil
	}
	out := make(RawSocketList, 0, len(items))
	for _, item := range items {
		if !bytes.HasPrefix(bytes.TrimSpace(item), []byte("{")) {
			continue
		}
		var s RawSocket
		_ = s.UnmarshalJSON(item)
		out = append(out, s)
	}
	*l = out
	return nil
}

// RawMetrics mirrors the metrics sub-object of the manifest and of the
// supplementary metrics document.
type RawMetrics struct {
	AvgPowerW  LooseFloat `json:"avg_power_w"`
	PeakPowerW LooseFloat `json:"peak_power_w"`
	EnergyWh   LooseFloat `json:"energy_wh"`
}

func (m *RawMetrics) UnmarshalJSON(b []byte) error {
	type alias RawMetrics
	var v alias
	if err := json.Unmarshal(b, &v); err == nil {
		*m = RawMetrics(v)
	}
	return nil
}

// Metrics converts the decoded values, dropping absent fields.
func (m RawMetrics) Metrics() Metrics {
	return Metrics{
		AvgPowerW:  m.AvgPowerW.Ptr(),
		PeakPowerW: m.PeakPowerW.Ptr(),
		EnergyWh:   m.EnergyWh.Ptr(),
	}
}

// RawManifest is the per-run metadata document written by the experiment
// pipeline.
type RawManifest struct {
	RunID            LooseString   `json:"run_id"`
	Node             LooseString   `json:"node"`
	Created          LooseString   `json:"created"`
	Username         LooseString   `json:"username"`
	Author           RawAuthor     `json:"author"`
	Processor        RawSocketList `json:"processor"`
	ThreadingEnabled LooseBool     `json:"threading_enabled"`
	Metrics          RawMetrics    `json:"metrics"`
	ZenodoHTML       LooseString   `json:"zenodo_html"`
}

// ErrNotObject marks a manifest document whose top level is not a JSON
// object. This is the only shape error that rejects a manifest outright.
var ErrNotObject = errors.New("manifest is not a JSON object")

// DecodeManifest parses a manifest document. Individual bad fields
// degrade to their zero values; only an unreadable document errors.
func DecodeManifest(data []byte) (RawManifest, error) {
	trimmed := bytes.TrimSpace(data)
	if !bytes.HasPrefix(trimmed, []byte("{")) {
		return RawManifest{}, ErrNotObject
	}
	var m RawManifest
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return RawManifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// DecodeHardware parses an optional hardware.json and returns its
// processor list. The document is either the node-info object itself or
// keyed by node name; the first value carrying a processor list wins.
func DecodeHardware(data []byte) (RawSocketList, error) {
	trimmed := bytes.TrimSpace(data)
	if !bytes.HasPrefix(trimmed, []byte("{")) {
		return nil, ErrNotObject
	}
	var top struct {
		Processor RawSocketList `json:"processor"`
	}
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return nil, fmt.Errorf("decode hardware: %w", err)
	}
	if len(top.Processor) > 0 {
		return top.Processor, nil
	}

	var byNode map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &byNode); err != nil {
		return nil, fmt.Errorf("decode hardware: %w", err)
	}
	for _, raw := range byNode {
		var nested struct {
			Processor RawSocketList `json:"processor"`
		}
		if err := json.Unmarshal(raw, &nested); err != nil {
			continue
		}
		if len(nested.Processor) > 0 {
			return nested.Processor, nil
		}
	}
	return nil, nil
}

// DecodeMetrics parses a supplementary metrics document, accepting either
// a bare metrics object or one nested under a "metrics" key.
func DecodeMetrics(data []byte) (Metrics, error) {
	trimmed := bytes.TrimSpace(data)
	if !bytes.HasPrefix(trimmed, []byte("{")) {
		return Metrics{}, ErrNotObject
	}
	var nested struct {
		Metrics *RawMetrics `json:"metrics"`
	}
	if err := json.Unmarshal(trimmed, &nested); err != nil {
		return Metrics{}, fmt.Errorf("decode metrics: %w", err)
	}
	if nested.Metrics != nil {
		return nested.Metrics.Metrics(), nil
	}
	var bare RawMetrics
	if err := json.Unmarshal(trimmed, &bare); err != nil {
		return Metrics{}, fmt.Errorf("decode metrics: %w", err)
	}
	return bare.Metrics(), nil
}
