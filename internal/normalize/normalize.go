// Package normalize maps heterogeneous manifest records onto the
// canonical row schema. Normalization is total: every missing or
// malformed field degrades to a documented default, and a record is
// never rejected here.
package normalize

import (
	"strings"

	"github.com/energy-blueprint/leaderboard/internal/domain"
)

// Options carries the context a single manifest cannot supply itself.
type Options struct {
	// FallbackUser is the submission folder's user segment, used when the
	// manifest and author object name nobody.
	FallbackUser string

	// FallbackRunID is the run folder name, used when run_id is absent.
	FallbackRunID string

	// Override replaces the manifest's embedded metrics wholesale when
	// non-nil. The visualization step may compute more precise numbers
	// after the manifest is written; when it did, its document wins, not
	// a per-field merge.
	Override *domain.Metrics

	// Images maps lowercased canonical filenames to their locations.
	// Slots without a match stay empty.
	Images map[string]string
}

// Manifest builds one canonical Run from a raw manifest.
func Manifest(raw domain.RawManifest, opts Options) domain.Run {
	user := firstNonEmpty(
		raw.Author.Handle.Val(),
		raw.Author.AlternateName.Val(),
		raw.Username.Val(),
		opts.FallbackUser,
		"unknown",
	)

	run := domain.Run{
		ID:               firstNonEmpty(raw.RunID.Val(), opts.FallbackRunID, "unknown"),
		User:             user,
		UserDisplay:      displayName(raw.Author, user),
		AffiliationName:  raw.Author.AffiliationName.Val(),
		AffiliationROR:   raw.Author.AffiliationROR.Val(),
		Node:             raw.Node.Val(),
		CPULabel:         cpuLabel(raw.Processor),
		ThreadingEnabled: raw.ThreadingEnabled.Ptr(),
		Created:          raw.Created.Val(),
		PublicationLink:  raw.ZenodoHTML.Val(),
		Images:           imageSlots(opts.Images),
	}

	run.Sockets = len(raw.Processor)
	run.Cores, run.Threads = totals(raw.Processor)
	if run.Sockets > 1 {
		run.SocketDetails = socketDetails(raw.Processor)
	}

	metrics := raw.Metrics.Metrics()
	if opts.Override != nil {
		metrics = *opts.Override
	}
	run.AvgPowerW = metrics.AvgPowerW
	run.PeakPowerW = metrics.PeakPowerW
	run.EnergyWh = metrics.EnergyWh

	return run
}

// displayName resolves the human-readable name through the ordered alias
// chain the manifest accumulated over its evolution. Adding a new alias
// means appending one step here.
func displayName(a domain.RawAuthor, fallback string) string {
	if v := a.DisplayName.Val(); v != "" {
		return v
	}
	if v := a.Name.Val(); v != "" {
		return v
	}
	given, family := a.GivenName.Val(), a.FamilyName.Val()
	if joined := strings.TrimSpace(given + " " + family); joined != "" {
		return joined
	}
	if v := a.AlternateName.Val(); v != "" {
		return v
	}
	if v := a.Handle.Val(); v != "" {
		return v
	}
	if fallback != "" {
		return fallback
	}
	return "unknown"
}

// cpuLabel summarizes the first socket only; multi-socket detail lives in
// SocketDetails.
func cpuLabel(sockets domain.RawSocketList) string {
	if len(sockets) == 0 {
		return "unknown"
	}
	first := sockets[0]
	label := strings.TrimSpace(first.Vendor.Val() + " " + first.Model.Val())
	if label == "" {
		return "unknown"
	}
	return label
}

// totals sums core and thread counts across every socket. A missing count
// contributes 0, which under-counts capacity when a socket omits data;
// the manifest is the submitter's ground truth and is not corrected.
func totals(sockets domain.RawSocketList) (cores, threads int) {
	for _, s := range sockets {
		if c := s.Cores.Ptr(); c != nil {
			cores += *c
		}
		if t := s.Threads.Ptr(); t != nil {
			threads += *t
		}
	}
	return cores, threads
}

func socketDetails(sockets domain.RawSocketList) []domain.ProcessorSocket {
	out := make([]domain.ProcessorSocket, 0, len(sockets))
	for _, s := range sockets {
		out = append(out, domain.ProcessorSocket{
			Slot:         s.Slot.Val(),
			Vendor:       s.Vendor.Val(),
			Model:        s.Model.Val(),
			Cores:        s.Cores.Ptr(),
			Threads:      s.Threads.Ptr(),
			Architecture: s.Architecture.Val(),
			Extra:        s.Extra,
		})
	}
	return out
}

// imageSlots fills the fixed four-slot plot array. Matching is an exact
// case-insensitive filename comparison; anything else in the image
// directory is ignored.
func imageSlots(available map[string]string) []string {
	slots := make([]string, domain.ImageSlots)
	for i, name := range domain.CanonicalImages {
		if loc, ok := available[strings.ToLower(name)]; ok {
			slots[i] = loc
		}
	}
	return slots
}

// ImageSlots exposes slot assignment for callers that list a run's image
// directory themselves. Keys may be any case.
func ImageSlots(available map[string]string) []string {
	lowered := make(map[string]string, len(available))
	for name, loc := range available {
		lowered[strings.ToLower(name)] = loc
	}
	return imageSlots(lowered)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
