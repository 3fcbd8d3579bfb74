package triage

import (
	"strings"

	"github.com/ngophungianghi/careai-server/internal/clinic"
)

// Recommendation is the booking-facing result of a triage turn: which
// specialty the agent suggested and which known doctors match it.
type Recommendation struct {
	Specialty       clinic.Specialty `json:"specialty,omitempty"`
	DoctorIDs       []string         `json:"doctor_ids"`
	ClinicalSummary string           `json:"clinical_summary,omitempty"`
}

// Resolve maps a parsed reply onto the currently known doctor set. An
// unknown specialty or an id list with no surviving ids yields an empty
// recommendation, never an error.
func Resolve(parsed ParsedReply, known []*clinic.Doctor) Recommendation {
	rec := Recommendation{
		DoctorIDs:       []string{},
		ClinicalSummary: parsed.ClinicalSummary,
	}

	switch parsed.Kind {
	case DirectiveSpecialty:
		spec, ok := clinic.ParseSpecialty(parsed.SpecialtyName)
		if !ok {
			return rec
		}
		rec.Specialty = spec
		for _, d := range known {
			if strings.EqualFold(string(d.Specialty), string(spec)) {
				rec.DoctorIDs = append(rec.DoctorIDs, d.ID)
			}
		}
	case DirectiveLegacyIDList:
		byID := make(map[string]struct{}, len(known))
		for _, d := range known {
			byID[d.ID] = struct{}{}
		}
		for _, id := range parsed.DoctorIDs {
			if _, ok := byID[id]; ok {
				rec.DoctorIDs = append(rec.DoctorIDs, id)
			}
		}
	}
	return rec
}
