package triage

import (
	"encoding/json"
	"strings"
)

// DirectiveKind tags which recommendation form, if any, an agent reply carried.
type DirectiveKind int

const (
	DirectiveNone DirectiveKind = iota
	DirectiveSpecialty
	DirectiveLegacyIDList
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveSpecialty:
		return "specialty"
	case DirectiveLegacyIDList:
		return "legacy_id_list"
	default:
		return "none"
	}
}

const (
	specialtyTagPrefix = "ACTION:SHOW_BOOKING_LINK:"
	summaryTagPrefix   = "SUMMARY:"
)

// ParsedReply is the structured view of an agent reply after directive
// extraction. SpecialtyName is the raw value as written by the agent; it may
// not resolve to a known specialty.
type ParsedReply struct {
	DisplayText     string
	Kind            DirectiveKind
	SpecialtyName   string
	DoctorIDs       []string
	ClinicalSummary string
}

// ParseReply scans an agent reply for embedded directives, strips the ones
// that match the grammar, and leaves everything else in the display text.
// It never fails: a malformed or unterminated directive simply stays visible.
func ParseReply(raw string) ParsedReply {
	var parsed ParsedReply
	var display strings.Builder

	rest := raw
	for {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			display.WriteString(rest)
			break
		}
		display.WriteString(rest[:open])

		closeOff := strings.IndexByte(rest[open:], ']')
		if closeOff < 0 {
			// Unterminated bracket stays visible.
			display.WriteString(rest[open:])
			break
		}
		inner := rest[open+1 : open+closeOff]

		switch {
		case strings.HasPrefix(inner, specialtyTagPrefix):
			name := strings.TrimSpace(inner[len(specialtyTagPrefix):])
			if name == "" {
				// Tag with no specialty name does not match the grammar.
				display.WriteString(rest[open : open+1])
				rest = rest[open+1:]
				continue
			}
			if parsed.Kind != DirectiveSpecialty {
				parsed.Kind = DirectiveSpecialty
				parsed.SpecialtyName = name
			}
			rest = rest[open+closeOff+1:]
		case strings.HasPrefix(inner, summaryTagPrefix):
			if parsed.ClinicalSummary == "" {
				parsed.ClinicalSummary = strings.TrimSpace(inner[len(summaryTagPrefix):])
			}
			rest = rest[open+closeOff+1:]
		default:
			// Not a directive. Emit the bracket and rescan from the next
			// byte so a directive nested after it is still found.
			display.WriteString(rest[open : open+1])
			rest = rest[open+1:]
		}
	}

	text := display.String()
	if parsed.Kind == DirectiveNone {
		if ids, stripped, ok := extractLegacyIDList(text); ok {
			parsed.Kind = DirectiveLegacyIDList
			parsed.DoctorIDs = ids
			text = stripped
		}
	}
	parsed.DisplayText = strings.TrimSpace(text)
	return parsed
}

type legacyPayload struct {
	RecommendedDoctorIDs []string `json:"recommended_doctor_ids"`
	RecommendedCamel     []string `json:"recommendedDoctorIds"`
}

func (p legacyPayload) ids() []string {
	if len(p.RecommendedDoctorIDs) > 0 {
		return p.RecommendedDoctorIDs
	}
	return p.RecommendedCamel
}

// extractLegacyIDList handles the older reply form where the agent emits a
// fenced code block, or a bare object literal, holding a doctor id list.
func extractLegacyIDList(text string) (ids []string, stripped string, ok bool) {
	if ids, stripped, ok = extractFencedIDList(text); ok {
		return ids, stripped, true
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, "", false
	}
	var payload legacyPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return nil, "", false
	}
	if payload.ids() == nil {
		return nil, "", false
	}
	return payload.ids(), text[:start] + text[end+1:], true
}

func extractFencedIDList(text string) (ids []string, stripped string, ok bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return nil, "", false
	}
	rest := text[start+3:]
	end := strings.Index(rest, "```")
	if end < 0 {
		return nil, "", false
	}
	inner := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest[:end]), "json"))

	var payload legacyPayload
	if err := json.Unmarshal([]byte(inner), &payload); err != nil {
		return nil, "", false
	}
	if payload.ids() == nil {
		return nil, "", false
	}
	return payload.ids(), text[:start] + rest[end+3:], true
}
