package md2docx

import (
	"regexp"
	"strings"
)

// Requirement IDs look like {PREFIX}-{MODULE}-{NNN} with the prefix drawn
// from a closed set of document-type codes.
var requirementHeadingRe = regexp.MustCompile(
	`^(#{3,5})\s+((?:REQ|SRS|SYS|HLD|LLD|DES|TST|INT|SAF)-[A-Z][A-Z0-9]*-\d{3})(?:[:\s]\s*(.*))?$`)

// Labeled field lines: **Label:** value, with the colon inside or outside
// the bold markers. Both ASCII and fullwidth colons are accepted.
var fieldLabelRe = regexp.MustCompile(`^\*\*([^*]+?)[:：]?\*\*[:：]?\s*(.*)$`)

var horizontalRuleRe = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})\s*$`)

// Canonical field keys.
const (
	fieldDescription  = "description"
	fieldRationale    = "rationale"
	fieldPriority     = "priority"
	fieldSafetyClass  = "safetyClass"
	fieldVerification = "verificationMethod"
	fieldAcceptance   = "acceptanceCriteria"
)

// fieldSynonyms normalizes both field-naming dialects of the source corpus
// (statement/rationale/verification-method and description/priority/
// safety-classification) plus the Chinese labels into canonical fields.
// Adding a dialect is a data change, not a code change.
var fieldSynonyms = map[string]string{
	"statement":             fieldDescription,
	"description":           fieldDescription,
	"描述":                    fieldDescription,
	"需求描述":                  fieldDescription,
	"rationale":             fieldRationale,
	"理由":                    fieldRationale,
	"priority":              fieldPriority,
	"优先级":                   fieldPriority,
	"safety class":          fieldSafetyClass,
	"safety classification": fieldSafetyClass,
	"安全等级":                  fieldSafetyClass,
	"verification method":   fieldVerification,
	"verification":          fieldVerification,
	"验证方法":                  fieldVerification,
	"acceptance criteria":   fieldAcceptance,
	"验收标准":                  fieldAcceptance,
}

// extractRequirement parses a requirement block starting at lines[start].
// It returns the record and the index of the last line consumed. When the
// heading does not match the ID pattern it returns ok=false and the caller
// treats the line as an ordinary heading; this is a non-match, not an error.
func extractRequirement(lines []string, start int) (rec *RequirementRecord, last int, ok bool) {
	m := requirementHeadingRe.FindStringSubmatch(strings.TrimRight(lines[start], " \t"))
	if m == nil {
		return nil, start, false
	}

	rec = &RequirementRecord{
		ID:   m[2],
		Name: strings.TrimSpace(m[3]),
	}

	// lastField tracks where continuation lines are appended: a canonical
	// field key, "other:<label>" for unknown labels, or empty.
	var lastField string
	inCriteria := false
	last = start

	for i := start + 1; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")
		trimmed := strings.TrimSpace(line)

		// The next heading of any level, a horizontal rule, or a fenced
		// block ends the requirement.
		if strings.HasPrefix(trimmed, "#") || horizontalRuleRe.MatchString(trimmed) ||
			strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			return rec, last, true
		}

		if trimmed == "" {
			last = i
			continue
		}

		if inCriteria {
			if strings.HasPrefix(trimmed, "- ") {
				rec.AcceptanceCriteria = append(rec.AcceptanceCriteria, strings.TrimSpace(trimmed[2:]))
				last = i
				continue
			}
			// A non-bullet line ends criteria capture; fall through to
			// regular field handling below.
			inCriteria = false
		}

		if fm := fieldLabelRe.FindStringSubmatch(trimmed); fm != nil {
			label := strings.TrimSpace(fm[1])
			value := strings.TrimSpace(fm[2])
			canonical, known := fieldSynonyms[strings.ToLower(label)]

			switch {
			case known && canonical == fieldAcceptance:
				inCriteria = true
				lastField = ""
			case known:
				rec.setField(canonical, value)
				lastField = canonical
			default:
				rec.OtherFields = append(rec.OtherFields, LabeledValue{Label: label, Value: value})
				lastField = "other"
			}
			last = i
			continue
		}

		// Continuation of the previous paragraph field.
		rec.appendToField(lastField, trimmed)
		last = i
	}

	return rec, last, true
}

// setField assigns a canonical field by key.
func (r *RequirementRecord) setField(key, value string) {
	switch key {
	case fieldDescription:
		r.Description = value
	case fieldRationale:
		r.Rationale = value
	case fieldPriority:
		r.Priority = value
	case fieldSafetyClass:
		r.SafetyClass = value
	case fieldVerification:
		r.VerificationMethod = value
	}
}

// appendToField joins a continuation line onto the last written field with
// a separating space. Lines outside any labeled field extend the
// description, so unlabeled prose under the heading is not lost.
func (r *RequirementRecord) appendToField(key, text string) {
	join := func(existing string) string {
		if existing == "" {
			return text
		}
		return existing + " " + text
	}
	switch key {
	case fieldDescription:
		r.Description = join(r.Description)
	case fieldRationale:
		r.Rationale = join(r.Rationale)
	case fieldPriority:
		r.Priority = join(r.Priority)
	case fieldSafetyClass:
		r.SafetyClass = join(r.SafetyClass)
	case fieldVerification:
		r.VerificationMethod = join(r.VerificationMethod)
	case "other":
		if n := len(r.OtherFields); n > 0 {
			r.OtherFields[n-1].Value = join(r.OtherFields[n-1].Value)
		}
	default:
		r.Description = join(r.Description)
	}
}
