package service

import (
	"context"
	"strings"

	"github.com/goguixter/leads-backend/internal/model"
)

// MatchedField identifies which lead field collided with a candidate row.
type MatchedField string

const (
	MatchPhone MatchedField = "phone"
	MatchEmail MatchedField = "email"
	MatchName  MatchedField = "name"
)

// DuplicateMatch is one representative existing lead that collides with a
// candidate row, plus the exact set of fields that collide.
type DuplicateMatch struct {
	Lead   *model.Lead
	Fields []MatchedField
}

// DuplicateDetector finds existing leads that collide with incoming rows on
// phone, email or student name within one tenant.
type DuplicateDetector struct {
	leads LeadRepository
}

func NewDuplicateDetector(leads LeadRepository) *DuplicateDetector {
	return &DuplicateDetector{leads: leads}
}

// FindDuplicate returns the first colliding lead in the tenant, or nil. The
// matched-field set is recomputed against the returned lead for all three
// fields independently, so a record found via its phone still reports email
// or name overlap when those coincide too.
func (d *DuplicateDetector) FindDuplicate(ctx context.Context, partnerID, studentName, email, phoneE164 string) (*DuplicateMatch, error) {
	lead, err := d.leads.FindFirstMatch(ctx, partnerID, email, studentName, phoneE164)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, nil
	}

	return &DuplicateMatch{
		Lead:   lead,
		Fields: MatchFields(lead, studentName, email, phoneE164),
	}, nil
}

// MatchFields re-checks every dedup field of a candidate against an existing
// lead and returns the subset that holds.
func MatchFields(lead *model.Lead, studentName, email, phoneE164 string) []MatchedField {
	var fields []MatchedField
	if lead.PhoneE164 == phoneE164 {
		fields = append(fields, MatchPhone)
	}
	if strings.EqualFold(lead.Email, email) {
		fields = append(fields, MatchEmail)
	}
	if strings.EqualFold(lead.StudentName, studentName) {
		fields = append(fields, MatchName)
	}
	return fields
}

// duplicateFieldLabels renders the matched-field set for the row error
// message shown to operators.
func duplicateFieldLabels(fields []MatchedField) string {
	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		switch f {
		case MatchPhone:
			labels = append(labels, "telefone")
		case MatchEmail:
			labels = append(labels, "email")
		case MatchName:
			labels = append(labels, "nome")
		}
	}
	return strings.Join(labels, ", ")
}
