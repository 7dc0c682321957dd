package usecase

import (
	"fmt"
	"strings"

	"legal-letter-ai/internal/domain"
	"legal-letter-ai/internal/domain/model"
)

const minIncidentDescription = 20

// ValidatePayload enforces the job-data contract. All violations wrap
// domain.ErrInvalidArgument so they classify as missing required
// information.
func ValidatePayload(p *model.GenerationPayload) error {
	var missing []string
	for _, f := range []struct{ name, val string }{
		{"letterId", p.LetterID},
		{"firmId", p.FirmID},
		{"requestedBy", p.RequestedBy},
		{"caseType", p.CaseType},
		{"incidentDate", p.IncidentDate},
		{"clientName", p.ClientName},
		{"defendantName", p.DefendantName},
	} {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", domain.ErrInvalidArgument, strings.Join(missing, ", "))
	}
	if len(strings.TrimSpace(p.IncidentDescription)) < minIncidentDescription {
		return fmt.Errorf("%w: incidentDescription must be at least %d characters", domain.ErrInvalidArgument, minIncidentDescription)
	}
	if p.Tone != "" && !p.Tone.Valid() {
		return fmt.Errorf("%w: unknown tone %q", domain.ErrInvalidArgument, p.Tone)
	}
	if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 1) {
		return fmt.Errorf("%w: temperature must be between 0 and 1", domain.ErrInvalidArgument)
	}
	if p.MaxTokens != nil && (*p.MaxTokens < 100 || *p.MaxTokens > 4096) {
		return fmt.Errorf("%w: maxTokens must be between 100 and 4096", domain.ErrInvalidArgument)
	}
	return nil
}
