package usecase

import (
	"errors"
	"strings"
	"testing"

	"legal-letter-ai/internal/domain"
	"legal-letter-ai/internal/domain/model"
)

func validPayload() model.GenerationPayload {
	return model.GenerationPayload{
		LetterID:            "letter-1",
		FirmID:              "firm-1",
		RequestedBy:         "user-1",
		CaseType:            "personal_injury",
		IncidentDate:        "2025-03-14",
		IncidentDescription: "Client was rear-ended at a red light on Main Street and suffered whiplash.",
		ClientName:          "Jane Roe",
		DefendantName:       "Acme Logistics LLC",
	}
}

func TestValidatePayloadOK(t *testing.T) {
	p := validPayload()
	if err := ValidatePayload(&p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidatePayloadMissingFields(t *testing.T) {
	p := validPayload()
	p.ClientName = ""
	p.CaseType = "  "
	err := ValidatePayload(&p)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
	for _, field := range []string{"caseType", "clientName"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not name missing field %s", err, field)
		}
	}
}

func TestValidatePayloadShortDescription(t *testing.T) {
	p := validPayload()
	p.IncidentDescription = "too short"
	if err := ValidatePayload(&p); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
}

func TestValidatePayloadUnknownTone(t *testing.T) {
	p := validPayload()
	p.Tone = model.Tone("sarcastic")
	if err := ValidatePayload(&p); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
	p.Tone = model.ToneFirm
	if err := ValidatePayload(&p); err != nil {
		t.Fatalf("valid tone rejected: %v", err)
	}
}

func TestValidatePayloadTemperatureBounds(t *testing.T) {
	p := validPayload()
	bad := 1.5
	p.Temperature = &bad
	if err := ValidatePayload(&p); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
	ok := 0.3
	p.Temperature = &ok
	if err := ValidatePayload(&p); err != nil {
		t.Fatalf("valid temperature rejected: %v", err)
	}
}

func TestValidatePayloadMaxTokensBounds(t *testing.T) {
	p := validPayload()
	for _, bad := range []int{50, 99, 5000} {
		v := bad
		p.MaxTokens = &v
		if err := ValidatePayload(&p); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("maxTokens=%d: want ErrInvalidArgument, got %v", bad, err)
		}
	}
	ok := 2048
	p.MaxTokens = &ok
	if err := ValidatePayload(&p); err != nil {
		t.Fatalf("valid maxTokens rejected: %v", err)
	}
}
