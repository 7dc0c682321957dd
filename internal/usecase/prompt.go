package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"legal-letter-ai/internal/domain/model"
)

const systemPrompt = "You are a senior attorney drafting a formal demand letter on behalf of a law firm. " +
	"Write complete, well-structured prose ready for attorney review. Do not invent facts that were not provided."

// Cap per-document excerpt so one oversized upload cannot eat the whole
// input window on its own.
const maxDocumentExcerpt = 4000

func buildPrompt(p *model.GenerationPayload, docs []*model.Document, templateText string) string {
	var b strings.Builder

	b.WriteString("Draft a demand letter for the following case.\n\n")
	fmt.Fprintf(&b, "Case type: %s\n", p.CaseType)
	fmt.Fprintf(&b, "Incident date: %s\n", p.IncidentDate)
	if p.IncidentLocation != "" {
		fmt.Fprintf(&b, "Incident location: %s\n", p.IncidentLocation)
	}
	fmt.Fprintf(&b, "Client: %s", p.ClientName)
	if p.ClientContact != "" {
		fmt.Fprintf(&b, " (%s)", p.ClientContact)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Defendant: %s", p.DefendantName)
	if p.DefendantAddress != "" {
		fmt.Fprintf(&b, ", %s", p.DefendantAddress)
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Incident description:\n%s\n", p.IncidentDescription)

	if d := p.Damages; d != nil {
		b.WriteString("\nDamages claimed:\n")
		writeAmount(&b, "Medical expenses", d.Medical)
		writeAmount(&b, "Lost wages", d.LostWages)
		writeAmount(&b, "Property damage", d.PropertyDamage)
		writeAmount(&b, "Pain and suffering", d.PainAndSuffering)
		for _, item := range d.MedicalItems {
			fmt.Fprintf(&b, "- %s: $%.2f\n", item.Description, item.Amount)
		}
		for name, amount := range d.Other {
			writeAmount(&b, name, amount)
		}
		if d.Notes != "" {
			fmt.Fprintf(&b, "Notes on damages: %s\n", d.Notes)
		}
	}

	for _, doc := range docs {
		fmt.Fprintf(&b, "\nSupporting document %q:\n%s\n", doc.FileName, truncateExcerpt(doc.ExtractedText))
	}

	if templateText != "" {
		fmt.Fprintf(&b, "\nFollow the structure of this firm template:\n%s\n", templateText)
	}
	if p.SpecialInstructions != "" {
		fmt.Fprintf(&b, "\nSpecial instructions: %s\n", p.SpecialInstructions)
	}

	tone := p.Tone
	if tone == "" {
		tone = model.ToneProfessional
	}
	fmt.Fprintf(&b, "\nWrite the letter in a %s tone.\n", tone)
	return b.String()
}

func writeAmount(b *strings.Builder, label string, amount float64) {
	if amount > 0 {
		fmt.Fprintf(b, "- %s: $%.2f\n", label, amount)
	}
}

// truncateExcerpt cuts at a rune boundary so a multi-byte character is never
// split into an invalid tail byte.
func truncateExcerpt(text string) string {
	if len(text) <= maxDocumentExcerpt {
		return text
	}
	cut := maxDocumentExcerpt
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
