package enums

import "fmt"

// QuoteStatus tracks the lifecycle of a quote request.
type QuoteStatus string

const (
	QuoteStatusEnAttente           QuoteStatus = "EN_ATTENTE"
	QuoteStatusDevisEnPreparation  QuoteStatus = "DEVIS_EN_PREPARATION"
	QuoteStatusDevisEnvoye         QuoteStatus = "DEVIS_ENVOYE"
	QuoteStatusEnAttenteValidation QuoteStatus = "EN_ATTENTE_VALIDATION"
	QuoteStatusValideParClient     QuoteStatus = "VALIDE_PAR_CLIENT"
	QuoteStatusEnCoursLivraison    QuoteStatus = "EN_COURS_LIVRAISON"
	QuoteStatusTermine             QuoteStatus = "TERMINE"
	QuoteStatusAnnule              QuoteStatus = "ANNULE"
)

var validQuoteStatuses = []QuoteStatus{
	QuoteStatusEnAttente,
	QuoteStatusDevisEnPreparation,
	QuoteStatusDevisEnvoye,
	QuoteStatusEnAttenteValidation,
	QuoteStatusValideParClient,
	QuoteStatusEnCoursLivraison,
	QuoteStatusTermine,
	QuoteStatusAnnule,
}

// String implements fmt.Stringer.
func (q QuoteStatus) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuoteStatus.
func (q QuoteStatus) IsValid() bool {
	for _, candidate := range validQuoteStatuses {
		if candidate == q {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from the status.
func (q QuoteStatus) IsTerminal() bool {
	return q == QuoteStatusTermine || q == QuoteStatusAnnule
}

// ParseQuoteStatus converts raw input into a QuoteStatus.
func ParseQuoteStatus(value string) (QuoteStatus, error) {
	for _, candidate := range validQuoteStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quote status %q", value)
}
