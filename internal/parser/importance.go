package parser

import "strings"

// Urgency/priority keywords, bilingual. A single hit anywhere in a
// fragment marks the owning message important; the flag is sticky
// across continuation lines.
var importantIndicators = []string{
	"importante", "important", "urgente", "urgent", "atención", "attention",
	"recordar", "remember", "no olvidar", "don't forget", "confirmar", "confirm",
	"cancelado", "cancelled", "cambio", "change", "nuevo horario", "new time",
}

func isImportant(fragment string) bool {
	lower := strings.ToLower(fragment)
	for _, indicator := range importantIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
