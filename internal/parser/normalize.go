package parser

import "regexp"

var (
	// Speech-to-text sometimes renders spoken weights as currency ("$45")
	// or spells the unit out ("45 pounds"). Both forms are rewritten before
	// the text reaches the extraction model.
	currencyRe = regexp.MustCompile(`\$(\d)`)
	poundsRe   = regexp.MustCompile(`(?i)pounds?`)
)

// Normalize rewrites currency and unit notation in raw workout text:
// a currency symbol directly preceding a number is stripped, and the word
// "pound"/"pounds" becomes " lbs" (case-insensitive).
func Normalize(text string) string {
	text = currencyRe.ReplaceAllString(text, "${1}")
	return poundsRe.ReplaceAllString(text, " lbs")
}
