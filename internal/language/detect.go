// Package language identifies the language of inbound messages with a
// restricted allowlist. Anything short, ambiguous, or outside the allowlist
// is treated as English.
package language

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// English is the fallback and the code generation prompts are issued in.
const English = "en"

// iso639-3 -> allowlisted iso639-1 codes.
var allowed = map[string]string{
	"eng": "en",
	"spa": "es",
	"por": "pt",
	"fra": "fr",
	"deu": "de",
}

// Detect returns the iso639-1 code for text, restricted to the allowlist.
// Messages shorter than three words default to English: single-word chat
// messages misdetect too often to act on.
func Detect(text string) string {
	if len(strings.Fields(text)) < 3 {
		return English
	}
	info := whatlanggo.Detect(text)
	if code, ok := allowed[whatlanggo.LangToString(info.Lang)]; ok {
		return code
	}
	return English
}
