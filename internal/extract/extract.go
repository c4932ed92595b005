package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/luisvx/inboxcode/pkg/models"
)

// ErrNotFound is returned when the requested fragment is not in the message
var ErrNotFound = errors.New("fragment not found")

// ErrNoHeadline is returned by the digest intent when the matched message has
// no top-level heading; distinct from ErrNotFound so callers can tell "no
// such content" from "matched but nothing to summarize".
var ErrNoHeadline = errors.New("message has no headline")

// Standalone 4-digit token. The boundaries exclude letters, digits and
// underscores, so neither longer numbers nor word-embedded digits match.
var codePattern = regexp.MustCompile(`(^|[^\p{L}\p{N}_])(\d{4})($|[^\p{L}\p{N}_])`)

// Invisible Unicode characters (zero-width spaces and joiners) that providers
// embed in templates and that break phrase matching against rendered text
var invisiblePattern = regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}\x{00AD}\x{2060}-\x{2064}]+`)

// Visible anchor-text phrases per link intent, matched case-insensitively
// against rendered text so incidental markup changes between provider
// template revisions do not matter.
var linkPhrases = map[models.Intent][]string{
	models.IntentConfirmHome: {"confirmar actualización", "sí, la envié yo"},
	models.IntentTempCode:    {"obtener código"},
	models.IntentResetDevice: {"restablecer contraseña", "cambiar contraseña"},
}

// Fragment applies the caller's extraction intent to a decoded message body.
// The body is parsed as a document even for pre-wrapped plain text; goquery
// tolerates both.
func Fragment(body string, intent models.Intent) (string, error) {
	switch intent {
	case models.IntentRaw:
		return body, nil
	case models.IntentDigest:
		return headline(body)
	case models.IntentCode:
		return numericCode(body)
	case models.IntentConfirmHome, models.IntentTempCode, models.IntentResetDevice:
		return actionLink(body, linkPhrases[intent])
	default:
		return "", fmt.Errorf("unknown intent %v", intent)
	}
}

// headline returns the rendered text of the first top-level heading
func headline(body string) (string, error) {
	doc, err := parse(body)
	if err != nil {
		return "", err
	}

	h1 := doc.Find("h1").First()
	if h1.Length() == 0 {
		return "", ErrNoHeadline
	}
	return flatten(h1.Text()), nil
}

// actionLink returns the target URL of the first anchor whose visible text
// contains one of the given phrases
func actionLink(body string, phrases []string) (string, error) {
	doc, err := parse(body)
	if err != nil {
		return "", err
	}

	var href string
	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.ToLower(flatten(s.Text()))
		for _, phrase := range phrases {
			if strings.Contains(text, phrase) {
				if target, ok := s.Attr("href"); ok && target != "" {
					href = target
					return false
				}
			}
		}
		return true
	})

	if href == "" {
		return "", ErrNotFound
	}
	return href, nil
}

// numericCode returns the first standalone 4-digit token in the flattened
// visible text of the body
func numericCode(body string) (string, error) {
	doc, err := parse(body)
	if err != nil {
		return "", err
	}

	m := codePattern.FindStringSubmatch(flatten(doc.Text()))
	if m == nil {
		return "", ErrNotFound
	}
	return m[2], nil
}

func parse(body string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse body: %w", err)
	}
	doc.Find("script, style, head").Remove()
	return doc, nil
}

// flatten collapses rendered text to single-space-separated words, with
// invisible characters stripped
func flatten(text string) string {
	text = invisiblePattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
