package mailbox

import (
	"html"
	"io"
	"mime"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
)

// ContentKind tells the caller what the extracted body is
type ContentKind int

const (
	// KindHTML is a text/html body, returned as-is
	KindHTML ContentKind = iota
	// KindText is a text/plain body wrapped in <pre> so whitespace survives rendering
	KindText
)

func (k ContentKind) String() string {
	if k == KindHTML {
		return "html"
	}
	return "text"
}

// DecodeSubject decodes an RFC 2047 encoded subject header. It never fails:
// a header that cannot be decoded comes back as-is, with any invalid byte
// sequences replaced.
func DecodeSubject(raw string) string {
	dec := mime.WordDecoder{CharsetReader: charset.Reader}
	decoded, err := dec.DecodeHeader(raw)
	if err != nil {
		return strings.ToValidUTF8(raw, "�")
	}
	return strings.ToValidUTF8(decoded, "�")
}

// ExtractBody walks the MIME structure depth-first and returns the first
// text/html part, or failing that the first text/plain part wrapped in <pre>.
// Each part is decoded per its declared charset (UTF-8 when absent) with
// invalid bytes replaced, so this never fails on malformed input; a message
// with no text part at all yields an empty HTML body.
func ExtractBody(entity *message.Entity) (ContentKind, string) {
	var htmlBody, textBody string
	collectBodies(entity, &htmlBody, &textBody)

	if htmlBody != "" {
		return KindHTML, htmlBody
	}
	if textBody != "" {
		return KindText, "<pre>" + html.EscapeString(textBody) + "</pre>"
	}
	return KindHTML, ""
}

func collectBodies(entity *message.Entity, htmlBody, textBody *string) {
	mediaType, _, _ := entity.Header.ContentType()

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := entity.MultipartReader()
		if mr == nil {
			return
		}
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil && !message.IsUnknownCharset(err) {
				break // stop at a faulty part, keep what we have
			}
			collectBodies(part, htmlBody, textBody)
			if *htmlBody != "" {
				return
			}
		}
		return
	}

	body, err := io.ReadAll(entity.Body)
	if err != nil {
		return
	}
	content := strings.ToValidUTF8(string(body), "�")

	switch {
	case strings.HasPrefix(mediaType, "text/html"):
		if *htmlBody == "" {
			*htmlBody = content
		}
	case strings.HasPrefix(mediaType, "text/plain"), mediaType == "":
		if *textBody == "" {
			*textBody = content
		}
	}
}
