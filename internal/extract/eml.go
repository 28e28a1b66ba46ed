package extract

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"
)

var (
	htmlBlock   = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	htmlBreak   = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</li>|</h[1-6]>|</tr>`)
	htmlTag     = regexp.MustCompile(`(?s)<[^>]*>`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
	wordDecoder = new(mime.WordDecoder)
)

// emailParts collects the text bodies of a message.
type emailParts struct {
	plain []string
	html  []string
}

// extractEML returns the Subject and From headers followed by the plain-text body parts.
// HTML parts are tag-stripped and used only when the message has no plain-text part.
func extractEML(content []byte) (string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse EML: %w", err)
	}

	var parts emailParts
	if err := walkPart(&parts, msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body); err != nil {
		return "", fmt.Errorf("parse EML body: %w", err)
	}

	var sections []string
	if subject := decodeHeader(msg.Header.Get("Subject")); subject != "" {
		sections = append(sections, "Subject: "+subject)
	}
	if from := decodeHeader(msg.Header.Get("From")); from != "" {
		sections = append(sections, "From: "+from)
	}
	bodies := parts.plain
	if len(bodies) == 0 {
		bodies = parts.html
	}
	for _, b := range bodies {
		if b = strings.TrimSpace(b); b != "" {
			sections = append(sections, b)
		}
	}
	return strings.Join(sections, "\n\n"), nil
}

func decodeHeader(v string) string {
	if dec, err := wordDecoder.DecodeHeader(v); err == nil {
		return strings.TrimSpace(dec)
	}
	return strings.TrimSpace(v)
}

// walkPart decodes one MIME entity, recursing into multipart containers.
func walkPart(parts *emailParts, contentType, encoding string, body io.Reader) error {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || contentType == "" {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(body, params["boundary"])
		for {
			p, err := mr.NextRawPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if strings.HasPrefix(strings.ToLower(p.Header.Get("Content-Disposition")), "attachment") {
				continue
			}
			if err := walkPart(parts, p.Header.Get("Content-Type"), p.Header.Get("Content-Transfer-Encoding"), p); err != nil {
				return err
			}
		}
	}

	if mediaType != "text/plain" && mediaType != "text/html" {
		return nil
	}
	data, err := io.ReadAll(decodeTransfer(encoding, body))
	if err != nil {
		return err
	}
	text, _ := extractPlain(data)
	if mediaType == "text/html" {
		parts.html = append(parts.html, stripHTML(text))
	} else {
		parts.plain = append(parts.plain, text)
	}
	return nil
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, &newlineStripper{r: r})
	default:
		return r
	}
}

// newlineStripper drops CR and LF so wrapped base64 bodies decode.
type newlineStripper struct {
	r io.Reader
}

func (n *newlineStripper) Read(p []byte) (int, error) {
	for {
		c, err := n.r.Read(p)
		k := 0
		for _, b := range p[:c] {
			if b != '\r' && b != '\n' {
				p[k] = b
				k++
			}
		}
		if k > 0 || err != nil {
			return k, err
		}
	}
}

func stripHTML(s string) string {
	s = htmlBlock.ReplaceAllString(s, "")
	s = htmlBreak.ReplaceAllString(s, "\n\n")
	s = htmlTag.ReplaceAllString(s, "")
	s = xmlEntities.Replace(strings.ReplaceAll(s, "&nbsp;", " "))
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
