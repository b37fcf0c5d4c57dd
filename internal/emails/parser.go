package emails

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
)

// ErrMalformed is returned for input that is not an RFC 5322 message.
var ErrMalformed = errors.New("emails: malformed message")

// maxBodyChars bounds the stored plain-text body.
const maxBodyChars = 20000

// Parsed holds the fields extracted from a raw message.
type Parsed struct {
	MessageID string
	Sender    string
	Subject   string
	Date      time.Time
	Body      string
}

var wordDecoder = mime.WordDecoder{CharsetReader: charsetReader}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, err
	}
	return enc.NewDecoder().Reader(input), nil
}

// Parse extracts sender, subject, date, message id and the plain-text body.
// A message without Message-ID gets one derived from its content, so
// re-deliveries still deduplicate. A missing or invalid Date falls back to
// received.
func Parse(raw []byte, received time.Time) (Parsed, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return Parsed{}, errors.Join(ErrMalformed, err)
	}
	h := msg.Header

	out := Parsed{
		MessageID: strings.Trim(strings.TrimSpace(h.Get("Message-Id")), "<>"),
		Subject:   decodeHeader(h.Get("Subject")),
	}
	if out.MessageID == "" {
		sum := sha256.Sum256(raw)
		out.MessageID = hex.EncodeToString(sum[:16]) + "@obra.local"
	}
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		out.Sender = from[0].Address
	} else {
		out.Sender = strings.TrimSpace(decodeHeader(h.Get("From")))
	}
	if out.Sender == "" {
		return Parsed{}, errors.Join(ErrMalformed, errors.New("missing sender"))
	}
	if d, err := h.Date(); err == nil {
		out.Date = d.UTC()
	} else {
		out.Date = received.UTC()
	}

	body, err := plainText(h.Get("Content-Type"), h.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return Parsed{}, errors.Join(ErrMalformed, err)
	}
	out.Body = truncate(strings.TrimSpace(normalizeNewlines(body)), maxBodyChars)
	return out, nil
}

// plainText walks multipart bodies depth first and returns the first
// text/plain part, falling back to the first text/html part with tags left
// in place.
func plainText(contentType, encoding string, r io.Reader) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}
	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(r, params["boundary"])
		var html string
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return "", err
			}
			partType := part.Header.Get("Content-Type")
			if partType == "" {
				partType = "text/plain"
			}
			if part.FileName() != "" {
				continue
			}
			text, err := plainText(partType, part.Header.Get("Content-Transfer-Encoding"), part)
			if err != nil {
				return "", err
			}
			pt, _, _ := mime.ParseMediaType(partType)
			switch {
			case pt == "text/html":
				if html == "" {
					html = text
				}
			case text != "":
				return text, nil
			}
		}
		return html, nil
	}
	if !strings.HasPrefix(mediaType, "text/") {
		return "", nil
	}
	data, err := io.ReadAll(decodeTransfer(encoding, r))
	if err != nil {
		return "", err
	}
	return toUTF8(data, params["charset"]), nil
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	default:
		return r
	}
}

// toUTF8 converts a declared charset to UTF-8. Unknown charsets pass
// through unchanged.
func toUTF8(data []byte, charset string) string {
	if charset == "" || strings.EqualFold(charset, "utf-8") {
		return string(data)
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(data)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

func decodeHeader(v string) string {
	decoded, err := wordDecoder.DecodeHeader(v)
	if err != nil {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(decoded)
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
