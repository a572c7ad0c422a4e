package smtp

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"time"

	"github.com/magabrotheeeer/subtrack/internal/models"
)

// BuildMessage собирает письмо в формате multipart/alternative с текстовой и HTML-частями.
func BuildMessage(from string, email models.Email, date time.Time) ([]byte, error) {
	const op = "smtp.BuildMessage"
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	headers := []struct{ key, value string }{
		{"From", from},
		{"To", email.To},
		{"Subject", mime.QEncoding.Encode("utf-8", email.Subject)},
		{"Date", date.Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", mw.Boundary())},
	}
	for _, h := range headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.key, h.value)
	}
	buf.WriteString("\r\n")

	parts := []struct{ contentType, body string }{
		{"text/plain; charset=\"UTF-8\"", email.Text},
		{"text/html; charset=\"UTF-8\"", email.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		qp := quotedprintable.NewWriter(w)
		if _, err = qp.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err = qp.Close(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return buf.Bytes(), nil
}
