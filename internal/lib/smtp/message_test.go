package smtp

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subtrack/internal/models"
)

func TestBuildMessage(t *testing.T) {
	email := models.Email{
		To:      "ann@example.com",
		Subject: "Subscription Renewal Reminder - 1 subscription renewing soon",
		HTML:    "<p>• Netflix - $15.49 (2 days)</p>",
		Text:    "• Netflix - $15.49 (2 days)",
	}
	date := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	raw, err := BuildMessage("reminders@subtrack.local", email, date)
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "reminders@subtrack.local", msg.Header.Get("From"))
	assert.Equal(t, "ann@example.com", msg.Header.Get("To"))

	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, email.Subject, subject)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	bodies := map[string]string{}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ct, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		require.NoError(t, err)
		data, err := io.ReadAll(part)
		require.NoError(t, err)
		bodies[ct] = string(data)
	}

	assert.Equal(t, email.Text, bodies["text/plain"])
	assert.Equal(t, email.HTML, bodies["text/html"])
}

func TestBuildMessage_SkipsEmptyParts(t *testing.T) {
	raw, err := BuildMessage("from@example.com", models.Email{To: "to@example.com", Subject: "s", HTML: "<b>x</b>"}, time.Now())
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "text/plain")
	assert.Contains(t, string(raw), "text/html")
}
