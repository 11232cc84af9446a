package mailer

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMailTemplate(t *testing.T) {
	from := mail.NewEmail("Lag immobiliers", "contact@lag-immobiliers.fr")
	m := BuildMail(from, Message{
		To:         []string{"a@example.com", "b@example.com"},
		Subject:    "Mise à jour de votre mot de passe",
		TemplateID: "d-123",
		Data:       map[string]any{"firstName": "Alice"},
		Attachments: []Attachment{{
			Filename:    "answer.pdf",
			ContentType: "application/pdf",
			Content:     []byte("%PDF-1.4"),
		}},
	})

	assert.Equal(t, "d-123", m.TemplateID)
	assert.Equal(t, "contact@lag-immobiliers.fr", m.From.Address)
	require.Len(t, m.Personalizations, 2)
	assert.Equal(t, "b@example.com", m.Personalizations[1].To[0].Address)
	assert.Equal(t, "Alice", m.Personalizations[0].DynamicTemplateData["firstName"])
	assert.Empty(t, m.Content)

	require.Len(t, m.Attachments, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")), m.Attachments[0].Content)
	assert.Equal(t, "attachment", m.Attachments[0].Disposition)
}

func TestBuildMailPlainText(t *testing.T) {
	m := BuildMail(mail.NewEmail("", "from@example.com"), Message{
		To:   []string{"a@example.com"},
		Text: "hello",
	})
	assert.Empty(t, m.TemplateID)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "hello", m.Content[0].Value)
}

func TestMessageValidate(t *testing.T) {
	assert.Error(t, Message{Text: "x"}.Validate())
	assert.Error(t, Message{To: []string{"nobody"}, Text: "x"}.Validate())
	assert.Error(t, Message{To: []string{"a@example.com"}}.Validate())
	assert.NoError(t, Message{To: []string{"a@example.com"}, TemplateID: "d-1"}.Validate())
}

func TestOutboxQueuesMessage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	outbox := NewOutbox(client, "tasks")
	msg := Message{
		To:          []string{"a@example.com"},
		TemplateID:  "d-1",
		Data:        map[string]any{"ticketId": "t-1"},
		Attachments: []Attachment{{Filename: "q.png", Content: []byte{0x89, 0x50}}},
	}
	require.NoError(t, outbox.Send(context.Background(), msg))

	entries, err := client.XRange(context.Background(), "tasks", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, TaskType, entries[0].Values["type"])

	decoded, err := Decode(entries[0].Values["payload"].(string))
	require.NoError(t, err)
	assert.Equal(t, msg.To, decoded.To)
	assert.Equal(t, "t-1", decoded.Data["ticketId"])
	assert.Equal(t, []byte{0x89, 0x50}, decoded.Attachments[0].Content)
}

func TestOutboxRejectsInvalid(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	err := NewOutbox(client, "tasks").Send(context.Background(), Message{})
	assert.Error(t, err)
}
