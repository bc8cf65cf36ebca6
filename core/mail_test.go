package core

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	to := []mail.Address{{Address: "admin@polytechnic.test"}}

	t.Run("otp template", func(t *testing.T) {
		msg := &EmailMessage{
			To:           to,
			TemplateName: "otp",
			TemplateData: map[string]interface{}{"Code": "482913", "ValidFor": "10 minutes"},
		}
		require.NoError(t, msg.Render("Polysis"))

		for _, content := range []string{msg.TextContent, msg.HTMLContent} {
			assert.Contains(t, content, "482913")
			assert.Contains(t, content, "10 minutes")
			assert.Contains(t, content, "Polysis - Student Information System")
		}
		assert.Contains(t, msg.HTMLContent, "<h1")
		assert.NotContains(t, msg.TextContent, "<h1")
		assert.True(t, msg.HasContent())
	})

	t.Run("missing data", func(t *testing.T) {
		msg := &EmailMessage{To: to, TemplateName: "otp", TemplateData: map[string]interface{}{"Code": "482913"}}
		assert.Error(t, msg.Render("Polysis"))
	})

	t.Run("plain body", func(t *testing.T) {
		msg := &EmailMessage{To: to, BodyStr: "hello"}
		require.NoError(t, msg.Render("Polysis"))
		assert.Equal(t, "hello", msg.TextContent)
		assert.Empty(t, msg.HTMLContent)
	})

	t.Run("unknown template", func(t *testing.T) {
		msg := &EmailMessage{To: to, TemplateName: "welcome"}
		require.NoError(t, msg.Render("Polysis"))
		assert.False(t, msg.HasContent())
	})
}
