package reminders

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"turnero/internal/models"
)

// DefaultTemplate is used when no custom template is configured.
const DefaultTemplate = "Hola {{.ClientName}}! Te recordamos tu turno el {{.Date}} a las {{.Start}}. Si no podés asistir, avisanos con anticipación."

// messageData is the context available to reminder templates.
type messageData struct {
	ClientName string
	Date       string
	Start      string
	End        string
}

// RenderMessage fills the reminder template for one appointment.
func RenderMessage(tmpl *template.Template, client *models.Client, a *models.Appointment) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, messageData{
		ClientName: client.Name,
		Date:       a.StartTime.Format("02/01/2006"),
		Start:      a.StartTime.Format("15:04"),
		End:        a.EndTime.Format("15:04"),
	})
	if err != nil {
		return "", fmt.Errorf("render reminder: %w", err)
	}
	return buf.String(), nil
}

// ParseTemplate compiles a reminder template, falling back to the default
// on an empty string.
func ParseTemplate(text string) (*template.Template, error) {
	if text == "" {
		text = DefaultTemplate
	}
	return template.New("reminder").Parse(text)
}

// formatLookAhead is a small helper for log fields.
func formatLookAhead(d time.Duration) string {
	return d.Round(time.Minute).String()
}
