package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/amishk599/jobbeacon/internal/model"
)

var emailTemplate = template.Must(template.New("email").Parse(`<div style="font-family: sans-serif; max-width: 600px; margin: auto; padding: 20px; border: 1px solid #e2e8f0; border-radius: 12px;">
  <h1 style="font-size: 24px; color: #0f172a;">New Job Opportunities!</h1>
  <p style="color: #475569;">Hi there,</p>
  <p style="color: #475569;">We found {{len .Postings}} new job(s) matching your saved search: "<strong>{{.SearchName}}</strong>".</p>
  <hr style="border: none; border-top: 1px solid #e2e8f0; margin: 20px 0;" />
{{- range .Postings}}
  <div style="border: 1px solid #e2e8f0; border-radius: 8px; padding: 16px; margin-bottom: 16px;">
    <h3 style="margin: 0 0 8px 0; font-size: 18px;"><a href="{{.URL}}" style="color: #2563eb; text-decoration: none;">{{.Title}}</a></h3>
    <p style="margin: 0 0 4px 0; color: #475569;"><strong>Company:</strong> {{.Company}}</p>
    <p style="margin: 0 0 12px 0; color: #475569;"><strong>Location:</strong> {{.Location}}</p>
    <a href="{{.URL}}" target="_blank" style="display: inline-block; background-color: #2563eb; color: #ffffff; padding: 10px 16px; border-radius: 6px; text-decoration: none; font-weight: 500;">View &amp; Apply</a>
  </div>
{{- end}}
  <p style="color: #475569; font-size: 12px; text-align: center; margin-top: 20px;">You are receiving this because you subscribed to JobBeacon.</p>
</div>
`))

// RenderEmail builds the subject and HTML body for one notification unit.
// Posting fields are HTML-escaped.
func RenderEmail(searchName string, postings []model.Posting) (subject, body string, err error) {
	subject = fmt.Sprintf("🚀 %d New Job(s) for your \"%s\" search!", len(postings), searchName)

	var buf bytes.Buffer
	data := struct {
		SearchName string
		Postings   []model.Posting
	}{searchName, postings}
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("rendering email: %w", err)
	}
	return subject, buf.String(), nil
}

// SamplePosting is a placeholder used to verify that delivery channels work.
func SamplePosting() model.Posting {
	return model.Posting{
		ID:       "test-001",
		Title:    "Test Notification - Integration Verified",
		Company:  "JobBeacon",
		Location: "Everywhere",
		URL:      "https://remotive.com/remote-jobs",
		PostedAt: time.Now().UTC(),
		JobType:  model.JobTypeFullTime,
		Source:   "test",
	}
}
