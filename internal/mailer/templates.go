package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

var activationHTML = htmltemplate.Must(htmltemplate.New("activation.html").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Subject}}</title></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background-color: #f8f9fa; padding: 30px; text-align: center; border-radius: 10px;">
    <h1 style="color: #333;">Welcome!</h1>
    <p style="color: #666; font-size: 16px;">Please use the following activation code to complete your registration:</p>
    <div style="background-color: #007bff; color: white; font-size: 36px; font-weight: bold; padding: 20px; border-radius: 8px; letter-spacing: 8px; margin: 30px 0;">{{.Code}}</div>
    <p style="color: #999; font-size: 14px;">This code will expire in {{.Lifetime}}.</p>
    <p style="color: #999; font-size: 12px;">If you didn't request this code, please ignore this email.</p>
  </div>
</body>
</html>
`))

var activationText = texttemplate.Must(texttemplate.New("activation.txt").Parse(`Welcome!

Your activation code is: {{.Code}}

This code will expire in {{.Lifetime}}.

If you didn't request this code, please ignore this email.
`))

type activationData struct {
	Subject  string
	Code     string
	Lifetime string
}

// RenderActivationEmail builds the activation email for code, valid for
// ttl, addressed to to.
func RenderActivationEmail(to, subject, code string, ttl time.Duration) (Email, error) {
	data := activationData{Subject: subject, Code: code, Lifetime: humanizeTTL(ttl)}

	var html, text bytes.Buffer
	if err := activationHTML.Execute(&html, data); err != nil {
		return Email{}, fmt.Errorf("render html: %w", err)
	}
	if err := activationText.Execute(&text, data); err != nil {
		return Email{}, fmt.Errorf("render text: %w", err)
	}

	return Email{To: to, Subject: subject, HTML: html.String(), Text: text.String()}, nil
}

// humanizeTTL renders whole minutes or seconds: "1 minute", "90 seconds".
func humanizeTTL(ttl time.Duration) string {
	if ttl <= 0 {
		return "a short while"
	}
	unit, n := "second", int64(ttl/time.Second)
	if ttl%time.Minute == 0 {
		unit, n = "minute", int64(ttl/time.Minute)
	}
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
