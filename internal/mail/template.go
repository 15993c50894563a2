package mail

import (
	"fmt"
	"html/template"
	"strings"
)

// OTPEmailSubject is the subject line for verification code emails
const OTPEmailSubject = "HD Notes - Email Verification Code"

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>HD Notes - Email Verification</title>
</head>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f8fafc;">
<div style="background: white; padding: 40px; border-radius: 12px;">
	<div style="text-align: center; font-size: 24px; font-weight: 600; color: #3b82f6;">HD Notes</div>
	<p>Hi {{.Name}},</p>
	<p>Use the code below to verify your email address:</p>
	<div style="background: #3b82f6; color: white; font-size: 32px; font-weight: bold; letter-spacing: 8px; text-align: center; padding: 20px; border-radius: 8px; font-family: 'Courier New', monospace;">{{.Code}}</div>
	<p>This code expires in {{.ExpiryMinutes}} minutes. If you did not request it, you can ignore this email.</p>
</div>
</body>
</html>`))

// OTPEmailBody renders the verification code email body
func OTPEmailBody(name, code string, expiryMinutes int) (string, error) {
	var sb strings.Builder
	err := otpTemplate.Execute(&sb, struct {
		Name          string
		Code          string
		ExpiryMinutes int
	}{Name: name, Code: code, ExpiryMinutes: expiryMinutes})
	if err != nil {
		return "", fmt.Errorf("failed to render otp email: %w", err)
	}
	return sb.String(), nil
}
