package handlers

import (
	"html"

	"github.com/gofiber/fiber/v2"
)

type LegalHandler struct {
	appName string
}

func NewLegalHandler(appName string) *LegalHandler {
	if appName == "" {
		appName = "SafeVoice"
	}
	return &LegalHandler{appName: html.EscapeString(appName)}
}

func (h *LegalHandler) PrivacyPolicy(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Privacy Policy - ` + h.appName + `</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>
</head><body>
<h1>Privacy Policy</h1>
<p>Last updated: October 2026</p>
<h2>Anonymous Reporting</h2>
<p>` + h.appName + ` does not ask for your name, email address or any account to submit a complaint. We do not attach your identity to what you report.</p>
<h2>Your Tracking ID and Passcode</h2>
<p>Each complaint receives a tracking ID. If you choose a passcode, we store only a one-way hash of it and can never tell you what it was. A lost passcode cannot be recovered or reset.</p>
<h2>Evidence</h2>
<p>Images you attach are stored with the complaint and are visible only to authorised staff handling it.</p>
<h2>Who Sees Your Complaint</h2>
<p>Complaints are read by the administration and committee. Staff assigned to act on a complaint see only the complaints assigned to them. Internal staff notes are never shown on the tracking page.</p>
<h2>Retention</h2>
<p>Complaint records are kept for as long as needed to resolve them and meet our reporting duties.</p>
</body></html>`)
}
