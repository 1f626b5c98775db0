package service

import (
	"html"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<(?:script|style)[^>]*>.*?</(?:script|style)\s*>`)
	tagRe         = regexp.MustCompile(`(?s)<[^>]+>`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)

	quoteHeaderRe   = regexp.MustCompile(`(?ims)\n\s*On\s+.+?wrote\s*:\s*$`)
	onWroteLineRe   = regexp.MustCompile(`(?i)^On\s+.+wrote\s*:\s*$`)
	originalMsgRe   = regexp.MustCompile(`(?i)^-{3,}\s*Original Message\s*-{3,}$`)
	fromLineRe      = regexp.MustCompile(`^From:\s+.+`)
	headerLineRe    = regexp.MustCompile(`(?i)^(Sent|Date|To|Subject):`)
	separatorLineRe = regexp.MustCompile(`^_{5,}$|^-{5,}$|^={5,}$`)
)

// HTMLToText turns an HTML email body into readable plain text.
func HTMLToText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	s = scriptStyleRe.ReplaceAllString(s, "")
	out, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		out = html.UnescapeString(tagRe.ReplaceAllString(s, "\n"))
	}
	out = strings.ReplaceAll(out, "\r\n", "\n")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// StripEmailQuotes drops quoted history below a customer's reply.
func StripEmailQuotes(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if loc := quoteHeaderRe.FindStringIndex(text); loc != nil {
		text = strings.TrimRight(text[:loc[0]], " \t\n")
	}

	lines := strings.Split(text, "\n")
	cut := len(lines)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if onWroteLineRe.MatchString(trimmed) || originalMsgRe.MatchString(trimmed) || separatorLineRe.MatchString(trimmed) {
			cut = i
			break
		}
		if fromLineRe.MatchString(trimmed) && i+1 < len(lines) && headerLineRe.MatchString(strings.TrimSpace(lines[i+1])) {
			cut = i
			break
		}
	}
	lines = lines[:cut]
	for len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		if last != "" && !strings.HasPrefix(last, ">") {
			break
		}
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

var replyMessageKeys = []string{
	"body", "text", "plainText", "textBody", "email_body", "reply_message", "replyMessage",
	"reply_text", "content", "message", "reply", "snippet", "bodyPreview", "conversationBody",
}

// ExtractReplyMessage picks the fullest message text n8n sent under any known key.
func ExtractReplyMessage(p Payload) string {
	message := p.Longest(replyMessageKeys...)
	for _, key := range []string{"body", "conversation", "email"} {
		nested := p.Object(key)
		if nested == nil {
			continue
		}
		for _, sub := range []string{"content", "text", "body", "plainText", "html", "value"} {
			s, ok := nested[sub].(string)
			if !ok || s == "" {
				continue
			}
			if sub == "html" {
				s = HTMLToText(s)
			}
			if s = strings.TrimSpace(s); len(s) > len(message) {
				message = s
			}
		}
	}
	if raw, ok := p["html"].(string); ok && strings.TrimSpace(raw) != "" {
		if converted := HTMLToText(raw); len(converted) > len(message) {
			message = converted
		}
	}
	return message
}

const duplicateReplyWindow = 2 * time.Minute

// IsRecentDuplicate reports whether an agent already sent the same message moments ago.
func IsRecentDuplicate(message string, recent []models.Reply, now time.Time) bool {
	message = strings.TrimSpace(message)
	if message == "" {
		return false
	}
	for _, r := range recent {
		if r.SenderType != models.SenderAgent || now.Sub(r.CreatedAt) > duplicateReplyWindow {
			continue
		}
		if strings.TrimSpace(r.Message) == message {
			return true
		}
	}
	return false
}
