package service

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

var (
	ticketIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)ticket\s*#?\s*([A-Z]{1,3}\d{3,6})`),
		regexp.MustCompile(`(?i)ticket\s+id[:\s]+([A-Z]{1,3}\d{3,6})`),
		regexp.MustCompile(`(?i)regarding\s+ticket\s*#?\s*([A-Z]{1,3}\d{3,6})`),
		regexp.MustCompile(`(?i)#([A-Z]{1,3}\d{3,6})`),
	}
	angleEmailRe = regexp.MustCompile(`<([^>]+)>`)
	emailRe      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// NewEmailTicketID returns ids like EAB1234 for tickets created from email.
func NewEmailTicketID() string {
	letters := []byte{byte('A' + rand.IntN(26)), byte('A' + rand.IntN(26))}
	return fmt.Sprintf("E%s%d", letters, 1000+rand.IntN(9000))
}

// NewManualTicketID returns ids like M3F2A1 for tickets created in the portal.
func NewManualTicketID() string {
	return "M" + strings.ToUpper(uuid.New().String()[:5])
}

func ValidTicketID(id string) bool {
	return id != "" && len(id) <= 50 && !strings.ContainsAny(id, " \t\r\n")
}

// ExtractTicketIDFromBody finds a ticket reference such as "Ticket #EE3295" in free text.
func ExtractTicketIDFromBody(body string) string {
	for _, re := range ticketIDPatterns {
		if m := re.FindStringSubmatch(body); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

// ExtractEmail pulls the address out of "Name <addr>" headers.
func ExtractEmail(from string) string {
	if m := angleEmailRe.FindStringSubmatch(from); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(from)
}

func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// NameFromEmail derives "John Doe" from "john.doe@example.com".
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
	words := strings.Fields(local)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// FirstName returns the first word of a customer name, defaulting to Customer.
func FirstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return "Customer"
}
