package service

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var vhcPlaceholderRe = regexp.MustCompile(`(?i)(@VHC_Link|\[VHC_LINK\])`)

const vhcAnchor = `<a href="%s" target="_blank" style="color: #4f46e5; font-weight: 500; text-decoration: underline;">Vehicle Health Check: click here</a>`

// ReplaceVHCPlaceholder swaps the VHC tag for the ticket's health check link.
func ReplaceVHCPlaceholder(text, link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return text
	}
	return vhcPlaceholderRe.ReplaceAllLiteralString(text, "Vehicle Health Check: "+link)
}

// ReplaceVHCPlaceholderHTML renders the tag as an anchor and line breaks as <br>.
func ReplaceVHCPlaceholderHTML(text, link string) string {
	link = strings.TrimSpace(link)
	if link != "" {
		text = vhcPlaceholderRe.ReplaceAllLiteralString(text, fmt.Sprintf(vhcAnchor, html.EscapeString(link)))
	}
	return strings.ReplaceAll(text, "\n", "<br>\n")
}
