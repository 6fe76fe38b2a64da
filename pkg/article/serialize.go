package article

import (
	"fmt"
	"strings"
)

// SerializeForPosting renders the article in canonical header order with
// CRLF line endings, dot-stuffs the body, and appends the "." terminator
// line POST and IHAVE both expect.
func (a Article) SerializeForPosting() string {
	var b strings.Builder

	writeHeader(&b, "From", a.Headers.From)
	writeHeader(&b, "Newsgroups", strings.Join(a.Headers.Newsgroups, ","))
	writeHeader(&b, "Subject", a.Headers.Subject)
	writeHeader(&b, "Date", a.Headers.Date)
	writeHeader(&b, "Message-ID", a.Headers.MessageID)
	writeHeader(&b, "Path", a.Headers.Path)
	if len(a.Headers.References) > 0 {
		writeHeader(&b, "References", strings.Join(a.Headers.References, " "))
	}
	writeHeader(&b, "Reply-To", a.Headers.ReplyTo)
	writeHeader(&b, "Organization", a.Headers.Organization)
	if len(a.Headers.FollowupTo) > 0 {
		writeHeader(&b, "Followup-To", strings.Join(a.Headers.FollowupTo, ","))
	}
	writeHeader(&b, "Expires", a.Headers.Expires)
	writeHeader(&b, "Control", a.Headers.Control)
	writeHeader(&b, "Distribution", a.Headers.Distribution)
	writeHeader(&b, "Keywords", a.Headers.Keywords)
	writeHeader(&b, "Summary", a.Headers.Summary)
	writeHeader(&b, "Supersedes", a.Headers.Supersedes)
	writeHeader(&b, "Approved", a.Headers.Approved)
	writeHeader(&b, "User-Agent", a.Headers.UserAgent)
	for k, v := range a.Headers.Extra {
		writeHeader(&b, k, v)
	}

	b.WriteString("\r\n")
	b.WriteString(dotStuff(a.Body))
	if !strings.HasSuffix(a.Body, "\n") {
		b.WriteString("\r\n")
	}
	b.WriteString(".\r\n")
	return b.String()
}

func writeHeader(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(fmt.Sprintf("%s: %s\r\n", name, value))
}

// dotStuff normalizes line endings to CRLF and doubles any line-leading
// "." per RFC 3977 section 3.1.1, so the dot-terminator can't be confused
// with a body line.
func dotStuff(body string) string {
	normalized := strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n")
	lines := strings.Split(normalized, "\r\n")
	for i, line := range lines {
		if strings.HasPrefix(line, ".") {
			lines[i] = "." + line
		}
	}
	return strings.Join(lines, "\r\n")
}
