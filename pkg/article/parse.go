package article

import (
	"strings"

	"github.com/jvz-devx/nntp-rs-sub002/pkg/errors"
)

// textHeaders are the headers RFC 2047 decoding applies to: free-text
// fields a human wrote, as opposed to structural fields like Message-ID or
// Newsgroups that are never encoded-word-bearing in practice.
var textHeaders = map[string]bool{
	"subject":      true,
	"from":         true,
	"organization": true,
	"keywords":     true,
	"summary":      true,
	"comments":     true,
}

// Parse reads an article off the wire: the header block (folded per RFC
// 5536/2822, lines starting with a space or tab continue the previous
// header) followed by a blank line and the body. It is the inverse of
// SerializeForPosting, used for ARTICLE/HEAD responses rather than posting.
// Unfolding happens before RFC 2047 decoding, and decoding is applied only
// to the free-text headers named in textHeaders.
func Parse(lines []string) (Article, error) {
	headerLines, bodyLines, err := splitHeaderBody(lines)
	if err != nil {
		return Article{}, err
	}
	unfolded := unfold(headerLines)

	h := Headers{Extra: map[string]string{}}
	for _, line := range unfolded {
		name, value, ok := splitHeaderLine(line)
		if !ok {
			continue
		}
		key := strings.ToLower(name)
		if textHeaders[key] {
			value = DecodeHeaderValue(value)
		}
		assignHeader(&h, key, name, value)
	}

	return Article{Headers: h, Body: strings.Join(bodyLines, "\n")}, nil
}

func splitHeaderBody(lines []string) (header, body []string, err error) {
	for i, line := range lines {
		if line == "" {
			return lines[:i], lines[i+1:], nil
		}
	}
	return nil, nil, errors.NewInvalidResponse("article_parse", "no blank line separating headers from body")
}

// unfold joins continuation lines (starting with SP or TAB) onto the
// header line they continue, per RFC 5536 section 2.2.
func unfold(headerLines []string) []string {
	var out []string
	for _, line := range headerLines {
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') && len(out) > 0 {
			out[len(out)-1] += " " + strings.TrimSpace(line)
			continue
		}
		out = append(out, line)
	}
	return out
}

func splitHeaderLine(line string) (name, value string, ok bool) {
	colon := strings.IndexByte(line, ':')
	if colon == -1 {
		return "", "", false
	}
	return line[:colon], strings.TrimSpace(line[colon+1:]), true
}

func assignHeader(h *Headers, key, name, value string) {
	switch key {
	case "from":
		h.From = value
	case "subject":
		h.Subject = value
	case "date":
		h.Date = value
	case "message-id":
		h.MessageID = value
	case "path":
		h.Path = value
	case "newsgroups":
		h.Newsgroups = splitCommaList(value)
	case "references":
		h.References = strings.Fields(value)
	case "reply-to":
		h.ReplyTo = value
	case "organization":
		h.Organization = value
	case "followup-to":
		h.FollowupTo = splitCommaList(value)
	case "expires":
		h.Expires = value
	case "control":
		h.Control = value
	case "distribution":
		h.Distribution = value
	case "keywords":
		h.Keywords = value
	case "summary":
		h.Summary = value
	case "supersedes":
		h.Supersedes = value
	case "approved":
		h.Approved = value
	case "lines":
		h.Lines = parseIntOrZero(value)
	case "user-agent":
		h.UserAgent = value
	case "xref":
		h.Xref = value
	default:
		h.Extra[name] = value
	}
}

func splitCommaList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIntOrZero(s string) int {
	n := 0
	for _, c := range strings.TrimSpace(s) {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
