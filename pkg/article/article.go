// Package article models RFC 5536 Usenet articles: the Headers/Article
// types, a fluent Builder grounded on original_source's
// article/builder.rs, and a serializer/parser pair for turning an Article
// to and from the wire form NNTP POST/IHAVE/ARTICLE carry.
package article

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jvz-devx/nntp-rs-sub002/pkg/errors"
)

// Headers holds the RFC 5536 header fields this client understands, plus an
// Extra bag for anything else a server or poster attaches.
type Headers struct {
	Date        string
	From        string
	MessageID   string
	Newsgroups  []string
	Path        string
	Subject     string
	References  []string
	ReplyTo     string
	Organization string
	FollowupTo  []string
	Expires     string
	Control     string
	Distribution string
	Keywords    string
	Summary     string
	Supersedes  string
	Approved    string
	Lines       int // set by the server, not the poster
	UserAgent   string
	Xref        string // set by the server, not the poster
	Extra       map[string]string
}

// Article is a fully built article: headers plus the body text.
type Article struct {
	Headers Headers
	Body    string
}

// Builder constructs an Article fluently, mirroring
// original_source's ArticleBuilder.
type Builder struct {
	h    Headers
	body string
}

// NewBuilder starts a new article Builder.
func NewBuilder() *Builder {
	return &Builder{h: Headers{Extra: map[string]string{}}}
}

func (b *Builder) From(from string) *Builder       { b.h.From = from; return b }
func (b *Builder) Subject(subject string) *Builder { b.h.Subject = subject; return b }
func (b *Builder) Newsgroups(groups ...string) *Builder {
	b.h.Newsgroups = append([]string{}, groups...)
	return b
}
func (b *Builder) AddNewsgroup(group string) *Builder {
	b.h.Newsgroups = append(b.h.Newsgroups, group)
	return b
}
func (b *Builder) Body(body string) *Builder             { b.body = body; return b }
func (b *Builder) Date(date string) *Builder             { b.h.Date = date; return b }
func (b *Builder) MessageID(id string) *Builder          { b.h.MessageID = id; return b }
func (b *Builder) Path(path string) *Builder             { b.h.Path = path; return b }
func (b *Builder) References(refs ...string) *Builder    { b.h.References = refs; return b }
func (b *Builder) ReplyTo(addr string) *Builder          { b.h.ReplyTo = addr; return b }
func (b *Builder) Organization(org string) *Builder      { b.h.Organization = org; return b }
func (b *Builder) FollowupTo(groups ...string) *Builder  { b.h.FollowupTo = groups; return b }
func (b *Builder) Expires(expires string) *Builder       { b.h.Expires = expires; return b }
func (b *Builder) Control(control string) *Builder       { b.h.Control = control; return b }
func (b *Builder) Distribution(dist string) *Builder     { b.h.Distribution = dist; return b }
func (b *Builder) Keywords(keywords string) *Builder     { b.h.Keywords = keywords; return b }
func (b *Builder) Summary(summary string) *Builder       { b.h.Summary = summary; return b }

// Supersedes sets the Supersedes header (RFC 5536 3.2.12). Mutually
// exclusive with Control; Build reports an error if both are set.
func (b *Builder) Supersedes(messageID string) *Builder { b.h.Supersedes = messageID; return b }
func (b *Builder) Approved(approved string) *Builder     { b.h.Approved = approved; return b }
func (b *Builder) UserAgent(ua string) *Builder          { b.h.UserAgent = ua; return b }
func (b *Builder) ExtraHeader(name, value string) *Builder {
	b.h.Extra[name] = value
	return b
}

// Build validates required fields (From, Subject, at least one newsgroup),
// rejects Supersedes+Control together, and fills in Date/Message-ID/Path
// defaults exactly as original_source's ArticleBuilder::build does.
func (b *Builder) Build() (Article, error) {
	if b.h.From == "" {
		return Article{}, errors.NewClientError("From header is required")
	}
	if b.h.Subject == "" {
		return Article{}, errors.NewClientError("Subject header is required")
	}
	if len(b.h.Newsgroups) == 0 {
		return Article{}, errors.NewClientError("at least one newsgroup is required")
	}
	if b.h.Supersedes != "" && b.h.Control != "" {
		return Article{}, errors.NewClientError("article cannot have both Supersedes and Control headers")
	}

	h := b.h
	if h.Date == "" {
		h.Date = time.Now().UTC().Format("Mon, 02 Jan 2006 15:04:05 -0700")
	}
	if h.MessageID == "" {
		h.MessageID = fmt.Sprintf("<%s@%s>", uuid.New().String(), messageIDDomain(h.From))
	}
	if h.Path == "" {
		h.Path = "not-for-mail"
	}

	return Article{Headers: h, Body: b.body}, nil
}

// BuildForPosting builds the article and serializes it for POST/IHAVE in
// one call, matching original_source's build_for_posting convenience.
func (b *Builder) BuildForPosting() (string, error) {
	a, err := b.Build()
	if err != nil {
		return "", err
	}
	return a.SerializeForPosting(), nil
}

func messageIDDomain(from string) string {
	at := strings.LastIndexByte(from, '@')
	if at == -1 {
		return "localhost"
	}
	rest := from[at+1:]
	if gt := strings.IndexByte(rest, '>'); gt != -1 {
		rest = rest[:gt]
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "localhost"
	}
	return rest
}
