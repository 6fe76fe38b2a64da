package article

import (
	"strings"
	"testing"
)

func TestBuilderRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *Builder
		wantErr bool
	}{
		{
			"missing from",
			func() *Builder { return NewBuilder().Subject("s").Newsgroups("alt.test") },
			true,
		},
		{
			"missing subject",
			func() *Builder { return NewBuilder().From("a@b.com").Newsgroups("alt.test") },
			true,
		},
		{
			"missing newsgroups",
			func() *Builder { return NewBuilder().From("a@b.com").Subject("s") },
			true,
		},
		{
			"supersedes and control both set",
			func() *Builder {
				return NewBuilder().From("a@b.com").Subject("s").Newsgroups("alt.test").
					Supersedes("<old@id>").Control("cancel <old@id>")
			},
			true,
		},
		{
			"valid minimal",
			func() *Builder { return NewBuilder().From("a@b.com").Subject("s").Newsgroups("alt.test") },
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Build()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Build() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuilderFillsDefaults(t *testing.T) {
	a, err := NewBuilder().From("alice@example.com").Subject("hello").Newsgroups("alt.test").Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if a.Headers.Date == "" {
		t.Error("expected a default Date to be filled in")
	}
	if a.Headers.MessageID == "" || !strings.HasSuffix(a.Headers.MessageID, "@example.com>") {
		t.Errorf("MessageID = %q, want one derived from the From domain", a.Headers.MessageID)
	}
	if a.Headers.Path != "not-for-mail" {
		t.Errorf("Path = %q, want not-for-mail default", a.Headers.Path)
	}
}

func TestBuilderMessageIDFallsBackToLocalhost(t *testing.T) {
	a, err := NewBuilder().From("no-at-sign").Subject("s").Newsgroups("alt.test").Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.HasSuffix(a.Headers.MessageID, "@localhost>") {
		t.Errorf("MessageID = %q, want @localhost fallback", a.Headers.MessageID)
	}
}

func TestSerializeForPostingDotStuffing(t *testing.T) {
	a := Article{
		Headers: Headers{
			From: "alice@example.com", Subject: "s", Date: "d", MessageID: "<m@id>", Path: "not-for-mail",
			Newsgroups: []string{"alt.test"},
		},
		Body: ".this line starts with a dot\nnormal line",
	}
	out := a.SerializeForPosting()
	if !strings.Contains(out, "..this line starts with a dot\r\n") {
		t.Errorf("expected leading dot to be stuffed, got:\n%s", out)
	}
	if !strings.HasSuffix(out, ".\r\n") {
		t.Errorf("expected terminator line, got:\n%s", out)
	}
	if !strings.Contains(out, "Newsgroups: alt.test\r\n") {
		t.Errorf("expected Newsgroups header, got:\n%s", out)
	}
}

func TestParseRoundTrip(t *testing.T) {
	a := Article{
		Headers: Headers{
			From: "alice@example.com", Subject: "hello world", Date: "d", MessageID: "<m@id>",
			Path: "not-for-mail", Newsgroups: []string{"alt.test", "alt.other"},
		},
		Body: "line one\nline two",
	}
	serialized := a.SerializeForPosting()
	lines := strings.Split(strings.TrimSuffix(serialized, "\r\n"), "\r\n")
	// Strip the trailing "." terminator line Parse doesn't expect.
	lines = lines[:len(lines)-1]

	got, err := Parse(lines)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Headers.From != a.Headers.From {
		t.Errorf("From = %q, want %q", got.Headers.From, a.Headers.From)
	}
	if got.Headers.Subject != a.Headers.Subject {
		t.Errorf("Subject = %q, want %q", got.Headers.Subject, a.Headers.Subject)
	}
	if len(got.Headers.Newsgroups) != 2 || got.Headers.Newsgroups[0] != "alt.test" {
		t.Errorf("Newsgroups = %v", got.Headers.Newsgroups)
	}
	if got.Body != "line one\nline two" {
		t.Errorf("Body = %q", got.Body)
	}
}

func TestParseMissingBlankLine(t *testing.T) {
	_, err := Parse([]string{"From: a@b.com", "Subject: s"})
	if err == nil {
		t.Error("expected error when no blank line separates headers from body")
	}
}

func TestParseUnfoldsContinuationLines(t *testing.T) {
	lines := []string{
		"Subject: a long",
		" subject line",
		"From: a@b.com",
		"",
		"body",
	}
	got, err := Parse(lines)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Headers.Subject != "a long subject line" {
		t.Errorf("Subject = %q, want unfolded continuation", got.Headers.Subject)
	}
}

func TestParseExtraHeaders(t *testing.T) {
	lines := []string{"From: a@b.com", "X-Custom: value", "", "body"}
	got, err := Parse(lines)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Headers.Extra["X-Custom"] != "value" {
		t.Errorf("Extra[X-Custom] = %q, want value", got.Headers.Extra["X-Custom"])
	}
}

func TestDecodeHeaderValueQEncoding(t *testing.T) {
	got := DecodeHeaderValue("=?UTF-8?Q?Hello_World?=")
	if got != "Hello World" {
		t.Errorf("got %q, want %q", got, "Hello World")
	}
}

func TestDecodeHeaderValueBEncoding(t *testing.T) {
	// base64 of "Hello" is SGVsbG8=
	got := DecodeHeaderValue("=?UTF-8?B?SGVsbG8=?=")
	if got != "Hello" {
		t.Errorf("got %q, want %q", got, "Hello")
	}
}

func TestDecodeHeaderValueAdjacentWordsCollapseWhitespace(t *testing.T) {
	got := DecodeHeaderValue("=?UTF-8?Q?Hello?= =?UTF-8?Q?World?=")
	if got != "HelloWorld" {
		t.Errorf("got %q, want adjacent encoded words joined with no space", got)
	}
}

func TestDecodeHeaderValuePassthroughOnUnrecognized(t *testing.T) {
	plain := "just a plain subject line"
	if got := DecodeHeaderValue(plain); got != plain {
		t.Errorf("got %q, want unchanged %q", got, plain)
	}
}

func TestDecodeHeaderValueMalformedPassthrough(t *testing.T) {
	malformed := "=?UTF-8?Z?Hello?="
	if got := DecodeHeaderValue(malformed); got != malformed {
		t.Errorf("got %q, want malformed encoding passed through unchanged", got)
	}
}

func TestDecodeHeaderValueISO8859_1(t *testing.T) {
	// "café" in ISO-8859-1, base64 encoded: 63 61 66 e9 -> Y2Fm6Q==
	got := DecodeHeaderValue("=?ISO-8859-1?B?Y2Fm6Q==?=")
	if got != "café" {
		t.Errorf("got %q, want %q", got, "café")
	}
}
