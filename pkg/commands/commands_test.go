package commands

import (
	"reflect"
	"testing"

	"github.com/jvz-devx/nntp-rs-sub002/pkg/response"
)

func TestBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Group", Group("alt.test"), "GROUP alt.test"},
		{"ListGroup empty", ListGroup(""), "LISTGROUP"},
		{"ListGroup named", ListGroup("alt.test"), "LISTGROUP alt.test"},
		{"ListGroupRange", ListGroupRange("alt.test", 1, 10), "LISTGROUP alt.test 1-10"},
		{"ArticleCurrent", ArticleCurrent(), "ARTICLE"},
		{"Article by id", Article("<msg@id>"), "ARTICLE <msg@id>"},
		{"AuthInfoUser", AuthInfoUser("alice"), "AUTHINFO USER alice"},
		{"AuthInfoPass", AuthInfoPass("secret"), "AUTHINFO PASS secret"},
		{"Over empty", Over(""), "OVER"},
		{"Over range", Over("1-10"), "OVER 1-10"},
		{"Check", Check("<msg@id>"), "CHECK <msg@id>"},
		{"TakeThis", TakeThis("<msg@id>"), "TAKETHIS <msg@id>"},
		{"ListActive wildmat", ListActive("alt.*"), "LIST ACTIVE alt.*"},
		{"NewGroups no gmt", NewGroups("240101", "000000", ""), "NEWGROUPS 240101 000000"},
		{"NewGroups with gmt", NewGroups("240101", "000000", "GMT"), "NEWGROUPS 240101 000000 GMT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestFormatRange(t *testing.T) {
	tests := []struct {
		lo, hi int
		want   string
	}{
		{1, 10, "1-10"},
		{5, 0, "5-"},
		{0, 0, ""},
	}
	for _, tt := range tests {
		if got := FormatRange(tt.lo, tt.hi); got != tt.want {
			t.Errorf("FormatRange(%d, %d) = %q, want %q", tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Range
		wantErr bool
	}{
		{"empty", "", Range{}, false},
		{"single", "42", Range{Low: 42, HasLow: true, High: 42, HasHigh: true}, false},
		{"bounded", "1-10", Range{Low: 1, HasLow: true, High: 10, HasHigh: true}, false},
		{"open ended", "5-", Range{Low: 5, HasLow: true}, false},
		{"open start", "-10", Range{High: 10, HasHigh: true}, false},
		{"invalid", "abc", Range{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRange(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseRange(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseGroupResponse(t *testing.T) {
	resp := response.Response{Code: 211, Message: "1234 1 1234 alt.test"}
	got, err := ParseGroupResponse(resp)
	if err != nil {
		t.Fatalf("ParseGroupResponse() error = %v", err)
	}
	want := GroupInfo{Name: "alt.test", Count: 1234, Low: 1, High: 1234}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParseGroupResponseErrors(t *testing.T) {
	if _, err := ParseGroupResponse(response.Response{Code: 411, Message: "no such group"}); err == nil {
		t.Error("expected error for non-211 code")
	}
	if _, err := ParseGroupResponse(response.Response{Code: 211, Message: "alt.test"}); err == nil {
		t.Error("expected error for malformed 211 message")
	}
	if _, err := ParseGroupResponse(response.Response{Code: 211, Message: "x y z alt.test"}); err == nil {
		t.Error("expected error for non-numeric fields")
	}
}

func TestParseArticleSelection(t *testing.T) {
	got, err := ParseArticleSelection(response.Response{Code: 223, Message: "42 <msg@id>"})
	if err != nil {
		t.Fatalf("ParseArticleSelection() error = %v", err)
	}
	if got.Number != 42 || got.MessageID != "<msg@id>" {
		t.Errorf("got %+v", got)
	}
}

func TestParseListActive(t *testing.T) {
	lines := []string{
		"alt.test 100 1 y",
		"malformed line",
		"alt.binaries 5000 1 n",
		"alt.bad abc 1 y", // non-numeric high
	}
	got := ParseListActive(lines)
	if len(got) != 2 {
		t.Fatalf("got %d groups, want 2 (malformed lines skipped): %+v", len(got), got)
	}
	if got[0].Name != "alt.test" || got[0].High != 100 || got[0].Low != 1 || got[0].PostingFlag != "y" {
		t.Errorf("got[0] = %+v", got[0])
	}
}

func TestParseOverviewLine(t *testing.T) {
	line := "1\tSubject one\tauthor@example.com\tdate\t<msg@id>\t<ref@id>\t1024\t20"
	got, ok := ParseOverviewLine(line)
	if !ok {
		t.Fatal("ParseOverviewLine() returned ok=false for a well-formed line")
	}
	if got.Number != 1 || got.Bytes != 1024 || got.Lines != 20 || got.MessageID != "<msg@id>" {
		t.Errorf("got %+v", got)
	}
}

func TestParseOverviewLineTooFewFields(t *testing.T) {
	if _, ok := ParseOverviewLine("1\tSubject\tFrom"); ok {
		t.Error("expected ok=false for a line with fewer than 7 fields")
	}
}

func TestParseOverviewLineDefensiveNumericFields(t *testing.T) {
	// Real servers sometimes emit a non-numeric or missing byte/line count;
	// those fields default to zero instead of failing the whole line.
	line := "1\tSubject\tFrom\tDate\t<msg@id>\t\tnotanumber"
	got, ok := ParseOverviewLine(line)
	if !ok {
		t.Fatal("ParseOverviewLine() returned ok=false, want true with zero-defaulted Bytes")
	}
	if got.Bytes != 0 {
		t.Errorf("Bytes = %d, want 0 for non-numeric field", got.Bytes)
	}
	if got.Lines != 0 {
		t.Errorf("Lines = %d, want 0 when field absent", got.Lines)
	}
}

func TestParseOverviewLineExtraFields(t *testing.T) {
	line := "1\tSubject\tFrom\tDate\t<msg@id>\t\t100\t10\tXref: full alt.test:1"
	got, ok := ParseOverviewLine(line)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if len(got.ExtraFields) != 1 || got.ExtraFields[0] != "Xref: full alt.test:1" {
		t.Errorf("ExtraFields = %v", got.ExtraFields)
	}
}

func TestParseHeaderEntries(t *testing.T) {
	lines := []string{
		"1 hello world",
		"<msg@id> a message-id keyed value",
		"malformed",
	}
	got := ParseHeaderEntries(lines)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2 (malformed line skipped): %+v", len(got), got)
	}
	if got[0].Article != 1 || got[0].Value != "hello world" {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Reference != "<msg@id>" || got[1].Article != 0 {
		t.Errorf("got[1] = %+v", got[1])
	}
}

func TestParseListActiveTimes(t *testing.T) {
	lines := []string{
		"alt.test 1234567890 owner@example.com",
		"malformed",
		"alt.bad notanumber owner@example.com",
	}
	got := ParseListActiveTimes(lines)
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1: %+v", len(got), got)
	}
	if got[0].Name != "alt.test" || got[0].Created != 1234567890 || got[0].Who != "owner@example.com" {
		t.Errorf("got[0] = %+v", got[0])
	}
}

func TestParseListNewsgroups(t *testing.T) {
	lines := []string{
		"alt.test A test group",
		"alt.nodesc",
		"",
	}
	got := ParseListNewsgroups(lines)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2 (blank line skipped): %+v", len(got), got)
	}
	if got[0].Name != "alt.test" || got[0].Description != "A test group" {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Name != "alt.nodesc" || got[1].Description != "" {
		t.Errorf("got[1] = %+v", got[1])
	}
}

func TestParseListCounts(t *testing.T) {
	lines := []string{
		"alt.test 100 1 50",
		"malformed",
		"alt.bad x y z",
	}
	got := ParseListCounts(lines)
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1: %+v", len(got), got)
	}
	if got[0] != (GroupCount{Name: "alt.test", High: 100, Low: 1, Count: 50}) {
		t.Errorf("got[0] = %+v", got[0])
	}
}

func TestParseListDistributions(t *testing.T) {
	lines := []string{"world world-wide distribution", "local local only"}
	got := ParseListDistributions(lines)
	if len(got) != 2 || got[0].Name != "world" || got[0].Description != "world-wide distribution" {
		t.Errorf("got = %+v", got)
	}
}

func TestParseListModerators(t *testing.T) {
	lines := []string{
		"alt.test.*:moderators@example.com",
		"no-colon-here",
	}
	got := ParseListModerators(lines)
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1 (line with no colon skipped): %+v", len(got), got)
	}
	if got[0].Pattern != "alt.test.*" || got[0].Mailbox != "moderators@example.com" {
		t.Errorf("got[0] = %+v", got[0])
	}
}

func TestListFamilyBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ListActiveTimes empty", ListActiveTimes(""), "LIST ACTIVE.TIMES"},
		{"ListActiveTimes wildmat", ListActiveTimes("alt.*"), "LIST ACTIVE.TIMES alt.*"},
		{"ListNewsgroups empty", ListNewsgroups(""), "LIST NEWSGROUPS"},
		{"ListCounts wildmat", ListCounts("alt.*"), "LIST COUNTS alt.*"},
		{"ListDistributions", ListDistributions(), "LIST DISTRIBUTIONS"},
		{"ListModerators", ListModerators(), "LIST MODERATORS"},
		{"ListMotd", ListMotd(), "LIST MOTD"},
		{"ListSubscriptions", ListSubscriptions(), "LIST SUBSCRIPTIONS"},
		{"ListOverviewFmt", ListOverviewFmt(), "LIST OVERVIEW.FMT"},
		{"ListHeaders empty", ListHeaders(""), "LIST HEADERS"},
		{"ListHeaders variant", ListHeaders("MSGID"), "LIST HEADERS MSGID"},
		{"Hdr no range", Hdr("Subject", ""), "HDR Subject"},
		{"Hdr with range", Hdr("Subject", "1-10"), "HDR Subject 1-10"},
		{"XHdr no range", XHdr("Subject", ""), "XHDR Subject"},
		{"NewNews no gmt", NewNews("alt.*", "240101", "000000", ""), "NEWNEWS alt.* 240101 000000"},
		{"NewNews with gmt", NewNews("alt.*", "240101", "000000", "GMT"), "NEWNEWS alt.* 240101 000000 GMT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestParseCapabilities(t *testing.T) {
	lines := []string{
		"VERSION 2",
		"READER",
		"STARTTLS",
		"COMPRESS DEFLATE",
		"",
	}
	got := ParseCapabilities(lines)
	if len(got) != 4 {
		t.Fatalf("got %d capabilities, want 4 (blank line skipped): %+v", len(got), got)
	}
	if got[0].Keyword != "VERSION" || len(got[0].Args) != 1 || got[0].Args[0] != "2" {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[3].Keyword != "COMPRESS" || got[3].Args[0] != "DEFLATE" {
		t.Errorf("got[3] = %+v", got[3])
	}
}
