// Package commands builds outbound NNTP command lines and parses the
// responses that answer them. Builders are pure functions: they never touch
// the network, matching the command-builder style of original_source's
// commands/mod.rs (authinfo_user, group, article, ...).
package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jvz-devx/nntp-rs-sub002/pkg/codes"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/errors"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/response"
)

// --- session/control ---

func Capabilities() string { return "CAPABILITIES" }

// CapabilitiesWithKeyword adds the optional keyword argument. Kept for RFC
// completeness; the client never needs it for capability discovery.
func CapabilitiesWithKeyword(keyword string) string {
	return "CAPABILITIES " + keyword
}

func Help() string { return "HELP" }

func Date() string { return "DATE" }

func ModeReader() string { return "MODE READER" }

// ModeStream switches the connection into the streaming extension (RFC
// 4644), after which CHECK/TAKETHIS replace IHAVE for transfer.
func ModeStream() string { return "MODE STREAM" }

func Quit() string { return "QUIT" }

// StartTLS is kept for RFC completeness. This client reaches TLS servers by
// dialing with implicit TLS (pkg/transport), not by upgrading a plaintext
// connection, so this builder is unused in the normal connect path.
func StartTLS() string { return "STARTTLS" }

func CompressDeflate() string { return "COMPRESS DEFLATE" }

func XFeatureCompressGzip() string { return "XFEATURE COMPRESS GZIP" }

// --- authentication ---

func AuthInfoUser(username string) string { return "AUTHINFO USER " + username }

func AuthInfoPass(password string) string { return "AUTHINFO PASS " + password }

func AuthInfoSASL(mechanism string) string { return "AUTHINFO SASL " + mechanism }

func AuthInfoSASLInitial(mechanism, initialResponse string) string {
	return fmt.Sprintf("AUTHINFO SASL %s %s", mechanism, initialResponse)
}

func AuthInfoSASLContinue(response string) string {
	return "AUTHINFO SASL " + response
}

// --- group/article selection ---

func Group(name string) string { return "GROUP " + name }

func ListGroup(name string) string {
	if name == "" {
		return "LISTGROUP"
	}
	return "LISTGROUP " + name
}

func ListGroupRange(name string, lo, hi int) string {
	return fmt.Sprintf("LISTGROUP %s %s", name, FormatRange(lo, hi))
}

func Article(idOrNumber string) string { return "ARTICLE " + idOrNumber }

func ArticleCurrent() string { return "ARTICLE" }

func Head(idOrNumber string) string { return "HEAD " + idOrNumber }

func HeadCurrent() string { return "HEAD" }

func Body(idOrNumber string) string { return "BODY " + idOrNumber }

func BodyCurrent() string { return "BODY" }

func Stat(idOrNumber string) string { return "STAT " + idOrNumber }

func StatCurrent() string { return "STAT" }

func Next() string { return "NEXT" }

func Last() string { return "LAST" }

// --- overview/headers ---

// Range is a half-open-on-either-end article range as accepted by OVER,
// HDR, and LISTGROUP: a single number, "a-b", "a-" (a and later), or ""
// (the whole group / current article, depending on command).
type Range struct {
	Low      int
	High     int
	HasLow   bool
	HasHigh  bool
}

// FormatRange renders a range the way OVER/HDR/LISTGROUP expect it.
// lo==0 && hi==0 means "no range" (current article only).
func FormatRange(lo, hi int) string {
	switch {
	case lo > 0 && hi > 0:
		return fmt.Sprintf("%d-%d", lo, hi)
	case lo > 0 && hi == 0:
		return fmt.Sprintf("%d-", lo)
	default:
		return ""
	}
}

// ParseRange parses a range argument of the forms "a", "a-b", "a-", or "".
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, nil
	}
	if !strings.Contains(s, "-") {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Range{}, errors.NewInvalidResponse("parse_range", "invalid range: "+s)
		}
		return Range{Low: n, HasLow: true, High: n, HasHigh: true}, nil
	}
	parts := strings.SplitN(s, "-", 2)
	r := Range{}
	if parts[0] != "" {
		n, err := strconv.Atoi(parts[0])
		if err != nil {
			return Range{}, errors.NewInvalidResponse("parse_range", "invalid range: "+s)
		}
		r.Low, r.HasLow = n, true
	}
	if parts[1] != "" {
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return Range{}, errors.NewInvalidResponse("parse_range", "invalid range: "+s)
		}
		r.High, r.HasHigh = n, true
	}
	return r, nil
}

func Over(rangeArg string) string {
	if rangeArg == "" {
		return "OVER"
	}
	return "OVER " + rangeArg
}

func XOver(rangeArg string) string {
	if rangeArg == "" {
		return "XOVER"
	}
	return "XOVER " + rangeArg
}

func Hdr(field, rangeOrID string) string {
	if rangeOrID == "" {
		return "HDR " + field
	}
	return fmt.Sprintf("HDR %s %s", field, rangeOrID)
}

func XHdr(field, rangeOrID string) string {
	if rangeOrID == "" {
		return "XHDR " + field
	}
	return fmt.Sprintf("XHDR %s %s", field, rangeOrID)
}

// HeaderEntry is one parsed HDR/XHDR response line: the header's value for
// one article, keyed by whichever identifier the server echoed back
// (article number when queried by range, message-id when queried by id).
type HeaderEntry struct {
	Article   int // 0 when Reference holds a message-id instead
	Reference string
	Value     string
}

func parseHeaderLine(line string) (HeaderEntry, bool) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) != 2 {
		return HeaderEntry{}, false
	}
	if n, err := strconv.Atoi(parts[0]); err == nil {
		return HeaderEntry{Article: n, Value: parts[1]}, true
	}
	return HeaderEntry{Reference: parts[0], Value: parts[1]}, true
}

// ParseHeaderEntries parses the body lines of a successful HDR/XHDR
// response, skipping malformed lines per spec.md's defensive list-parsing
// policy.
func ParseHeaderEntries(lines []string) []HeaderEntry {
	out := make([]HeaderEntry, 0, len(lines))
	for _, l := range lines {
		if e, ok := parseHeaderLine(l); ok {
			out = append(out, e)
		}
	}
	return out
}

// --- LIST family ---

func ListActive(wildmat string) string {
	if wildmat == "" {
		return "LIST ACTIVE"
	}
	return "LIST ACTIVE " + wildmat
}

func ListActiveTimes(wildmat string) string {
	if wildmat == "" {
		return "LIST ACTIVE.TIMES"
	}
	return "LIST ACTIVE.TIMES " + wildmat
}

func ListNewsgroups(wildmat string) string {
	if wildmat == "" {
		return "LIST NEWSGROUPS"
	}
	return "LIST NEWSGROUPS " + wildmat
}

func ListCounts(wildmat string) string {
	if wildmat == "" {
		return "LIST COUNTS"
	}
	return "LIST COUNTS " + wildmat
}

func ListDistributions() string { return "LIST DISTRIBUTIONS" }

func ListModerators() string { return "LIST MODERATORS" }

func ListMotd() string { return "LIST MOTD" }

func ListSubscriptions() string { return "LIST SUBSCRIPTIONS" }

func ListOverviewFmt() string { return "LIST OVERVIEW.FMT" }

func ListHeaders(variant string) string {
	if variant == "" {
		return "LIST HEADERS"
	}
	return "LIST HEADERS " + variant
}

func NewGroups(date, timeArg, gmt string) string {
	if gmt != "" {
		return fmt.Sprintf("NEWGROUPS %s %s %s", date, timeArg, gmt)
	}
	return fmt.Sprintf("NEWGROUPS %s %s", date, timeArg)
}

func NewNews(wildmat, date, timeArg, gmt string) string {
	if gmt != "" {
		return fmt.Sprintf("NEWNEWS %s %s %s %s", wildmat, date, timeArg, gmt)
	}
	return fmt.Sprintf("NEWNEWS %s %s %s", wildmat, date, timeArg)
}

// ActiveTime is one parsed LIST ACTIVE.TIMES line: a newsgroup, the Unix
// timestamp it was created, and the mailbox that created it.
type ActiveTime struct {
	Name    string
	Created int64
	Who     string
}

// ParseListActiveTimes parses LIST ACTIVE.TIMES body lines, skipping
// malformed ones.
func ParseListActiveTimes(lines []string) []ActiveTime {
	out := make([]ActiveTime, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		ts, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		out = append(out, ActiveTime{Name: fields[0], Created: ts, Who: fields[2]})
	}
	return out
}

// NewsgroupDescription is one parsed LIST NEWSGROUPS line: a group name and
// its free-text description.
type NewsgroupDescription struct {
	Name        string
	Description string
}

func parseNameAndRest(lines []string) []NewsgroupDescription {
	out := make([]NewsgroupDescription, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			continue
		}
		fields := strings.SplitN(trimmed, " ", 2)
		name := fields[0]
		if name == "" {
			continue
		}
		desc := ""
		if len(fields) == 2 {
			desc = strings.TrimLeft(fields[1], " \t")
		}
		out = append(out, NewsgroupDescription{Name: name, Description: desc})
	}
	return out
}

// ParseListNewsgroups parses LIST NEWSGROUPS body lines ("group
// description..."), skipping blank lines.
func ParseListNewsgroups(lines []string) []NewsgroupDescription {
	return parseNameAndRest(lines)
}

// GroupCount is one parsed LIST COUNTS line (RFC 6048 section 3.3): same
// field order as LIST ACTIVE, but the fourth field is the group's actual
// article count instead of a posting-permission flag.
type GroupCount struct {
	Name  string
	High  int
	Low   int
	Count int
}

// ParseListCounts parses LIST COUNTS body lines, skipping malformed ones.
func ParseListCounts(lines []string) []GroupCount {
	out := make([]GroupCount, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		high, errH := strconv.Atoi(fields[1])
		low, errL := strconv.Atoi(fields[2])
		count, errC := strconv.Atoi(fields[3])
		if errH != nil || errL != nil || errC != nil {
			continue
		}
		out = append(out, GroupCount{Name: fields[0], High: high, Low: low, Count: count})
	}
	return out
}

// DistributionEntry is one parsed LIST DISTRIBUTIONS line: a distribution
// name and its free-text description.
type DistributionEntry struct {
	Name        string
	Description string
}

// ParseListDistributions parses LIST DISTRIBUTIONS body lines.
func ParseListDistributions(lines []string) []DistributionEntry {
	out := make([]DistributionEntry, 0, len(lines))
	for _, e := range parseNameAndRest(lines) {
		out = append(out, DistributionEntry{Name: e.Name, Description: e.Description})
	}
	return out
}

// ModeratorEntry is one parsed LIST MODERATORS line (RFC 6048 section 3.5):
// a newsgroup wildmat pattern and the mailbox template articles posted to
// a matching group should be moderated through.
type ModeratorEntry struct {
	Pattern string
	Mailbox string
}

// ParseListModerators parses "pattern:mailbox-template" LIST MODERATORS
// lines, skipping lines with no colon separator.
func ParseListModerators(lines []string) []ModeratorEntry {
	out := make([]ModeratorEntry, 0, len(lines))
	for _, line := range lines {
		idx := strings.LastIndex(line, ":")
		if idx == -1 {
			continue
		}
		out = append(out, ModeratorEntry{Pattern: line[:idx], Mailbox: line[idx+1:]})
	}
	return out
}

// --- posting / transfer ---

func Post() string { return "POST" }

func IHave(messageID string) string { return "IHAVE " + messageID }

// Check is the streaming-extension precheck: "will you take this article?"
func Check(messageID string) string { return "CHECK " + messageID }

// TakeThis streams the article body immediately, no continuation round
// trip, per RFC 4644.
func TakeThis(messageID string) string { return "TAKETHIS " + messageID }

// --- response parsing helpers ---

// GroupInfo is the parsed reply to a successful GROUP command.
type GroupInfo struct {
	Name  string
	Count int
	Low   int
	High  int
}

// ParseGroupResponse parses "211 count low high group" from a successful
// GROUP reply's status line.
func ParseGroupResponse(resp response.Response) (GroupInfo, error) {
	if resp.Code != codes.GroupSelected {
		return GroupInfo{}, errors.NewProtocolError(resp.Code, resp.Message)
	}
	fields := strings.Fields(resp.Message)
	if len(fields) < 4 {
		return GroupInfo{}, errors.NewInvalidResponse("parse_group", "malformed GROUP response: "+resp.Message)
	}
	count, err1 := strconv.Atoi(fields[0])
	low, err2 := strconv.Atoi(fields[1])
	high, err3 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return GroupInfo{}, errors.NewInvalidResponse("parse_group", "non-numeric GROUP fields: "+resp.Message)
	}
	return GroupInfo{Name: fields[3], Count: count, Low: low, High: high}, nil
}

// ArticleID is a parsed "number message-id" pair as returned by STAT,
// NEXT, LAST, and the first line of ARTICLE/HEAD/BODY.
type ArticleID struct {
	Number    int
	MessageID string
}

// ParseArticleSelection parses "223 number message-id" (and the analogous
// 220/221/222 forms).
func ParseArticleSelection(resp response.Response) (ArticleID, error) {
	fields := strings.Fields(resp.Message)
	if len(fields) < 2 {
		return ArticleID{}, errors.NewInvalidResponse("parse_article_selection", "malformed selection response: "+resp.Message)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return ArticleID{}, errors.NewInvalidResponse("parse_article_selection", "non-numeric article number: "+resp.Message)
	}
	return ArticleID{Number: n, MessageID: fields[1]}, nil
}

// ActiveGroup is one parsed line of a LIST ACTIVE response.
type ActiveGroup struct {
	Name       string
	High       int
	Low        int
	PostingFlag string
}

// ParseListActive parses LIST ACTIVE body lines, skipping (not erroring on)
// any malformed line, per spec.md's defensive parsing policy for
// list-family responses: one bad line from a server should not fail the
// whole listing.
func ParseListActive(lines []string) []ActiveGroup {
	out := make([]ActiveGroup, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		high, errH := strconv.Atoi(fields[1])
		low, errL := strconv.Atoi(fields[2])
		if errH != nil || errL != nil {
			continue
		}
		out = append(out, ActiveGroup{Name: fields[0], High: high, Low: low, PostingFlag: fields[3]})
	}
	return out
}

// OverviewEntry is one parsed OVER/XOVER tab-separated line.
type OverviewEntry struct {
	Number    int
	Subject   string
	From      string
	Date      string
	MessageID string
	References string
	Bytes     int
	Lines     int
	ExtraFields []string
}

// ParseOverviewLine parses a single tab-separated OVER/XOVER line:
// number<TAB>subject<TAB>from<TAB>date<TAB>message-id<TAB>references<TAB>bytes<TAB>lines[<TAB>extra...]
// Numeric fields that fail to parse default to zero rather than erroring,
// matching spec.md's documented defensive policy for this one command
// family (status-line/terminator parsing stays strict; this one field
// group is allowed to degrade instead of aborting a whole fetch because
// individual overview database entries are routinely malformed in the
// wild).
func ParseOverviewLine(line string) (OverviewEntry, bool) {
	fields := strings.Split(line, "\t")
	if len(fields) < 7 {
		return OverviewEntry{}, false
	}
	num, _ := strconv.Atoi(fields[0])
	bytesCount, _ := strconv.Atoi(fields[6])
	lines := 0
	if len(fields) >= 8 {
		lines, _ = strconv.Atoi(fields[7])
	}
	entry := OverviewEntry{
		Number:     num,
		Subject:    fields[1],
		From:       fields[2],
		Date:       fields[3],
		MessageID:  fields[4],
		References: fields[5],
		Bytes:      bytesCount,
		Lines:      lines,
	}
	if len(fields) > 8 {
		entry.ExtraFields = fields[8:]
	}
	return entry, true
}

// Capability is one line of a CAPABILITIES response: a keyword plus its
// (possibly empty) argument list.
type Capability struct {
	Keyword string
	Args    []string
}

// ParseCapabilities parses every line of a CAPABILITIES response body.
func ParseCapabilities(lines []string) []Capability {
	out := make([]Capability, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		out = append(out, Capability{Keyword: strings.ToUpper(fields[0]), Args: fields[1:]})
	}
	return out
}
