// Package client implements the NNTP connection state machine: dialing,
// authentication, group selection, article navigation, posting, streaming
// (CHECK/TAKETHIS), and compression negotiation on top of pkg/framer.
package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/jvz-devx/nntp-rs-sub002/pkg/article"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/codes"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/commands"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/config"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/errors"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/framer"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/response"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/timing"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/transport"
)

// connState tracks authentication progress per RFC 4643.
type connState int

const (
	stateReady connState = iota
	stateInProgress
	stateAuthenticated
	stateClosed
)

// compressionMode tracks which compression extension, if any, is active.
type compressionMode int

const (
	compressionNone compressionMode = iota
	compressionHeadersOnly
	compressionFullSession
)

// Client is a single NNTP session: one TCP/TLS connection, its framer, and
// the protocol state (auth progress, selected group, negotiated
// capabilities/compression). Not safe for concurrent use by multiple
// goroutines — callers that need concurrency should use pkg/pool.
type Client struct {
	mu sync.Mutex

	cfg    config.ServerConfig
	conn   transport.Metadata
	framer *framer.Framer

	state           connState
	compression     compressionMode
	currentGroup    string
	capabilities    []commands.Capability
	capabilitiesSet bool

	connectMetrics timing.Metrics

	log *log.Entry
}

// ConnectMetrics reports how long the phases of Connect took for this
// session: TCP dial (which includes the TLS handshake when UseTLS is set)
// and the wait for the server's greeting line. TLSHandshake is always zero,
// since Connect does not time the handshake separately.
func (c *Client) ConnectMetrics() timing.Metrics {
	return c.connectMetrics
}

// Connect dials cfg.Host:cfg.Port, reads the server greeting, and returns a
// ready Client. It does not authenticate; call Authenticate for that.
func Connect(ctx context.Context, cfg config.ServerConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// transport.Dial performs the TCP connect and, for implicit TLS, the
	// handshake in one call; both count toward TCPConnect since they can't
	// be split without changing Dial's signature.
	timer := timing.NewTimer()
	timer.StartTCP()
	conn, meta, err := transport.Dial(ctx, cfg)
	timer.EndTCP()
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    cfg,
		conn:   meta,
		framer: framer.New(conn),
		state:  stateReady,
		log:    log.WithField("server", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
	}

	timer.StartGreeting()
	resp, err := c.framer.ReadStatus()
	timer.EndGreeting()
	if err != nil {
		c.framer.Close()
		return nil, err
	}
	if !resp.IsSuccess() {
		c.framer.Close()
		return nil, errors.NewProtocolError(resp.Code, "unexpected greeting: "+resp.Message)
	}
	c.connectMetrics = timer.Metrics()
	c.log.Debugf("connected, greeting: %d %s (%s)", resp.Code, resp.Message, c.connectMetrics)

	if !cfg.DisableCompression {
		if err := c.tryEnableCompression(); err != nil {
			c.log.Debugf("compression negotiation skipped: %v", err)
		}
	}

	return c, nil
}

// Close sends QUIT and closes the underlying connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateClosed {
		return nil
	}
	_ = c.framer.WriteLine(commands.Quit())
	_, _ = c.framer.ReadStatus()
	c.state = stateClosed
	return c.framer.Close()
}

func (c *Client) requireOpen(op string) error {
	if c.state == stateClosed {
		return errors.NewConnectionClosed(op)
	}
	return nil
}

// markClosed transitions the connection to Closed after a transport/IO
// failure, per spec.md §3's invariant that a transport failure always
// closes the connection. Callers hold c.mu already.
func (c *Client) markClosed() {
	c.state = stateClosed
}

// IsClosed reports whether this connection has been closed, either
// explicitly via Close or after a transport failure, and must not be
// reused. pkg/pool uses this to decide whether Release should re-idle the
// connection or discard it.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateClosed
}

// sendCommand writes line and reads a plain status response.
func (c *Client) sendCommand(line string) (response.Response, error) {
	if err := c.requireOpen("command"); err != nil {
		return response.Response{}, err
	}
	if err := c.framer.WriteLine(line); err != nil {
		c.markClosed()
		return response.Response{}, err
	}
	resp, err := c.framer.ReadStatus()
	if err != nil {
		c.markClosed()
	}
	return resp, err
}

// sendMultiline writes line and reads a status + dot-terminated text body,
// inflating the body through XFEATURE COMPRESS GZIP first when that mode
// was negotiated.
func (c *Client) sendMultiline(line string) (response.Response, error) {
	if err := c.requireOpen("command"); err != nil {
		return response.Response{}, err
	}
	if err := c.framer.WriteLine(line); err != nil {
		c.markClosed()
		return response.Response{}, err
	}
	var resp response.Response
	var err error
	if c.compression == compressionHeadersOnly {
		resp, err = c.framer.ReadMultilineGzip()
	} else {
		resp, err = c.framer.ReadMultiline()
	}
	if err != nil {
		c.markClosed()
	}
	return resp, err
}

// Capabilities returns the server's advertised capability list, querying
// the server only on first use within this session.
func (c *Client) Capabilities() ([]commands.Capability, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capabilitiesSet {
		return c.capabilities, nil
	}
	resp, err := c.sendMultiline(commands.Capabilities())
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}
	c.capabilities = commands.ParseCapabilities(resp.Lines)
	c.capabilitiesSet = true
	return c.capabilities, nil
}

func (c *Client) hasCapability(keyword string) bool {
	caps, err := c.Capabilities()
	if err != nil {
		return false
	}
	for _, cp := range caps {
		if strings.EqualFold(cp.Keyword, keyword) {
			return true
		}
	}
	return false
}

// tryEnableCompression negotiates COMPRESS DEFLATE first, falling back to
// XFEATURE COMPRESS GZIP (per-response only, nothing to enable on the
// framer itself). A server that rejects COMPRESS DEFLATE once is assumed
// to reject it for the rest of the session.
func (c *Client) tryEnableCompression() error {
	if c.hasCapability("COMPRESS") {
		resp, err := c.sendCommand(commands.CompressDeflate())
		if err != nil {
			return err
		}
		if resp.Code == codes.CompressionNotPossible || resp.IsError() {
			c.log.Debugf("COMPRESS DEFLATE rejected: %d %s", resp.Code, resp.Message)
		} else if resp.IsSuccess() {
			if err := c.framer.EnableDeflate(); err != nil {
				return err
			}
			c.compression = compressionFullSession
			c.log.Debug("full-session DEFLATE compression enabled")
			return nil
		}
	}
	if c.hasCapability("XFEATURE-COMPRESS-GZIP") {
		resp, err := c.sendCommand(commands.XFeatureCompressGzip())
		if err != nil {
			return err
		}
		if resp.IsSuccess() {
			c.compression = compressionHeadersOnly
			c.log.Debug("per-response GZIP compression enabled")
		}
	}
	return nil
}

// Authenticate performs the AUTHINFO USER/PASS exchange.
func (c *Client) Authenticate(username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.sendCommand(commands.AuthInfoUser(username))
	if err != nil {
		return err
	}
	switch {
	case resp.Code == codes.AuthInfoAccepted:
		c.state = stateAuthenticated
		return nil
	case resp.Code == codes.PasswordRequired:
		c.state = stateInProgress
	case resp.Code == codes.AuthOutOfSequence:
		return errors.NewAuthOutOfSequence()
	default:
		return errors.NewAuthFailed(resp.Message)
	}

	resp, err = c.sendCommand(commands.AuthInfoPass(password))
	if err != nil {
		return err
	}
	switch resp.Code {
	case codes.AuthInfoAccepted:
		c.state = stateAuthenticated
		c.capabilitiesSet = false // capabilities may change post-auth
		return nil
	case codes.PasswordRequired, codes.SASLContinue:
		// Server wants another round beyond plain USER/PASS (e.g. it fell
		// back to a SASL challenge); this exchange doesn't drive further
		// rounds, but the session itself stays InProgress rather than
		// erroring back to Ready, per spec.md §4.5.
		c.state = stateInProgress
		return errors.NewAuthFailed("server requested an additional authentication round: " + resp.Message)
	case codes.AuthRejected:
		c.state = stateReady
		return errors.NewAuthFailed(resp.Message)
	case codes.AuthOutOfSequence:
		c.state = stateReady
		return errors.NewAuthOutOfSequence()
	default:
		c.state = stateReady
		return errors.NewProtocolError(resp.Code, resp.Message)
	}
}

// AuthenticateSASL drives an AUTHINFO SASL exchange (RFC 4643): it sends
// the mechanism name (with an optional initial response for mechanisms
// that support one), then for every 383 continuation challenge the server
// sends, hands the challenge text to respond and wires its answer back as
// the next AUTHINFO SASL line, until the server accepts (281) or rejects
// (481/482) the exchange.
func (c *Client) AuthenticateSASL(mechanism, initialResponse string, respond func(challenge string) (string, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateAuthenticated {
		return errors.NewProtocolError(codes.CommandUnavailable, "already authenticated")
	}

	var line string
	if initialResponse != "" {
		line = commands.AuthInfoSASLInitial(mechanism, initialResponse)
	} else {
		line = commands.AuthInfoSASL(mechanism)
	}

	resp, err := c.sendCommand(line)
	if err != nil {
		return err
	}
	for {
		switch resp.Code {
		case codes.AuthInfoAccepted:
			c.state = stateAuthenticated
			c.capabilitiesSet = false
			return nil
		case codes.SASLContinue:
			c.state = stateInProgress
			if respond == nil {
				return errors.NewAuthFailed("server sent a SASL continuation but no respond callback was given")
			}
			answer, rerr := respond(resp.Message)
			if rerr != nil {
				return rerr
			}
			resp, err = c.sendCommand(commands.AuthInfoSASLContinue(answer))
			if err != nil {
				return err
			}
		case codes.AuthRejected:
			c.state = stateReady
			return errors.NewAuthFailed(resp.Message)
		case codes.AuthOutOfSequence:
			c.state = stateReady
			return errors.NewAuthOutOfSequence()
		default:
			c.state = stateReady
			return errors.NewProtocolError(resp.Code, resp.Message)
		}
	}
}

// SelectGroup selects newsgroup with the GROUP command.
func (c *Client) SelectGroup(newsgroup string) (commands.GroupInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.sendCommand(commands.Group(newsgroup))
	if err != nil {
		return commands.GroupInfo{}, err
	}
	if resp.Code == codes.NoSuchGroup {
		return commands.GroupInfo{}, errors.NewNoSuchGroup(newsgroup)
	}
	info, err := commands.ParseGroupResponse(resp)
	if err != nil {
		return commands.GroupInfo{}, err
	}
	c.currentGroup = newsgroup
	c.log.Debugf("group %s selected: %d articles (%d-%d)", newsgroup, info.Count, info.Low, info.High)
	return info, nil
}

// ListGroup lists article numbers in newsgroup via LISTGROUP, optionally
// restricted to rng.
func (c *Client) ListGroup(newsgroup string, rng *commands.Range) ([]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var line string
	if rng != nil {
		line = commands.ListGroupRange(newsgroup, rng.Low, rng.High)
	} else {
		line = commands.ListGroup(newsgroup)
	}

	resp, err := c.sendMultiline(line)
	if err != nil {
		return nil, err
	}
	if resp.Code == codes.NoSuchGroup {
		return nil, errors.NewNoSuchGroup(newsgroup)
	}
	if resp.Code != codes.GroupSelected {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}
	c.currentGroup = newsgroup

	nums := make([]int, 0, len(resp.Lines))
	for _, l := range resp.Lines {
		n := 0
		ok := true
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			continue
		}
		for _, r := range trimmed {
			if r < '0' || r > '9' {
				ok = false
				break
			}
			n = n*10 + int(r-'0')
		}
		if ok {
			nums = append(nums, n)
		}
	}
	return nums, nil
}

// FetchArticle retrieves the full article (headers + body) by message-id
// or article number.
func (c *Client) FetchArticle(id string) (article.Article, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, lines, err := c.readArticleMultiline(commands.Article(id))
	if err != nil {
		return article.Article{}, err
	}
	if resp.Code == codes.NoSuchArticleFound || resp.Code == codes.NoSuchArticleNumber {
		return article.Article{}, errors.NewNoSuchArticle(id, "no such article")
	}
	if !resp.IsSuccess() {
		return article.Article{}, errors.NewProtocolError(resp.Code, resp.Message)
	}
	return article.Parse(lines)
}

// FetchHead retrieves only the headers of an article.
func (c *Client) FetchHead(id string) (article.Headers, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, lines, err := c.readArticleMultiline(commands.Head(id))
	if err != nil {
		return article.Headers{}, err
	}
	if resp.Code == codes.NoSuchArticleFound || resp.Code == codes.NoSuchArticleNumber {
		return article.Headers{}, errors.NewNoSuchArticle(id, "no such article")
	}
	if !resp.IsSuccess() {
		return article.Headers{}, errors.NewProtocolError(resp.Code, resp.Message)
	}
	a, err := article.Parse(append(lines, ""))
	if err != nil {
		return article.Headers{}, err
	}
	return a.Headers, nil
}

// FetchBody retrieves only the body text of an article.
func (c *Client) FetchBody(id string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.sendMultiline(commands.Body(id))
	if err != nil {
		return "", err
	}
	if resp.Code == codes.NoSuchArticleFound || resp.Code == codes.NoSuchArticleNumber {
		return "", errors.NewNoSuchArticle(id, "no such article")
	}
	if !resp.IsSuccess() {
		return "", errors.NewProtocolError(resp.Code, resp.Message)
	}
	return strings.Join(resp.Lines, "\n"), nil
}

// FetchBinaryBody retrieves an article body as raw bytes, for yEnc-encoded
// binary posts where the text-oriented FetchBody would corrupt the payload.
func (c *Client) FetchBinaryBody(id string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireOpen("body"); err != nil {
		return nil, err
	}
	if err := c.framer.WriteLine(commands.Body(id)); err != nil {
		c.markClosed()
		return nil, err
	}
	resp, data, err := c.framer.ReadBinaryMultiline()
	if err != nil {
		c.markClosed()
		return nil, err
	}
	if resp.Code == codes.NoSuchArticleFound || resp.Code == codes.NoSuchArticleNumber {
		return nil, errors.NewNoSuchArticle(id, "no such article")
	}
	if !resp.IsSuccess() {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}
	return data, nil
}

// readArticleMultiline issues a multi-line ARTICLE/HEAD command and returns
// the body lines as read by the framer (dot-unstuffing already applied).
func (c *Client) readArticleMultiline(line string) (response.Response, []string, error) {
	if err := c.requireOpen("article"); err != nil {
		return response.Response{}, nil, err
	}
	if err := c.framer.WriteLine(line); err != nil {
		c.markClosed()
		return response.Response{}, nil, err
	}
	var resp response.Response
	var err error
	if c.compression == compressionHeadersOnly {
		resp, err = c.framer.ReadMultilineGzip()
	} else {
		resp, err = c.framer.ReadMultiline()
	}
	if err != nil {
		c.markClosed()
		return response.Response{}, nil, err
	}
	return resp, resp.Lines, nil
}

// Stat checks whether an article exists without retrieving its content.
func (c *Client) Stat(id string) (commands.ArticleID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.navigate(commands.Stat(id), id)
}

// Next moves the server's current-article pointer forward.
func (c *Client) Next() (commands.ArticleID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.navigate(commands.Next(), "")
}

// Last moves the server's current-article pointer backward.
func (c *Client) Last() (commands.ArticleID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.navigate(commands.Last(), "")
}

func (c *Client) navigate(line, id string) (commands.ArticleID, error) {
	resp, err := c.sendCommand(line)
	if err != nil {
		return commands.ArticleID{}, err
	}
	switch resp.Code {
	case codes.NoGroupSelected:
		return commands.ArticleID{}, errors.NewNoGroupSelected()
	case codes.NoCurrentArticle:
		return commands.ArticleID{}, errors.NewInvalidArticleNumber()
	case codes.NoNextArticle:
		return commands.ArticleID{}, errors.NewNoSuchArticle(id, "no next article")
	case codes.NoPreviousArticle:
		return commands.ArticleID{}, errors.NewNoSuchArticle(id, "no previous article")
	case codes.NoSuchArticleFound, codes.NoSuchArticleNumber:
		return commands.ArticleID{}, errors.NewNoSuchArticle(id, "no such article")
	}
	return commands.ParseArticleSelection(resp)
}

// Overview fetches OVER/XOVER lines for rng (or the current article if rng
// is nil), preferring OVER and falling back to XOVER for older servers.
func (c *Client) Overview(rng *commands.Range) ([]commands.OverviewEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rangeArg := ""
	if rng != nil {
		rangeArg = commands.FormatRange(rng.Low, rng.High)
	}

	resp, err := c.sendMultiline(commands.Over(rangeArg))
	if err != nil {
		return nil, err
	}
	if resp.Code == codes.CommandNotRecognized {
		resp, err = c.sendMultiline(commands.XOver(rangeArg))
		if err != nil {
			return nil, err
		}
	}
	if !resp.IsSuccess() {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}

	entries := make([]commands.OverviewEntry, 0, len(resp.Lines))
	for _, l := range resp.Lines {
		if e, ok := commands.ParseOverviewLine(l); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// ListActive lists newsgroups matching wildmat (empty for all groups).
func (c *Client) ListActive(wildmat string) ([]commands.ActiveGroup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.sendMultiline(commands.ListActive(wildmat))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}
	return commands.ParseListActive(resp.Lines), nil
}

// ListActiveTimes lists newsgroup creation times matching wildmat (empty
// for all groups) via LIST ACTIVE.TIMES.
func (c *Client) ListActiveTimes(wildmat string) ([]commands.ActiveTime, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.sendMultiline(commands.ListActiveTimes(wildmat))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}
	return commands.ParseListActiveTimes(resp.Lines), nil
}

// ListNewsgroups lists newsgroup descriptions matching wildmat (empty for
// all groups) via LIST NEWSGROUPS.
func (c *Client) ListNewsgroups(wildmat string) ([]commands.NewsgroupDescription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.sendMultiline(commands.ListNewsgroups(wildmat))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}
	return commands.ParseListNewsgroups(resp.Lines), nil
}

// ListCounts lists per-group article counts matching wildmat (empty for
// all groups) via LIST COUNTS.
func (c *Client) ListCounts(wildmat string) ([]commands.GroupCount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.sendMultiline(commands.ListCounts(wildmat))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}
	return commands.ParseListCounts(resp.Lines), nil
}

// ListDistributions lists the server's known distribution patterns via
// LIST DISTRIBUTIONS.
func (c *Client) ListDistributions() ([]commands.DistributionEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.sendMultiline(commands.ListDistributions())
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}
	return commands.ParseListDistributions(resp.Lines), nil
}

// ListModerators lists the mailbox templates used to moderate matching
// newsgroups via LIST MODERATORS.
func (c *Client) ListModerators() ([]commands.ModeratorEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.sendMultiline(commands.ListModerators())
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}
	return commands.ParseListModerators(resp.Lines), nil
}

// ListMotd returns the server's message of the day via LIST MOTD, as
// free-text lines with no further structure to parse.
func (c *Client) ListMotd() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.sendMultiline(commands.ListMotd())
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}
	return resp.Lines, nil
}

// ListSubscriptions returns the server's suggested default newsgroups for
// new users via LIST SUBSCRIPTIONS, one group name per line.
func (c *Client) ListSubscriptions() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.sendMultiline(commands.ListSubscriptions())
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}
	return resp.Lines, nil
}

// ListOverviewFmt returns the field names the server's OVER/XOVER output
// uses, via LIST OVERVIEW.FMT.
func (c *Client) ListOverviewFmt() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.sendMultiline(commands.ListOverviewFmt())
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}
	return resp.Lines, nil
}

// ListHeaders returns the header fields the server will answer HDR/XHDR
// queries for, via LIST HEADERS [MSGID|RANGE].
func (c *Client) ListHeaders(variant string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.sendMultiline(commands.ListHeaders(variant))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}
	return resp.Lines, nil
}

// Hdr fetches one header field's value across rng (or the current article
// if rng is nil) via HDR.
func (c *Client) Hdr(field string, rng *commands.Range) ([]commands.HeaderEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchHeaderEntries(commands.Hdr, field, rng)
}

// XHdr is the legacy-extension form of Hdr, used when a server advertises
// XHDR but not the standardized HDR command.
func (c *Client) XHdr(field string, rng *commands.Range) ([]commands.HeaderEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchHeaderEntries(commands.XHdr, field, rng)
}

func (c *Client) fetchHeaderEntries(build func(field, rangeOrID string) string, field string, rng *commands.Range) ([]commands.HeaderEntry, error) {
	rangeArg := ""
	if rng != nil {
		rangeArg = commands.FormatRange(rng.Low, rng.High)
	}
	resp, err := c.sendMultiline(build(field, rangeArg))
	if err != nil {
		return nil, err
	}
	if resp.Code == codes.NoSuchArticleFound || resp.Code == codes.NoSuchArticleNumber {
		return nil, errors.NewNoSuchArticle(rangeArg, "no such article")
	}
	if !resp.IsSuccess() {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}
	return commands.ParseHeaderEntries(resp.Lines), nil
}

// NewGroups lists newsgroups created since the given date/time (yyyymmdd
// hhmmss, optionally "GMT") via NEWGROUPS.
func (c *Client) NewGroups(date, timeArg, gmt string) ([]commands.ActiveGroup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.sendMultiline(commands.NewGroups(date, timeArg, gmt))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}
	return commands.ParseListActive(resp.Lines), nil
}

// NewNews lists message-ids posted to groups matching wildmat since the
// given date/time (yyyymmdd hhmmss, optionally "GMT") via NEWNEWS.
func (c *Client) NewNews(wildmat, date, timeArg, gmt string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.sendMultiline(commands.NewNews(wildmat, date, timeArg, gmt))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.NewProtocolError(resp.Code, resp.Message)
	}
	return resp.Lines, nil
}

// Post submits a composed article for distribution via POST.
func (c *Client) Post(a article.Article) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.sendCommand(commands.Post())
	if err != nil {
		return err
	}
	if resp.Code == codes.PostingNotPermitted {
		return errors.NewProtocolError(resp.Code, "posting not permitted")
	}
	if resp.Code != codes.SendArticle {
		return errors.NewProtocolError(resp.Code, resp.Message)
	}

	if err := c.framer.WriteRaw([]byte(a.SerializeForPosting())); err != nil {
		c.markClosed()
		return err
	}
	resp, err = c.framer.ReadStatus()
	if err != nil {
		c.markClosed()
		return err
	}
	if !resp.IsSuccess() {
		return errors.NewProtocolError(resp.Code, resp.Message)
	}
	return nil
}

// IHave offers an article for transfer by message-id, sending the article
// if the server accepts. Returns nil (not an error) if the server already
// has the article.
func (c *Client) IHave(messageID string, a article.Article) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.sendCommand(commands.IHave(messageID))
	if err != nil {
		return err
	}
	if resp.Code == codes.ArticleNotWanted {
		return nil
	}
	if resp.Code != codes.AuthContinue && resp.Code != codes.SendArticle {
		return errors.NewProtocolError(resp.Code, resp.Message)
	}

	if err := c.framer.WriteRaw([]byte(a.SerializeForPosting())); err != nil {
		c.markClosed()
		return err
	}
	resp, err = c.framer.ReadStatus()
	if err != nil {
		c.markClosed()
		return err
	}
	if resp.Code == codes.AuthAccepted {
		return nil
	}
	return errors.NewProtocolError(resp.Code, resp.Message)
}

// StreamCheck issues CHECK for messageID (RFC 4644 streaming mode),
// reporting whether the server wants the article sent via StreamTakeThis.
func (c *Client) StreamCheck(messageID string) (wanted bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.sendCommand(commands.Check(messageID))
	if err != nil {
		return false, err
	}
	switch resp.Code {
	case codes.ArticleQueued:
		return true, nil
	case codes.AlreadySeenID, codes.ArticleNotWanted:
		return false, nil
	default:
		return false, errors.NewProtocolError(resp.Code, resp.Message)
	}
}

// StreamTakeThis sends a previously CHECK-accepted article via TAKETHIS.
func (c *Client) StreamTakeThis(messageID string, a article.Article) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.framer.WriteLine(commands.TakeThis(messageID)); err != nil {
		c.markClosed()
		return err
	}
	if err := c.framer.WriteRaw([]byte(a.SerializeForPosting())); err != nil {
		c.markClosed()
		return err
	}
	resp, err := c.framer.ReadStatus()
	if err != nil {
		c.markClosed()
		return err
	}
	if resp.Code != codes.ArticleTransferred {
		return errors.NewProtocolError(resp.Code, resp.Message)
	}
	return nil
}

// CurrentGroup returns the name of the currently selected newsgroup, or
// "" if none is selected.
func (c *Client) CurrentGroup() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentGroup
}

// BytesRead returns the cumulative bytes read from the connection.
func (c *Client) BytesRead() int64 { return c.framer.BytesRead() }

// BytesWritten returns the cumulative bytes written to the connection.
func (c *Client) BytesWritten() int64 { return c.framer.BytesWritten() }
