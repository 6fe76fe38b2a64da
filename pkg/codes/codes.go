// Package codes enumerates the NNTP status codes this client recognizes,
// per RFC 3977, RFC 4643, and the COMPRESS/XFEATURE extensions.
package codes

const (
	HelpFollows        = 100
	CapabilitiesFollow = 101
	DateFollows        = 111

	ServerReadyPostingAllowed    = 200
	ServerReadyPostingProhibited = 201
	SlaveStatusNoted             = 202

	GroupSelected       = 211
	ExtendedListFollows = 215
	ArticleExists       = 220 // ARTICLE: head + body follow
	HeadFollows         = 221
	BodyFollows         = 222
	ArticleFollows      = 223 // STAT / NEXT / LAST selection, no body
	OverviewFollows     = 224
	HdrFollows          = 225
	NewNewsFollows      = 230
	NewGroupsFollows    = 231
	AuthAccepted        = 235 // also: article transferred OK (IHAVE)
	ArticleQueued       = 238 // CHECK: server wants it
	ArticleTransferred  = 239 // TAKETHIS accepted

	AuthInfoAccepted = 281

	AuthContinue     = 335 // IHAVE: send the article now (legacy alias of SendArticle)
	SendArticle      = 340 // POST/IHAVE: send the article now
	PasswordRequired = 381
	SASLContinue     = 383 // AUTHINFO SASL continuation challenge

	ServiceDiscontinued    = 400
	CompressionNotPossible = 403
	NoSuchGroup            = 411
	NoGroupSelected        = 412
	NoCurrentArticle       = 420
	NoNextArticle          = 421
	NoPreviousArticle      = 422
	NoSuchArticleNumber    = 423
	NoSuchArticleFound     = 430
	ArticleNotWanted       = 435
	TransferFailed         = 436
	ArticleRejected        = 437
	AlreadySeenID          = 438 // CHECK: not wanted, do not send
	ArticleNotSent         = 439
	PostingNotPermitted    = 440
	PostingFailed          = 441

	AuthRequired      = 480
	AuthRejected      = 481
	AuthOutOfSequence = 482
	EncryptionRequired = 483

	CommandNotRecognized = 500
	SyntaxError          = 501
	CommandUnavailable   = 502
	ProgramFault         = 503
)

// Class returns the first digit of code, the coarse response class per
// RFC 3977 section 3.2 (1xx informational, 2xx completion, 3xx continuation,
// 4xx transient failure, 5xx permanent failure).
func Class(code int) int {
	return code / 100
}

// IsInformational reports whether code is in the 1xx range.
func IsInformational(code int) bool { return Class(code) == 1 }

// IsSuccess reports whether code is in the 2xx range.
func IsSuccess(code int) bool { return Class(code) == 2 }

// IsContinuation reports whether code is in the 3xx range (more input
// expected from the client before the command completes).
func IsContinuation(code int) bool { return Class(code) == 3 }

// IsTransientFailure reports whether code is in the 4xx range.
func IsTransientFailure(code int) bool { return Class(code) == 4 }

// IsPermanentFailure reports whether code is in the 5xx range.
func IsPermanentFailure(code int) bool { return Class(code) == 5 }

// IsError reports whether code is a 4xx or 5xx failure.
func IsError(code int) bool { return IsTransientFailure(code) || IsPermanentFailure(code) }

// Valid reports whether code is a plausible three-digit NNTP status code.
func Valid(code int) bool { return code >= 100 && code < 600 }
