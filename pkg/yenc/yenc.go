// Package yenc implements the yEnc binary encoding used to carry binary
// article bodies over the 7-bit-clean NNTP transport: encode, decode, CRC32
// verification, and multi-part assembly. The byte arithmetic here is
// grounded directly on original_source's yenc/decode.rs and yenc/params.rs
// (the Rust implementation this module was ported from), since the
// spec text alone doesn't pin the exact wrapping-subtraction order.
package yenc

import (
	"bytes"
	"hash/crc32"
	"strconv"
	"strings"

	"github.com/jvz-devx/nntp-rs-sub002/pkg/errors"
)

const (
	encodeOffset = 42
	escapeChar   = '='
	escapeOffset = 64
)

// isCritical reports whether an encoded output byte must be escaped because
// it would otherwise collide with NNTP/yEnc framing: NUL, TAB, LF, CR, space,
// and '=' itself.
func isCritical(b byte) bool {
	switch b {
	case 0x00, '\t', '\n', '\r', ' ', '=':
		return true
	default:
		return false
	}
}

// encodeRaw yEnc-escapes data with no line wrapping and no envelope: byte =
// (input + 42) mod 256, escaping any resulting critical byte as '=' followed
// by (byte + 64) mod 256. This is the arithmetic core Encode wraps with
// lines and the =ybegin/=yend framing Decode expects.
func encodeRaw(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/32)
	for _, b := range data {
		enc := byte(b + encodeOffset)
		if isCritical(enc) {
			out = append(out, escapeChar, byte(enc+escapeOffset))
		} else {
			out = append(out, enc)
		}
	}
	return out
}

// defaultLineLength is the commonly used yEnc line length (section 4.7),
// used whenever EncodeOptions.LineLength is left at zero.
const defaultLineLength = 128

// EncodeOptions controls the envelope Encode emits around the escaped
// bytes.
type EncodeOptions struct {
	// Name is the posted filename, required for a well-formed =ybegin line.
	Name string
	// LineLength is the encoded-line wrap width declared in line= and
	// enforced while writing data lines. Zero uses defaultLineLength.
	LineLength int
	// Part and Total describe this chunk's place in a multi-part post.
	// Total <= 1 means a single-part post: no =ypart line, and the trailer
	// carries crc32= (whole-file) instead of pcrc32= (this part only).
	Part, Total int
	// PartBegin and PartEnd are the 1-based inclusive byte offsets of this
	// part within the whole file, required when Total > 1.
	PartBegin, PartEnd int64
}

// Encode yEnc-encodes data into a complete postable unit: an "=ybegin" line
// (plus "=ypart" for a multi-part post), the escaped data wrapped at
// opts.LineLength, and a "=yend" trailer carrying the CRC32 of the
// unescaped input — the exact framing Decode parses back out, so
// Decode(Encode(data, opts)).Data round-trips to data.
func Encode(data []byte, opts EncodeOptions) []byte {
	lineLength := opts.LineLength
	if lineLength <= 0 {
		lineLength = defaultLineLength
	}

	var out bytes.Buffer
	out.WriteString("=ybegin line=")
	out.WriteString(strconv.Itoa(lineLength))
	out.WriteString(" size=")
	out.WriteString(strconv.Itoa(len(data)))
	if opts.Total > 1 {
		out.WriteString(" part=")
		out.WriteString(strconv.Itoa(opts.Part))
		out.WriteString(" total=")
		out.WriteString(strconv.Itoa(opts.Total))
	}
	out.WriteString(" name=")
	out.WriteString(opts.Name)
	out.WriteString("\r\n")

	if opts.Total > 1 {
		out.WriteString("=ypart begin=")
		out.WriteString(strconv.FormatInt(opts.PartBegin, 10))
		out.WriteString(" end=")
		out.WriteString(strconv.FormatInt(opts.PartEnd, 10))
		out.WriteString("\r\n")
	}

	col := 0
	for _, b := range data {
		enc := byte(b + encodeOffset)
		if isCritical(enc) {
			out.WriteByte(escapeChar)
			out.WriteByte(byte(enc + escapeOffset))
			col += 2
		} else {
			out.WriteByte(enc)
			col++
		}
		if col >= lineLength {
			out.WriteString("\r\n")
			col = 0
		}
	}
	if col > 0 {
		out.WriteString("\r\n")
	}

	crc := crc32.ChecksumIEEE(data)
	out.WriteString("=yend size=")
	out.WriteString(strconv.Itoa(len(data)))
	if opts.Total > 1 {
		out.WriteString(" part=")
		out.WriteString(strconv.Itoa(opts.Part))
		out.WriteString(" pcrc32=")
		out.WriteString(strconv.FormatUint(uint64(crc), 16))
	} else {
		out.WriteString(" crc32=")
		out.WriteString(strconv.FormatUint(uint64(crc), 16))
	}
	out.WriteString("\r\n")
	return out.Bytes()
}

// Header describes a parsed "=ybegin" line.
type Header struct {
	Line  int
	Size  int64
	Name  string
	Part  int // 0 if not a multi-part begin line
	Total int // 0 if not present
}

// PartHeader describes a parsed "=ypart" line.
type PartHeader struct {
	Begin int64
	End   int64
}

// Trailer describes a parsed "=yend" line.
type Trailer struct {
	Size   int64
	CRC32  uint32
	HasCRC bool
	PCRC32 uint32
	HasPCRC bool
}

// Decoded is one decoded yEnc unit: a single part (or the whole file, for
// non-multipart posts) plus its framing metadata and computed CRC32.
type Decoded struct {
	Header     Header
	Part       *PartHeader
	Trailer    Trailer
	Data       []byte
	ComputedCRC uint32
}

// IsMultipart reports whether this decoded unit is one part of a
// multi-part post, per original_source's is_multipart() helper.
func (d Decoded) IsMultipart() bool {
	return d.Header.Total > 1 || d.Part != nil
}

// Decode parses and decodes a single yEnc-encoded unit: the "=ybegin" line,
// optional "=ypart" line, the encoded data lines, and the "=yend" trailer.
func Decode(input []byte) (Decoded, error) {
	text := string(input)
	rawLines := strings.Split(text, "\n")
	if len(rawLines) == 0 {
		return Decoded{}, errors.NewInvalidResponse("yenc_decode", "empty yEnc input")
	}

	header, err := parseYBegin(strings.TrimRight(rawLines[0], "\r"))
	if err != nil {
		return Decoded{}, err
	}

	var part *PartHeader
	dataStart := 1
	if len(rawLines) > 1 && strings.HasPrefix(strings.TrimRight(rawLines[1], "\r"), "=ypart ") {
		p, err := parseYPart(strings.TrimRight(rawLines[1], "\r"))
		if err != nil {
			return Decoded{}, err
		}
		part = &p
		dataStart = 2
	}

	trailerIdx := -1
	for i := len(rawLines) - 1; i >= 0; i-- {
		if strings.HasPrefix(strings.TrimRight(rawLines[i], "\r"), "=yend ") {
			trailerIdx = i
			break
		}
	}
	if trailerIdx == -1 {
		return Decoded{}, errors.NewInvalidResponse("yenc_decode", "missing =yend trailer")
	}

	trailer, err := parseYEnd(strings.TrimRight(rawLines[trailerIdx], "\r"))
	if err != nil {
		return Decoded{}, err
	}

	data, err := decodeLines(rawLines[dataStart:trailerIdx])
	if err != nil {
		return Decoded{}, err
	}

	return Decoded{
		Header:      header,
		Part:        part,
		Trailer:     trailer,
		Data:        data,
		ComputedCRC: crc32.ChecksumIEEE(data),
	}, nil
}

// decodeLines decodes the raw (still yEnc-escaped) data lines into bytes,
// applying the wrapping-subtraction inverse of Encode: CR is always
// stripped (line framing only), an '=' marks the next byte as escaped
// (subtract 64 then 42), otherwise subtract 42 — both with byte wraparound.
func decodeLines(lines []string) ([]byte, error) {
	var out bytes.Buffer
	for _, line := range lines {
		b := []byte(strings.TrimSuffix(line, "\r"))
		escaped := false
		for _, c := range b {
			if c == '\r' {
				continue
			}
			if escaped {
				out.WriteByte(c - escapeOffset - encodeOffset)
				escaped = false
				continue
			}
			if c == escapeChar {
				escaped = true
				continue
			}
			out.WriteByte(c - encodeOffset)
		}
	}
	return out.Bytes(), nil
}

func parseYBegin(line string) (Header, error) {
	if !strings.HasPrefix(line, "=ybegin ") {
		return Header{}, errors.NewInvalidResponse("yenc_decode", "invalid yEnc header: "+line)
	}
	params, err := parseParams(line)
	if err != nil {
		return Header{}, err
	}
	h := Header{}
	var ok bool
	if h.Line, ok = params.int("line"); !ok {
		return Header{}, errors.NewInvalidResponse("yenc_decode", "=ybegin missing line=")
	}
	var sizeOK bool
	var size int
	if size, sizeOK = params.int("size"); !sizeOK {
		return Header{}, errors.NewInvalidResponse("yenc_decode", "=ybegin missing size=")
	}
	h.Size = int64(size)
	if h.Name, ok = params.str("name"); !ok {
		return Header{}, errors.NewInvalidResponse("yenc_decode", "=ybegin missing name=")
	}
	h.Part, _ = params.int("part")
	h.Total, _ = params.int("total")
	return h, nil
}

func parseYPart(line string) (PartHeader, error) {
	if !strings.HasPrefix(line, "=ypart ") {
		return PartHeader{}, errors.NewInvalidResponse("yenc_decode", "invalid yEnc part header: "+line)
	}
	params, err := parseParams(line)
	if err != nil {
		return PartHeader{}, err
	}
	begin, ok1 := params.int("begin")
	end, ok2 := params.int("end")
	if !ok1 || !ok2 {
		return PartHeader{}, errors.NewInvalidResponse("yenc_decode", "=ypart requires begin= and end=")
	}
	return PartHeader{Begin: int64(begin), End: int64(end)}, nil
}

func parseYEnd(line string) (Trailer, error) {
	if !strings.HasPrefix(line, "=yend ") {
		return Trailer{}, errors.NewInvalidResponse("yenc_decode", "invalid yEnc trailer: "+line)
	}
	params, err := parseParams(line)
	if err != nil {
		return Trailer{}, err
	}
	size, ok := params.int("size")
	if !ok {
		return Trailer{}, errors.NewInvalidResponse("yenc_decode", "=yend missing size=")
	}
	t := Trailer{Size: int64(size)}
	if hex, ok := params.str("crc32"); ok {
		v, err := strconv.ParseUint(hex, 16, 32)
		if err == nil {
			t.CRC32 = uint32(v)
			t.HasCRC = true
		}
	}
	if hex, ok := params.str("pcrc32"); ok {
		v, err := strconv.ParseUint(hex, 16, 32)
		if err == nil {
			t.PCRC32 = uint32(v)
			t.HasPCRC = true
		}
	}
	return t, nil
}

type paramSet map[string]string

func (p paramSet) str(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

func (p paramSet) int(key string) (int, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseParams scans whitespace-separated key=value pairs off a yEnc
// keyword line, matching original_source's parse_yenc_params token scanner:
// each value runs to the next space, so a name= value cannot itself
// contain spaces.
func parseParams(line string) (paramSet, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.NewInvalidResponse("yenc_decode", "empty yenc keyword line")
	}
	out := paramSet{}
	for _, kv := range fields[1:] {
		eq := strings.IndexByte(kv, '=')
		if eq == -1 {
			continue
		}
		out[kv[:eq]] = kv[eq+1:]
	}
	return out, nil
}

// Assembler reassembles a multi-part yEnc post into a single buffer sized
// from the =ybegin size= field, placing each part's bytes at its declared
// begin/end offsets (1-based, inclusive, per the =ypart line).
type Assembler struct {
	size     int64
	buf      []byte
	received []bool
	total    int
	seen     int
}

// NewAssembler starts an assembler for a post whose full size and part
// count are known from the first part's =ybegin header.
func NewAssembler(size int64, totalParts int) *Assembler {
	return &Assembler{
		size:     size,
		buf:      make([]byte, size),
		received: make([]bool, totalParts+1),
		total:    totalParts,
	}
}

// AddPart places a decoded part's bytes into the assembly buffer at its
// declared offsets.
func (a *Assembler) AddPart(d Decoded) error {
	if d.Part == nil {
		return errors.NewClientError("yenc part missing =ypart begin/end offsets")
	}
	begin, end := d.Part.Begin, d.Part.End
	if begin < 1 || end > a.size || begin > end {
		return errors.NewInvalidResponse("yenc_assemble", "part offsets out of bounds")
	}
	copy(a.buf[begin-1:end], d.Data)
	if d.Header.Part > 0 && d.Header.Part <= a.total && !a.received[d.Header.Part] {
		a.received[d.Header.Part] = true
		a.seen++
	}
	return nil
}

// Complete reports whether every declared part has been received.
func (a *Assembler) Complete() bool {
	return a.seen == a.total
}

// Bytes returns the assembled buffer so far. Call Complete first to check
// every part has arrived.
func (a *Assembler) Bytes() []byte {
	return a.buf
}

// VerifyCRC32 reports whether want matches the CRC32 of data.
func VerifyCRC32(data []byte, want uint32) bool {
	return crc32.ChecksumIEEE(data) == want
}
