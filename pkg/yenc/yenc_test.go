package yenc

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog 0123456789!")
	unit := Encode(data, EncodeOptions{Name: "test.bin"})

	decoded, err := Decode(unit)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !bytes.Equal(decoded.Data, data) {
		t.Errorf("round trip mismatch:\ngot  %q\nwant %q", decoded.Data, data)
	}
	if decoded.Header.Name != "test.bin" {
		t.Errorf("Name = %q, want test.bin", decoded.Header.Name)
	}
	if decoded.Header.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", decoded.Header.Size, len(data))
	}
	if !decoded.Trailer.HasCRC || decoded.Trailer.CRC32 != decoded.ComputedCRC {
		t.Errorf("CRC mismatch: trailer=%08x computed=%08x", decoded.Trailer.CRC32, decoded.ComputedCRC)
	}
	if decoded.ComputedCRC != crc32.ChecksumIEEE(data) {
		t.Errorf("ComputedCRC = %08x, want %08x", decoded.ComputedCRC, crc32.ChecksumIEEE(data))
	}
}

func TestEncodeWrapsLines(t *testing.T) {
	data := bytes.Repeat([]byte{'A'}, 300)
	unit := Encode(data, EncodeOptions{Name: "t", LineLength: 64})

	decoded, err := Decode(unit)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !bytes.Equal(decoded.Data, data) {
		t.Error("round trip mismatch for wrapped output")
	}

	for _, line := range bytes.Split(unit, []byte("\r\n")) {
		if bytes.HasPrefix(line, []byte("=y")) {
			continue
		}
		if len(line) > 64 {
			t.Errorf("data line exceeds declared line length: %d bytes", len(line))
		}
	}
}

func TestEncodeMultipartRoundTrip(t *testing.T) {
	full := []byte("0123456789ABCDEFGHIJ")
	part1, part2 := full[:10], full[10:]

	unit1 := Encode(part1, EncodeOptions{Name: "multi.bin", Part: 1, Total: 2, PartBegin: 1, PartEnd: 10})
	unit2 := Encode(part2, EncodeOptions{Name: "multi.bin", Part: 2, Total: 2, PartBegin: 11, PartEnd: int64(len(full))})

	d1, err := Decode(unit1)
	if err != nil {
		t.Fatalf("Decode(part 1) error = %v", err)
	}
	d2, err := Decode(unit2)
	if err != nil {
		t.Fatalf("Decode(part 2) error = %v", err)
	}
	if d1.Part == nil || d2.Part == nil {
		t.Fatal("expected =ypart headers on both parts")
	}
	if !d1.Trailer.HasPCRC || !d2.Trailer.HasPCRC {
		t.Error("multi-part trailers should carry pcrc32, not crc32")
	}

	asm := NewAssembler(int64(len(full)), 2)
	if err := asm.AddPart(d1); err != nil {
		t.Fatalf("AddPart(1) error = %v", err)
	}
	if err := asm.AddPart(d2); err != nil {
		t.Fatalf("AddPart(2) error = %v", err)
	}
	if !asm.Complete() {
		t.Error("Complete() should be true after both parts")
	}
	if !bytes.Equal(asm.Bytes(), full) {
		t.Errorf("assembled = %q, want %q", asm.Bytes(), full)
	}
}

func TestEncodeRawEscapesCriticalBytes(t *testing.T) {
	// A raw byte of 0xD6 encodes to (0xD6+42) mod 256 = 0x00 (NUL), which
	// is critical and must be escaped as '=' followed by (0x00+64) mod 256.
	got := encodeRaw([]byte{0xD6})
	want := []byte{'=', 0x40}
	if !bytes.Equal(got, want) {
		t.Errorf("encodeRaw(0xD6) = %v, want %v", got, want)
	}
}

func TestDecodeLinesUnescapes(t *testing.T) {
	// Round trip the escape case through decodeLines via a full Decode call.
	encoded := encodeRaw([]byte{0xD6, 'A'})
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "=ybegin line=128 size=2 name=t\r\n")
	buf.Write(encoded)
	buf.WriteString("\r\n=yend size=2\r\n")

	decoded, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := []byte{0xD6, 'A'}
	if !bytes.Equal(decoded.Data, want) {
		t.Errorf("got %v, want %v", decoded.Data, want)
	}
}

func TestDecodeMissingTrailer(t *testing.T) {
	_, err := Decode([]byte("=ybegin line=128 size=1 name=t\r\n" + string(encodeRaw([]byte("x")))))
	if err == nil {
		t.Error("expected error for missing =yend trailer")
	}
}

func TestDecodeMultipart(t *testing.T) {
	data := []byte("part-two-data")
	encoded := encodeRaw(data)
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "=ybegin part=2 total=2 line=128 size=30 name=multi.bin\r\n")
	fmt.Fprintf(&buf, "=ypart begin=14 end=%d\r\n", 13+len(data))
	buf.Write(encoded)
	buf.WriteString("\r\n")
	fmt.Fprintf(&buf, "=yend size=%d part=2 pcrc32=%08x\r\n", len(data), crc32.ChecksumIEEE(data))

	decoded, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if decoded.Part == nil {
		t.Fatal("expected a parsed =ypart header")
	}
	if decoded.Part.Begin != 14 || decoded.Part.End != int64(13+len(data)) {
		t.Errorf("Part = %+v", decoded.Part)
	}
	if !decoded.IsMultipart() {
		t.Error("IsMultipart() should be true when a =ypart header is present")
	}
	if !decoded.Trailer.HasPCRC {
		t.Error("expected pcrc32 to be parsed")
	}
}

func TestAssembler(t *testing.T) {
	full := []byte("0123456789ABCDEF")
	part1 := full[:8]
	part2 := full[8:]

	a := NewAssembler(int64(len(full)), 2)

	d1 := Decoded{Header: Header{Part: 1}, Part: &PartHeader{Begin: 1, End: 8}, Data: part1}
	if err := a.AddPart(d1); err != nil {
		t.Fatalf("AddPart(1) error = %v", err)
	}
	if a.Complete() {
		t.Error("Complete() should be false after only one part")
	}

	d2 := Decoded{Header: Header{Part: 2}, Part: &PartHeader{Begin: 9, End: int64(len(full))}, Data: part2}
	if err := a.AddPart(d2); err != nil {
		t.Fatalf("AddPart(2) error = %v", err)
	}
	if !a.Complete() {
		t.Error("Complete() should be true after both parts")
	}
	if !bytes.Equal(a.Bytes(), full) {
		t.Errorf("assembled = %q, want %q", a.Bytes(), full)
	}
}

func TestAssemblerOutOfBounds(t *testing.T) {
	a := NewAssembler(10, 1)
	d := Decoded{Header: Header{Part: 1}, Part: &PartHeader{Begin: 5, End: 20}, Data: []byte("too long part")}
	if err := a.AddPart(d); err == nil {
		t.Error("expected error for part offsets exceeding the declared size")
	}
}

func TestVerifyCRC32(t *testing.T) {
	data := []byte("hello")
	if !VerifyCRC32(data, crc32.ChecksumIEEE(data)) {
		t.Error("VerifyCRC32 should succeed for a matching checksum")
	}
	if VerifyCRC32(data, 0xdeadbeef) {
		t.Error("VerifyCRC32 should fail for a mismatched checksum")
	}
}
