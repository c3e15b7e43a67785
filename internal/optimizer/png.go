package optimizer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image/png"
	"io"

	"github.com/klauspost/compress/zlib"

	"optipix/internal/config"
)

// pngOptimizer is always lossless. The primary pass decodes and
// re-encodes at the stdlib's best compression level; with effort "max" a
// second pass strips ancillary metadata chunks and re-deflates the image
// data stream, which often beats the primary on already well-encoded
// files. The smallest candidate wins; the orchestrator's size guard
// still compares against the original.
type pngOptimizer struct{}

func (pngOptimizer) Optimize(data []byte, cfg config.Run) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	orig := img.Bounds()
	img = maybeResize(img, cfg)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	candidates := [][]byte{buf.Bytes()}

	if cfg.PNGEffort == config.PNGEffortMax {
		if rc, rcErr := recompressPNG(buf.Bytes()); rcErr == nil {
			candidates = append(candidates, rc)
		}
		// Only when the source dimensions already satisfy the constraint is
		// the original byte stream fair game for the chunk pass; otherwise
		// it would reintroduce the unresized pixels.
		if !needsResize(orig.Dx(), orig.Dy(), cfg) {
			if rc, rcErr := recompressPNG(data); rcErr == nil {
				candidates = append(candidates, rc)
			}
		}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if len(c) < len(best) {
			best = c
		}
	}
	return best, nil
}

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

type pngChunk struct {
	typ  string
	data []byte
}

// droppablePNGChunk lists ancillary metadata chunks that never affect
// rendering. Anything not on the list is kept.
func droppablePNGChunk(typ string) bool {
	switch typ {
	case "tEXt", "zTXt", "iTXt", "tIME", "eXIf":
		return true
	}
	return false
}

// recompressPNG drops metadata chunks and re-deflates the concatenated
// IDAT stream at maximum compression, keeping whichever stream is
// smaller. Pixel data is untouched.
func recompressPNG(data []byte) ([]byte, error) {
	chunks, err := parsePNGChunks(data)
	if err != nil {
		return nil, err
	}

	var kept []pngChunk
	var idat bytes.Buffer
	idatIndex := -1
	for _, c := range chunks {
		switch {
		case c.typ == "IDAT":
			if idatIndex < 0 {
				idatIndex = len(kept)
			}
			idat.Write(c.data)
		case droppablePNGChunk(c.typ):
		default:
			kept = append(kept, c)
		}
	}
	if idatIndex < 0 {
		return nil, errors.New("png has no IDAT chunk")
	}

	idatData := idat.Bytes()
	if recompressed, rcErr := redeflate(idatData); rcErr == nil && len(recompressed) < len(idatData) {
		idatData = recompressed
	}

	var out bytes.Buffer
	out.Write(pngSignature)
	for i, c := range kept {
		if i == idatIndex {
			writePNGChunk(&out, "IDAT", idatData)
		}
		writePNGChunk(&out, c.typ, c.data)
	}
	if idatIndex == len(kept) {
		writePNGChunk(&out, "IDAT", idatData)
	}
	return out.Bytes(), nil
}

func parsePNGChunks(data []byte) ([]pngChunk, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, errors.New("invalid PNG signature")
	}

	var chunks []pngChunk
	r := bytes.NewReader(data[len(pngSignature):])
	for {
		header := make([]byte, 8)
		if _, err := io.ReadFull(r, header); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		length := binary.BigEndian.Uint32(header[:4])
		typ := string(header[4:8])

		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
		crc := make([]byte, 4)
		if _, err := io.ReadFull(r, crc); err != nil {
			return nil, err
		}

		chunks = append(chunks, pngChunk{typ: typ, data: payload})
		if typ == "IEND" {
			break
		}
	}
	return chunks, nil
}

func writePNGChunk(out *bytes.Buffer, typ string, data []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	out.Write(lenBuf[:])
	out.WriteString(typ)
	out.Write(data)

	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], crc.Sum32())
	out.Write(crcBuf[:])
}

// redeflate round-trips a zlib stream through the best available deflate
// level.
func redeflate(stream []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(stream))
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(zr)
	if cerr := zr.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw); err != nil {
		_ = zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
