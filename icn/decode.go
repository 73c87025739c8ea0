package icn

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
)

const DefaultChunkSize = 500

// ErrNotArray is returned when the export root is not a JSON array. It is
// fatal for a load.
var ErrNotArray = eris.New("icn: export root is not a JSON array")

// ErrStop may be returned by a ChunkHandler to end decoding early without
// an error.
var ErrStop = eris.New("icn: stop decoding")

type ChunkHandler func([]model.RawItem) error

// Decode streams the export array to handler in chunks of DefaultChunkSize.
// A UTF-8 or UTF-16 byte order mark is accepted. It returns the number of
// items decoded.
func Decode(r io.Reader, handler ChunkHandler) (int, error) {
	return DecodeChunks(r, DefaultChunkSize, handler)
}

func DecodeChunks(r io.Reader, chunkSize int, handler ChunkHandler) (int, error) {
	if handler == nil {
		return 0, eris.New("icn: handler is nil")
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	dec := json.NewDecoder(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, ErrNotArray
		}
		return 0, eris.Wrap(ErrNotArray, err.Error())
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return 0, ErrNotArray
	}

	total := 0
	chunk := make([]model.RawItem, 0, chunkSize)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		err := handler(chunk)
		chunk = make([]model.RawItem, 0, chunkSize)
		return err
	}

	for dec.More() {
		// Syntax errors leave the stream unreadable and are fatal. A row with
		// mistyped fields is handed on as malformed.
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return total, eris.Wrapf(err, "icn: decode item %d", total)
		}
		var item model.RawItem
		if err := json.Unmarshal(raw, &item); err != nil {
			item = model.MalformedItem(raw, err)
		}
		total++
		chunk = append(chunk, item)
		if len(chunk) < chunkSize {
			continue
		}
		if err := flush(); err != nil {
			if eris.Is(err, ErrStop) {
				return total, nil
			}
			return total, err
		}
	}
	if _, err := dec.Token(); err != nil {
		return total, eris.Wrap(err, "icn: unterminated array")
	}
	if err := flush(); err != nil && !eris.Is(err, ErrStop) {
		return total, err
	}
	return total, nil
}

// ReadAll decodes every item from r and returns them with the SHA-256 hex
// digest of the bytes consumed.
func ReadAll(r io.Reader) ([]model.RawItem, string, error) {
	hasher := sha256.New()
	var items []model.RawItem
	_, err := Decode(io.TeeReader(r, hasher), func(chunk []model.RawItem) error {
		items = append(items, chunk...)
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	// Drain trailing bytes so the digest covers the whole input.
	if _, err := io.Copy(hasher, r); err != nil {
		return nil, "", eris.Wrap(err, "icn: read trailer")
	}
	return items, hex.EncodeToString(hasher.Sum(nil)), nil
}

func ReadFile(path string) ([]model.RawItem, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", eris.Wrapf(err, "icn: open %s", path)
	}
	defer f.Close()
	return ReadAll(f)
}
