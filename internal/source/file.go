package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/packsight/packsight/internal/models"
)

const catalogFileName = "sizes.json"

var bom = []byte{0xEF, 0xBB, 0xBF}

// FileOrderSource reads one order payload per category from a data
// directory. For category "kc" it tries orders_kc.json, then
// orders_kc.json.enc, then enc/orders_kc.json.enc; .enc files are OpenSSL
// enc compatible and need the configured passphrase.
type FileOrderSource struct {
	dir string
	key string
}

func NewFileOrderSource(dir, encryptionKey string) *FileOrderSource {
	return &FileOrderSource{dir: dir, key: encryptionKey}
}

func (s *FileOrderSource) Orders(ctx context.Context, category string) ([]models.Order, error) {
	name := fmt.Sprintf("orders_%s.json", category)

	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err == nil {
		return parseOrders(raw)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	raw, err = s.readEncrypted(name + ".enc")
	if err != nil {
		return nil, err
	}
	return parseOrders(raw)
}

// readEncrypted locates and decrypts name under dir or dir/enc.
func (s *FileOrderSource) readEncrypted(name string) ([]byte, error) {
	for _, path := range []string{filepath.Join(s.dir, name), filepath.Join(s.dir, "enc", name)} {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if s.key == "" {
			return nil, fmt.Errorf("decrypt %s: no encryption key configured", path)
		}
		plain, err := DecryptOpenSSL(data, s.key)
		if err != nil {
			return nil, fmt.Errorf("decrypt %s: %w", path, err)
		}
		return plain, nil
	}
	return nil, fmt.Errorf("order file %s (or enc fallback): %w", name, ErrNotFound)
}

// FileCatalogSource reads the container catalog from sizes.json under a
// resource directory.
type FileCatalogSource struct {
	dir string
}

func NewFileCatalogSource(dir string) *FileCatalogSource {
	return &FileCatalogSource{dir: dir}
}

func (s *FileCatalogSource) Catalog(ctx context.Context) ([]models.CatalogRecord, error) {
	path := filepath.Join(s.dir, catalogFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("catalog file %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var records []models.CatalogRecord
	if err := json.Unmarshal(bytes.TrimPrefix(raw, bom), &records); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return records, nil
}

// parseOrders decodes an order payload. Sources deliver a JSON array, a
// single object, NDJSON, or (after interrupted appends) concatenated
// objects; all four shapes are recovered, in that order of preference.
func parseOrders(raw []byte) ([]models.Order, error) {
	raw = bytes.TrimPrefix(raw, bom)

	var orders []models.Order
	if err := json.Unmarshal(raw, &orders); err == nil {
		return orders, nil
	}
	var single models.Order
	if err := json.Unmarshal(raw, &single); err == nil {
		return []models.Order{single}, nil
	}

	if orders := parseOrderLines(strings.Split(string(raw), "\n")); len(orders) > 0 {
		return orders, nil
	}
	if orders := parseOrderLines(splitConcatenated(string(raw))); len(orders) > 0 {
		return orders, nil
	}
	return nil, fmt.Errorf("order payload is not JSON, NDJSON, or concatenated objects")
}

func parseOrderLines(chunks []string) []models.Order {
	var orders []models.Order
	for _, chunk := range chunks {
		s := strings.TrimSpace(chunk)
		if s == "" {
			continue
		}
		var order models.Order
		if err := json.Unmarshal([]byte(s), &order); err != nil {
			continue
		}
		orders = append(orders, order)
	}
	return orders
}

// splitConcatenated cuts a run of back-to-back JSON objects ("}{" with
// optional whitespace) into individual object strings. Nested objects keep
// their closing braces because splitting only happens at depth zero.
func splitConcatenated(raw string) []string {
	var parts []string
	depth := 0
	inString := false
	escaped := false
	start := -1
	for i, r := range raw {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start >= 0 {
				parts = append(parts, raw[start:i+1])
				start = -1
			}
		}
	}
	return parts
}
