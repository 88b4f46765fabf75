package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/erp/console/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultPrefix namespaces every key the console writes
const DefaultPrefix = "erp_config_"

// Store namespaces keys under a fixed prefix and serializes values.
//
// Strings are stored raw and everything else as JSON. Load decodes JSON
// and falls back to the raw text, so a string that happens to be valid
// JSON ("123", "true") comes back as the decoded value. Callers that know a
// key holds text read it with LoadRaw.
type Store struct {
	backend Backend
	prefix  string
	logger  *zap.Logger
}

// NewStore creates a store over backend. An empty prefix uses DefaultPrefix.
func NewStore(backend Backend, prefix string, logger *zap.Logger) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend: backend,
		prefix:  prefix,
		logger:  logger.Named("kvstore"),
	}
}

// Prefix returns the namespace prefix
func (s *Store) Prefix() string {
	return s.prefix
}

// Save writes value under key. Write failures wrap shared.ErrStorageWrite.
func (s *Store) Save(ctx context.Context, key string, value any) error {
	text, err := encode(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := s.backend.Set(ctx, s.prefix+key, text); err != nil {
		s.logger.Warn("storage write failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: %w", shared.ErrStorageWrite, err)
	}
	return nil
}

// Load returns the decoded value of key, or def when the key is absent
func (s *Store) Load(ctx context.Context, key string, def any) (any, error) {
	raw, ok, err := s.backend.Get(ctx, s.prefix+key)
	if err != nil {
		return def, fmt.Errorf("load %q: %w", key, err)
	}
	if !ok {
		return def, nil
	}
	return decode(raw), nil
}

// LoadRaw returns the stored text of key without decoding it. ok is false
// when the key is absent.
func (s *Store) LoadRaw(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := s.backend.Get(ctx, s.prefix+key)
	if err != nil {
		return "", false, fmt.Errorf("load %q: %w", key, err)
	}
	return raw, ok, nil
}

// Remove deletes key
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, s.prefix+key); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrStorageWrite, err)
	}
	return nil
}

// ClearAll deletes every key under the prefix. Keys outside the namespace
// are left alone.
func (s *Store) ClearAll(ctx context.Context) error {
	keys, err := s.backend.Keys(ctx, s.prefix)
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	for _, k := range keys {
		if err := s.backend.Delete(ctx, k); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrStorageWrite, err)
		}
	}
	s.logger.Debug("namespace cleared", zap.Int("keys", len(keys)))
	return nil
}

// Export returns every key under the prefix, prefix stripped, mapped to
// its decoded value
func (s *Store) Export(ctx context.Context) (map[string]any, error) {
	keys, err := s.backend.Keys(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		raw, ok, err := s.backend.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("export %q: %w", k, err)
		}
		if !ok {
			continue
		}
		out[strings.TrimPrefix(k, s.prefix)] = decode(raw)
	}
	return out, nil
}

// ExportJSON returns the namespace as a JSON object that Import turns back
// into the same stored text. Numerals keep their exact spelling.
func (s *Store) ExportJSON(ctx context.Context) ([]byte, error) {
	keys, err := s.backend.Keys(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		raw, ok, err := s.backend.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("export %q: %w", k, err)
		}
		if !ok {
			continue
		}
		out[strings.TrimPrefix(k, s.prefix)] = rawJSON(raw)
	}
	return json.Marshal(out)
}

// Import parses a JSON object and saves every entry in sorted key order.
// Text that is not a JSON object fails with shared.ErrInvalidFormat before
// anything is written. A write failure part-way through is not rolled back.
func (s *Store) Import(ctx context.Context, text []byte) error {
	var values map[string]any
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(&values); err != nil || values == nil || dec.More() {
		return shared.ErrInvalidFormat
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		if err := s.Save(ctx, k, values[k]); err != nil {
			s.logger.Warn("import stopped part-way",
				zap.Int("written", i),
				zap.Int("total", len(keys)),
				zap.Error(err))
			return err
		}
	}
	return nil
}

func encode(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.RawMessage:
		return string(v), nil
	case json.Number:
		return v.String(), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decode(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// rawJSON embeds raw as a JSON literal when decoding and re-encoding it
// gives back the same text; anything else is exported as a JSON string.
func rawJSON(raw string) json.RawMessage {
	if !strings.HasPrefix(raw, `"`) {
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		var v any
		if dec.Decode(&v) == nil && !dec.More() {
			if enc, err := json.Marshal(v); err == nil && string(enc) == raw {
				return enc
			}
		}
	}
	quoted, _ := json.Marshal(raw)
	return quoted
}
