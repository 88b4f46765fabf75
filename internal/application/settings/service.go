// Package settings is the settings facade: it loads and persists the typed
// settings record through the key/value store.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/erp/console/internal/domain/integration"
	"github.com/erp/console/internal/domain/settings"
	"github.com/erp/console/internal/domain/shared"
	"github.com/erp/console/internal/infrastructure/logger"
	"github.com/erp/console/internal/infrastructure/storage"
	"github.com/erp/console/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store is the namespaced key/value store the settings live in
type Store interface {
	Save(ctx context.Context, key string, value any) error
	Load(ctx context.Context, key string, def any) (any, error)
	LoadRaw(ctx context.Context, key string) (string, bool, error)
	ClearAll(ctx context.Context) error
	ExportJSON(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, text []byte) error
}

// ProbeFactory builds connectivity probes from credentials
type ProbeFactory interface {
	Backend(url, publicKey string) integration.Probe
	AI(apiKey string) integration.Probe
}

// Service is the settings facade
type Service struct {
	store        Store
	probes       ProbeFactory
	backups      storage.ObjectStorage
	backupPrefix string
	audit        *logger.Audit
	metrics      *telemetry.ConsoleMetrics
	logger       *zap.Logger
	now          func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithBackups enables Backup and Restore against objects under prefix
func WithBackups(backups storage.ObjectStorage, prefix string) Option {
	return func(s *Service) {
		s.backups = backups
		s.backupPrefix = prefix
	}
}

// WithAudit sets the audit trail. Loading settings keeps its verbosity in
// sync with security.audit_logging.
func WithAudit(audit *logger.Audit) Option {
	return func(s *Service) {
		s.audit = audit
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(metrics *telemetry.ConsoleMetrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithClock replaces the clock used to name backups
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates the settings facade
func NewService(store Store, probes ProbeFactory, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:  store,
		probes: probes,
		logger: log.Named("settings"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.audit == nil {
		s.audit = logger.NewAudit(log)
	}
	return s
}

// Load reads every field from the store. Text fields are read back exactly
// as stored. Absent fields and stored values of the wrong type take the
// field default.
func (s *Service) Load(ctx context.Context) (settings.Settings, error) {
	values := make(map[string]any, len(settings.Fields))
	for _, f := range settings.Fields {
		v, err := s.loadField(ctx, f)
		if err != nil {
			return settings.Settings{}, err
		}
		values[f.Key] = v
	}
	loaded := settings.FromValues(values)
	s.audit.SetVerbose(loaded.Security.AuditLogging)
	return loaded, nil
}

func (s *Service) loadField(ctx context.Context, f settings.Field) (any, error) {
	if f.Kind != settings.KindString {
		return s.store.Load(ctx, f.Key, f.Default)
	}
	raw, ok, err := s.store.LoadRaw(ctx, f.Key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return f.Default, nil
	}
	return raw, nil
}

// Save validates and persists the given fields of one section, then returns
// the reloaded settings. Unknown sections or fields are rejected before
// anything is written.
func (s *Service) Save(ctx context.Context, section string, fields map[string]any) (settings.Settings, error) {
	sec, err := settings.ParseSection(section)
	if err != nil {
		return settings.Settings{}, err
	}

	current, err := s.Load(ctx)
	if err != nil {
		return settings.Settings{}, err
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	changed := make([]settings.Field, 0, len(names))
	written := make([]string, 0, len(names))
	for _, name := range names {
		f, err := settings.LookupField(sec, name)
		if err != nil {
			return settings.Settings{}, err
		}
		if text, ok := fields[name].(string); ok && f.Secret() && settings.IsMasked(text) {
			continue
		}
		if err := current.Set(f, fields[name]); err != nil {
			return settings.Settings{}, err
		}
		changed = append(changed, f)
		written = append(written, name)
	}

	if err := s.persist(ctx, current, changed); err != nil {
		return settings.Settings{}, err
	}
	s.metrics.RecordSettingsWrite(ctx, string(sec))

	saved, err := s.Load(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	s.audit.Record(ctx, "settings.save",
		zap.String("section", string(sec)),
		zap.Strings("fields", written))
	return saved, nil
}

// SaveAll validates and persists the whole settings record. Secrets sent
// back masked keep their stored value.
func (s *Service) SaveAll(ctx context.Context, next settings.Settings) (settings.Settings, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	next = settings.KeepMaskedSecrets(next, current)

	validated := settings.Defaults()
	for _, f := range settings.Fields {
		if err := validated.Set(f, next.Get(f)); err != nil {
			return settings.Settings{}, err
		}
	}

	if err := s.persist(ctx, validated, settings.Fields); err != nil {
		return settings.Settings{}, err
	}
	for _, sec := range settings.Sections {
		s.metrics.RecordSettingsWrite(ctx, string(sec))
	}

	saved, err := s.Load(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	s.audit.Record(ctx, "settings.save_all")
	return saved, nil
}

func (s *Service) persist(ctx context.Context, values settings.Settings, fields []settings.Field) error {
	for _, f := range fields {
		if err := s.store.Save(ctx, f.Key, values.Get(f)); err != nil {
			if errors.Is(err, shared.ErrStorageWrite) {
				s.metrics.RecordStorageFailure(ctx)
			}
			return err
		}
	}
	return nil
}

// ResetAll clears the whole namespace and returns the defaults
func (s *Service) ResetAll(ctx context.Context) (settings.Settings, error) {
	if err := s.store.ClearAll(ctx); err != nil {
		if errors.Is(err, shared.ErrStorageWrite) {
			s.metrics.RecordStorageFailure(ctx)
		}
		return settings.Settings{}, err
	}
	defaults, err := s.Load(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	s.audit.Record(ctx, "settings.reset")
	return defaults, nil
}

// ExportJSON returns the namespace as a JSON object Import accepts back.
// Secrets not selected by reveal are masked; Import skips masked secrets.
func (s *Service) ExportJSON(ctx context.Context, reveal settings.Reveal) ([]byte, error) {
	data, err := s.store.ExportJSON(ctx)
	if err != nil {
		return nil, err
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	for _, f := range settings.Fields {
		raw, ok := entries[f.Key]
		if !ok || reveal.Shows(f) {
			continue
		}
		var text string
		if json.Unmarshal(raw, &text) != nil {
			continue
		}
		masked, err := json.Marshal(settings.MaskSecret(text))
		if err != nil {
			return nil, err
		}
		entries[f.Key] = masked
	}
	return json.Marshal(entries)
}

// Import stores every entry of a JSON object and returns the reloaded
// settings. Masked secrets are skipped. A failure part-way through is not
// rolled back.
func (s *Service) Import(ctx context.Context, text []byte) (settings.Settings, error) {
	text = dropMaskedSecrets(text)
	if err := s.store.Import(ctx, text); err != nil {
		if errors.Is(err, shared.ErrStorageWrite) {
			s.metrics.RecordStorageFailure(ctx)
		}
		return settings.Settings{}, err
	}
	imported, err := s.Load(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	s.audit.Record(ctx, "settings.import", zap.Int("bytes", len(text)))
	return imported, nil
}

// dropMaskedSecrets removes secret entries holding a masked value. Text
// that is not a JSON object is returned unchanged for the store to reject.
func dropMaskedSecrets(text []byte) []byte {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(text, &entries); err != nil || entries == nil {
		return text
	}
	dropped := false
	for _, f := range settings.Fields {
		raw, ok := entries[f.Key]
		if !ok || !f.Secret() {
			continue
		}
		var v string
		if json.Unmarshal(raw, &v) == nil && settings.IsMasked(v) {
			delete(entries, f.Key)
			dropped = true
		}
	}
	if !dropped {
		return text
	}
	out, err := json.Marshal(entries)
	if err != nil {
		return text
	}
	return out
}

// Validate lists missing configuration
func (s *Service) Validate(ctx context.Context) (settings.ValidationResult, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return settings.ValidationResult{}, err
	}
	return settings.Validate(current), nil
}

// Status returns the configured badge of every section
func (s *Service) Status(ctx context.Context) ([]settings.SectionStatus, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return settings.Status(current), nil
}

// ProbeResult is the outcome of one connection test. Attempted is false
// when the credentials it needs are not filled in.
type ProbeResult struct {
	Attempted bool `json:"attempted"`
	Success   bool `json:"success"`
}

// ConnectionResults holds the backend and AI connection tests
type ConnectionResults struct {
	Backend ProbeResult `json:"backend"`
	AI      ProbeResult `json:"ai"`
}

// TestConnections probes the backend when its URL and public key are set and
// the AI provider when its key is set. Probe errors only turn the result false.
func (s *Service) TestConnections(ctx context.Context) (ConnectionResults, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return ConnectionResults{}, err
	}

	var res ConnectionResults
	var g errgroup.Group
	if current.Backend.URL != "" && current.Backend.PublicKey != "" {
		res.Backend.Attempted = true
		p := s.probes.Backend(current.Backend.URL, current.Backend.PublicKey)
		g.Go(func() error {
			res.Backend.Success = s.check(ctx, p)
			return nil
		})
	}
	if current.AI.APIKey != "" {
		res.AI.Attempted = true
		p := s.probes.AI(current.AI.APIKey)
		g.Go(func() error {
			res.AI.Success = s.check(ctx, p)
			return nil
		})
	}
	_ = g.Wait()
	return res, nil
}

func (s *Service) check(ctx context.Context, p integration.Probe) bool {
	start := time.Now()
	err := p.Check(ctx)
	s.metrics.RecordProbe(ctx, p.Name(), err == nil, time.Since(start))
	if err != nil {
		s.logger.Debug("connection test failed", zap.String("probe", p.Name()), zap.Error(err))
		return false
	}
	return true
}

// backupName returns the object key of a backup taken at t
func (s *Service) backupName(t time.Time) string {
	return fmt.Sprintf("%ssettings-%s.json", s.backupPrefix, t.UTC().Format("20060102T150405.000Z"))
}
