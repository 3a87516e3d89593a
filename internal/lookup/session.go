package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/vtlookup/internal/ioc"
	"github.com/nao1215/vtlookup/internal/model"
)

// singleSourceIndex is the source index of a LookupIOC row.
const singleSourceIndex = "0"

// kind is a registry entry with its extraction routine, resolved once per
// session.
type kind struct {
	entry   ioc.Entry
	extract extractFunc
}

// Session is one lookup session. It owns the result table that all of its
// lookups append to, so a value resolved by one call is a duplicate in the
// next.
type Session struct {
	// id identifies the session in logs and in the run archive.
	id string

	gateway   Gateway
	registry  *ioc.Registry
	sanitizer Sanitizer
	table     *model.ResultTable
	logger    *slog.Logger

	// concurrency is the number of canonical types processed at once.
	concurrency int

	// kinds holds the supported types.
	kinds map[ioc.Type]kind
}

// Option configures a Session.
type Option func(*Session)

// WithRegistry sets the type registry. Default is ioc.NewRegistry().
func WithRegistry(r *ioc.Registry) Option {
	return func(s *Session) {
		s.registry = r
	}
}

// WithSanitizer sets the observable sanitizer. Default is ioc.NewSanitizer().
func WithSanitizer(san Sanitizer) Option {
	return func(s *Session) {
		s.sanitizer = san
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithTable sets the result table the session appends to, so results from
// an earlier session count as duplicates. Default is a new empty table.
func WithTable(t *model.ResultTable) Option {
	return func(s *Session) {
		if t != nil {
			s.table = t
		}
	}
}

// WithConcurrency sets how many canonical types are processed in parallel.
// Default is 1: types are processed one after another.
func WithConcurrency(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewSession creates a session that submits through gw.
func NewSession(gw Gateway, opts ...Option) *Session {
	s := &Session{
		id:          uuid.New().String(),
		gateway:     gw,
		table:       model.NewResultTable(),
		concurrency: 1,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		s.registry = ioc.NewRegistry()
	}
	if s.sanitizer == nil {
		s.sanitizer = ioc.NewSanitizer()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.kinds = make(map[ioc.Type]kind)
	for _, t := range s.registry.Types() {
		entry, err := s.registry.Lookup(t)
		if err != nil {
			continue
		}
		extract, ok := extractors[entry.Family]
		if !ok {
			continue
		}
		s.kinds[t] = kind{entry: entry, extract: extract}
	}

	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Results returns the session's result table.
func (s *Session) Results() *model.ResultTable {
	return s.table
}

// SupportedTypes returns the canonical types this session can look up.
func (s *Session) SupportedTypes() []ioc.Type {
	var types []ioc.Type
	for _, t := range s.registry.Types() {
		if _, ok := s.kinds[t]; ok {
			types = append(types, t)
		}
	}
	return types
}

// LookupIOCs looks up every row and returns the session's result table.
//
// A row belongs to a canonical type when its Type equals the type's label:
// the canonical name, or the caller's alias for it in aliases (keyed by
// canonical name). Rows whose label matches no type are ignored. An alias
// for an unknown type fails with ioc.ErrUnsupportedType before anything is
// submitted.
//
// Validation failures and failed submissions are recorded as rows and do not
// stop the run. The returned error is non-nil only for a bad alias or when
// ctx is cancelled.
func (s *Session) LookupIOCs(ctx context.Context, rows []model.InputRow, aliases map[string]string) (*model.ResultTable, error) {
	labels, err := s.typeLabels(aliases)
	if err != nil {
		return s.table, err
	}

	groups := make([]typeGroup, 0, len(labels))
	for _, t := range s.SupportedTypes() {
		g := typeGroup{kind: s.kinds[t]}
		for _, row := range rows {
			if row.Type == labels[t] {
				g.rows = append(g.rows, row)
			}
		}
		if len(g.rows) > 0 {
			groups = append(groups, g)
		}
	}

	s.logger.Info("starting lookup",
		"run", s.id,
		"input_rows", len(rows),
		"types", len(groups),
		"concurrency", s.concurrency,
	)
	startTime := time.Now()

	err = s.processGroups(ctx, groups)

	s.logger.Info("submission complete",
		"run", s.id,
		"results", s.table.Len(),
		"input_rows", len(rows),
		"elapsed", time.Since(startTime),
	)

	return s.table, err
}

// typeLabels returns the input label of every supported type.
func (s *Session) typeLabels(aliases map[string]string) (map[ioc.Type]string, error) {
	labels := make(map[ioc.Type]string, len(s.kinds))
	for t := range s.kinds {
		labels[t] = t.String()
	}

	for name, label := range aliases {
		t, err := ioc.ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("type alias %q: %w", name, err)
		}
		if _, ok := s.kinds[t]; !ok {
			return nil, fmt.Errorf("type alias %q: %w", name, ioc.ErrUnsupportedType)
		}
		labels[t] = label
	}

	return labels, nil
}

// LookupIOC looks up a single observable and returns the rows it produced.
// typeName must be a canonical type name. An unsupported type returns
// ioc.ErrUnsupportedType; a value that fails validation returns an error
// matching ioc.ErrInvalidObservable. The value is submitted on its own, with
// source index "0", and is not checked for duplicates.
func (s *Session) LookupIOC(ctx context.Context, observable, typeName string) ([]model.ResultRow, error) {
	t, err := ioc.ParseType(typeName)
	if err != nil {
		return nil, err
	}
	k, ok := s.kinds[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ioc.ErrUnsupportedType, t)
	}

	value, err := s.sanitizer.Sanitize(observable, t)
	if err != nil {
		return nil, fmt.Errorf("observable %q: %w", observable, err)
	}

	batch := newPendingBatch(k.entry)
	batch.add(value, singleSourceIndex)
	return s.flush(ctx, k, batch, singleSourceIndex), nil
}

// lookupType validates, batches and submits the rows of one canonical type.
func (s *Session) lookupType(ctx context.Context, g typeGroup) error {
	batch := newPendingBatch(g.kind.entry)

	for i, row := range g.rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		if value, ok := s.accept(row, g.kind.entry.Type); ok {
			batch.add(value, row.SourceIndex)
		}

		if batch.shouldFlush(i == len(g.rows)-1) {
			s.flush(ctx, g.kind, batch, batch.contextIndex(row.SourceIndex))
			batch.reset()
		}
	}

	return nil
}

// accept validates a row and checks it for duplicates. It returns the
// normalized value when the row should be submitted; otherwise the row's
// outcome has already been recorded.
func (s *Session) accept(row model.InputRow, t ioc.Type) (string, bool) {
	value, err := s.sanitizer.Sanitize(row.Observable, t)
	if err != nil {
		status := validationStatus(err)
		s.table.Append(model.ResultRow{
			Observable:  row.Observable,
			IoCType:     t.String(),
			Status:      status,
			SourceIndex: row.SourceIndex,
		})
		s.logger.Debug("invalid observable, skipping",
			"run", s.id,
			"observable", row.Observable,
			"type", t.String(),
			"status", status,
			"source_index", row.SourceIndex,
		)
		return "", false
	}

	if dup := s.checkDuplicate(row.Observable, value, t, row.SourceIndex); dup.IsDuplicate {
		s.logger.Debug("duplicate observable, skipping",
			"run", s.id,
			"observable", row.Observable,
			"type", t.String(),
			"status", dup.String(),
			"source_index", row.SourceIndex,
		)
		return "", false
	}

	return value, true
}

// validationStatus returns the status text for a sanitizer error.
func validationStatus(err error) string {
	var ve *ioc.ValidationError
	if errors.As(err, &ve) {
		return ve.Status
	}
	return err.Error()
}

// flush submits the batch and appends its rows as one block. The rows are
// also returned.
func (s *Session) flush(ctx context.Context, k kind, batch *pendingBatch, contextIndex string) []model.ResultRow {
	submitted := batch.submission()
	typeName := k.entry.Type.String()

	s.logger.Debug("submitting observables",
		"run", s.id,
		"observables", submitted,
		"type", typeName,
		"count", len(batch.values),
		"source_index", contextIndex,
	)

	resp, err := s.gateway.Submit(ctx, submitted, k.entry.Descriptor)

	var rows []model.ResultRow
	if err != nil || !resp.OK() {
		status := failureStatus(resp, err)
		s.logger.Warn("submission failed",
			"run", s.id,
			"observables", submitted,
			"type", typeName,
			"status", status,
		)
		rows = failureRows(batch, typeName, status, resp.Body)
	} else {
		rows = s.correlate(resp.Body, submitted, k, contextIndex, batch.index)
	}

	s.table.Append(rows...)
	return rows
}

// failureStatus returns the status text for a failed submission.
// A received non-200 status code takes precedence over a read error.
func failureStatus(resp Response, err error) string {
	if err != nil && (resp.StatusCode == 0 || resp.OK()) {
		return model.StatusFailedSubmissionPrefix + err.Error()
	}
	return fmt.Sprintf("%shttp error %d", model.StatusFailedSubmissionPrefix, resp.StatusCode)
}

// failureRows builds one identical failure row per batch member.
func failureRows(batch *pendingBatch, typeName, status string, body []byte) []model.ResultRow {
	rows := make([]model.ResultRow, len(batch.values))
	for i, value := range batch.values {
		rows[i] = model.ResultRow{
			Observable:  value,
			IoCType:     typeName,
			Status:      status,
			RawResponse: string(body),
			SourceIndex: batch.index[value],
		}
	}
	return rows
}
