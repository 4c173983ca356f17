package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultFileName is the backing file expected next to the service binary.
const DefaultFileName = "data.csv"

// Options configures a Loader.
type Options struct {
	// Path of the backing file. Files ending in .xlsx are read as workbooks,
	// everything else as delimited text.
	Path string
	// Delimiter for delimited text; ',' when zero.
	Delimiter rune
	// Defaults applied to missing cells; DefaultFillPolicy when nil.
	Defaults FillPolicy
	// NullTokens are raw cell texts treated as missing; DefaultNullTokens when nil.
	NullTokens []string
	Logger     *slog.Logger
}

// Loader turns the backing file into a Dataset. It holds no state between
// calls and is safe for concurrent use.
type Loader struct {
	path     string
	delim    rune
	defaults FillPolicy
	nulls    map[string]struct{}
	log      *slog.Logger
}

// NewLoader builds a Loader for a fixed file.
func NewLoader(opts Options) *Loader {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.Defaults == nil {
		opts.Defaults = DefaultFillPolicy()
	}
	if opts.NullTokens == nil {
		opts.NullTokens = DefaultNullTokens
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	nulls := make(map[string]struct{}, len(opts.NullTokens))
	for _, tok := range opts.NullTokens {
		nulls[tok] = struct{}{}
	}

	return &Loader{
		path:     opts.Path,
		delim:    opts.Delimiter,
		defaults: opts.Defaults,
		nulls:    nulls,
		log:      opts.Logger,
	}
}

// DefaultPath resolves name against the directory of the running executable.
func DefaultPath(name string) string {
	exe, err := os.Executable()
	if err != nil {
		return name
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), name)
}

// Load reads the backing file as it is right now. Failures never escape: they
// are logged and reported through a failed Result holding an empty Dataset.
func (l *Loader) Load(ctx context.Context) Result {
	start := time.Now()

	ds, err := l.load(ctx)
	if err != nil {
		l.log.Warn("load dataset failed, serving empty dataset",
			slog.String("path", l.path),
			slog.Any("err", err),
		)
		return failed(err)
	}

	l.log.Debug("dataset loaded",
		slog.String("path", l.path),
		slog.Int("records", len(ds.Records)),
		slog.Int("columns", len(ds.Columns)),
		slog.Duration("took", time.Since(start)),
	)
	return Result{Dataset: ds}
}

func (l *Loader) load(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		tbl *rawTable
		err error
	)
	if strings.EqualFold(filepath.Ext(l.path), ".xlsx") {
		tbl, err = readWorkbook(l.path)
	} else {
		tbl, err = l.readFile(ctx)
	}
	if err != nil {
		return nil, err
	}

	return l.build(tbl), nil
}

func (l *Loader) readFile(ctx context.Context) (*rawTable, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	return readDelimited(ctx, f, l.delim)
}

// build types every column, then fills defaults. Columns named in the fill
// policy but absent from the header are synthesized so aggregations stay total.
func (l *Loader) build(tbl *rawTable) *Dataset {
	columns := normalizeHeader(tbl.header)

	records := make([]Record, len(tbl.rows))
	for i := range records {
		records[i] = make(Record, len(columns)+len(l.defaults))
	}

	for j, name := range columns {
		present := make([]string, 0, len(tbl.rows))
		for _, row := range tbl.rows {
			if cell, ok := l.cell(row, j); ok {
				present = append(present, cell)
			}
		}
		k := inferKind(present)

		for i, row := range tbl.rows {
			cell, ok := l.cell(row, j)
			if !ok {
				records[i][name] = nil
				continue
			}
			records[i][name] = convert(cell, k)
		}
	}

	ds := &Dataset{Columns: columns, Records: records}
	l.fill(ds)
	return ds
}

func (l *Loader) cell(row []string, j int) (string, bool) {
	if j >= len(row) {
		return "", false
	}
	if _, null := l.nulls[row[j]]; null {
		return "", false
	}
	return row[j], true
}

func (l *Loader) fill(ds *Dataset) {
	for _, d := range l.defaults {
		if !ds.HasColumn(d.Field) {
			ds.Columns = append(ds.Columns, d.Field)
		}
		for _, rec := range ds.Records {
			if rec[d.Field] == nil {
				rec[d.Field] = d.Value
			}
		}
	}
}
