package dataset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoColumns is returned when the file has no header row at all.
var ErrNoColumns = errors.New("no columns to parse from file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DefaultNullTokens are the raw cell texts read as missing values.
var DefaultNullTokens = []string{
	"", "NA", "N/A", "n/a", "NULL", "null", "NaN", "nan", "-NaN", "-nan",
	"None", "<NA>", "#N/A", "#NA",
}

// rawTable is the untyped grid read from disk. Rows may be shorter than the
// header; cells past the end of a row are missing.
type rawTable struct {
	header []string
	rows   [][]string
}

func readDelimited(ctx context.Context, r io.Reader, delim rune) (*rawTable, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoColumns
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	tbl := &rawTable{header: header}
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(tbl.rows)+1, err)
		}
		if len(rec) > len(header) {
			return nil, fmt.Errorf("row %d: expected %d fields, saw %d", len(tbl.rows)+1, len(header), len(rec))
		}
		tbl.rows = append(tbl.rows, rec)

		if len(tbl.rows)%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	return tbl, nil
}

// readWorkbook reads the first worksheet. Stray cells right of the header widen
// the table instead of failing it.
func readWorkbook(path string) (*rawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoColumns
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrNoColumns
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	header := make([]string, width)
	copy(header, rows[0])

	tbl := &rawTable{header: header}
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		tbl.rows = append(tbl.rows, row)
	}
	return tbl, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

// normalizeHeader trims names, names empty columns by position and
// disambiguates duplicates with a numeric suffix.
func normalizeHeader(raw []string) []string {
	out := make([]string, len(raw))
	used := make(map[string]int, len(raw))
	for i, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := used[name]; dup {
			base := name
			for {
				n++
				name = base + "." + strconv.Itoa(n)
				if _, taken := used[name]; !taken {
					break
				}
			}
			used[base] = n
		}
		used[name] = 0
		out[i] = name
	}
	return out
}

type kind int

const (
	kindEmpty kind = iota
	kindInt
	kindFloat
	kindBool
	kindString
)

// inferKind picks the narrowest type every present cell parses as.
func inferKind(cells []string) kind {
	if len(cells) == 0 {
		return kindEmpty
	}
	ints, floats, bools := true, true, true
	for _, c := range cells {
		t := strings.TrimSpace(c)
		if ints {
			if _, err := strconv.ParseInt(t, 10, 64); err != nil {
				ints = false
			}
		}
		if floats {
			if f, err := strconv.ParseFloat(t, 64); err != nil || !finite(f) {
				floats = false
			}
		}
		if bools {
			if !strings.EqualFold(t, "true") && !strings.EqualFold(t, "false") {
				bools = false
			}
		}
		if !ints && !floats && !bools {
			return kindString
		}
	}
	switch {
	case ints:
		return kindInt
	case floats:
		return kindFloat
	case bools:
		return kindBool
	default:
		return kindString
	}
}

func convert(cell string, k kind) Value {
	t := strings.TrimSpace(cell)
	switch k {
	case kindInt:
		v, _ := strconv.ParseInt(t, 10, 64)
		return v
	case kindFloat:
		v, _ := strconv.ParseFloat(t, 64)
		return v
	case kindBool:
		return strings.EqualFold(t, "true")
	default:
		return cell
	}
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
