package analysis

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"survey-dashboard/internal/state"
)

// ErrEmptyTable is returned for input without a header row.
var ErrEmptyTable = errors.New("table has no header")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type CSVService struct{}

func NewCSVService() *CSVService {
	return &CSVService{}
}

// Parse reads a whole CSV table. The delimiter is taken from the header line
// (comma, or semicolon when the header has no comma). Short rows are padded
// with nulls; rows wider than the header are a parse error.
func (s *CSVService) Parse(r io.Reader, name string) (*state.DataFrame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1 // Allow short rows
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyTable)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read headers: %w", name, err)
	}

	// Clean headers
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}
	if len(headers) == 1 && headers[0] == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyTable)
	}

	rows := [][]string{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(record) > len(headers) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("%s: line %d: %d fields, header has %d", name, line, len(record), len(headers))
		}
		rows = append(rows, record)
	}

	df := &state.DataFrame{
		Headers:  headers,
		Rows:     rows,
		FileName: name,
	}
	df.NormalizeNulls()
	return df, nil
}

func detectDelimiter(data []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !sc.Scan() {
		return ','
	}
	header := sc.Text()
	if !strings.Contains(header, ",") && strings.Contains(header, ";") {
		return ';'
	}
	return ','
}
