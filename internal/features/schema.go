package features

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strings"
)

// Vector maps feature names to values. Missing inputs surface as NaN,
// never as absent keys within a computed group.
type Vector map[string]float64

// Schema is the ordered feature column list the model was trained on.
// 모델과 함께 저장되는 사이드카 아티팩트; 독립적으로 재생성 금지
type Schema struct {
	columns []string
	index   map[string]int
}

// NewSchema builds a schema from an ordered column list
func NewSchema(columns []string) *Schema {
	s := &Schema{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	copy(s.columns, columns)
	for i, c := range columns {
		s.index[c] = i
	}
	return s
}

// LoadSchema reads the persisted schema artifact (one column name per line)
func LoadSchema(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema: %w", err)
	}
	defer f.Close()

	var columns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		columns = append(columns, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("schema %s is empty", path)
	}

	return NewSchema(columns), nil
}

// Columns returns a copy of the ordered column names
func (s *Schema) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Len returns the number of columns
func (s *Schema) Len() int {
	return len(s.columns)
}

// Contains reports whether the schema has a column
func (s *Schema) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Project re-orders a computed vector onto the schema's exact column list.
// Schema columns missing from the vector become NaN; computed features not
// in the schema are dropped silently. The output length always equals Len().
func (s *Schema) Project(vec Vector) []float64 {
	row := make([]float64, len(s.columns))
	for i, name := range s.columns {
		if v, ok := vec[name]; ok {
			row[i] = v
		} else {
			row[i] = math.NaN()
		}
	}
	return row
}
