package source

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"survey-dashboard/internal/analysis"
	"survey-dashboard/internal/state"
)

// Memory holds CSV documents in process memory.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
	csv  *analysis.CSVService
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte), csv: analysis.NewCSVService()}
}

func (m *Memory) Driver() Driver { return DriverMemory }

func (m *Memory) Close() error { return nil }

// Put stores a CSV document under name, replacing any previous one.
func (m *Memory) Put(name string, csv []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[name] = append([]byte(nil), csv...)
}

func (m *Memory) Load(ctx context.Context, name string) (*state.DataFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	doc, ok := m.docs[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return m.csv.Parse(bytes.NewReader(doc), name)
}
