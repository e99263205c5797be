package source

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-dashboard/internal/config"
)

const cursosCSV = "COD_CURSO,CURSO,SETOR_CURSO\n10,Fisica,Exatas\n20,Letras,\n"

func TestFilesystemLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cursos_curso.csv"), []byte(cursosCSV), 0o600))

	src, err := Open(context.Background(), config.Source{Driver: config.DriverFS, Dir: dir})
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, DriverFilesystem, src.Driver())

	df, err := src.Load(context.Background(), "cursos_curso.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"COD_CURSO", "CURSO", "SETOR_CURSO"}, df.Headers)
	assert.Equal(t, 2, df.Len())
	assert.Equal(t, filepath.Join(dir, "cursos_curso.csv"), df.FilePath)

	_, err = src.Load(context.Background(), "missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.Load(context.Background(), "../etc/passwd")
	assert.Error(t, err)
}

func TestFilesystemRequiresDirectory(t *testing.T) {
	_, err := NewFilesystem(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestMemoryLoad(t *testing.T) {
	m := NewMemory()
	m.Put("cursos_curso.csv", []byte(cursosCSV))

	df, err := m.Load(context.Background(), "cursos_curso.csv")
	require.NoError(t, err)
	assert.Equal(t, "Letras", df.Value(1, 1))
	assert.Equal(t, "", df.Value(1, 2))

	_, err = m.Load(context.Background(), "other.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Load(ctx, "cursos_curso.csv")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSQLiteLoad(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "surveys.db")
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE cursos_curso (COD_CURSO INTEGER, CURSO TEXT, SETOR_CURSO TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO cursos_curso VALUES (10, 'Fisica', 'Exatas'), (20, 'Letras', NULL)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	src, err := Open(context.Background(), config.Source{Driver: config.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, DriverSQLite, src.Driver())

	sqlSrc := src.(*SQL)
	tables, err := sqlSrc.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cursos_curso"}, tables)

	df, err := src.Load(context.Background(), "cursos_curso.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"COD_CURSO", "CURSO", "SETOR_CURSO"}, df.Headers)
	require.Equal(t, 2, df.Len())
	assert.Equal(t, "10", df.Value(0, 0))
	assert.Equal(t, "", df.Value(1, 2))

	_, err = src.Load(context.Background(), "presenciais_perguntas.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.Load(context.Background(), `x"; DROP TABLE cursos_curso; --`)
	assert.Error(t, err)
}

func TestOpenUnknownDriver(t *testing.T) {
	src, err := Open(context.Background(), config.Source{Driver: "ftp"})
	assert.Error(t, err)
	assert.Nil(t, src)

	src, err = Open(context.Background(), config.Source{Driver: string(DriverMemory)})
	assert.Error(t, err)
	assert.Nil(t, src)

	src, err = Open(context.Background(), config.Source{Driver: config.DriverS3})
	assert.Error(t, err, "bucket is required")
	assert.Nil(t, src)
}

// objectTransport serves path-style GetObject requests from a map.
type objectTransport struct {
	objects map[string]string
}

func (o *objectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := strings.TrimPrefix(req.URL.Path, "/")
	body, ok := o.objects[key]
	if req.Method != http.MethodGet || !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     http.Header{},
			Request:    req,
		}, nil
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header: http.Header{
			"Content-Length": {fmt.Sprintf("%d", len(body))},
			"Content-Type":   {"text/csv"},
		},
		Request: req,
	}, nil
}

func TestS3Load(t *testing.T) {
	rt := &objectTransport{objects: map[string]string{
		"surveys/raw/cursos_curso.csv": cursosCSV,
	}}
	src, err := NewS3(context.Background(), S3Config{
		Bucket:          "surveys",
		Prefix:          "raw",
		Endpoint:        "https://mock.s3.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		HTTPClient:      &http.Client{Transport: rt},
	})
	require.NoError(t, err)
	assert.Equal(t, DriverS3, src.Driver())

	df, err := src.Load(context.Background(), "cursos_curso.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, df.Len())
	assert.Equal(t, "s3://surveys/raw/cursos_curso.csv", df.FilePath)

	_, err = src.Load(context.Background(), "missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}
