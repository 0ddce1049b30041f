package s3

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/josefarias3108/projeto-jus/internal/export"
)

// fakeUploader records uploads by key; Publish calls it concurrently.
type fakeUploader struct {
	mu     sync.Mutex
	bodies map[string]string
	meta   map[string]map[string]string
	err    error
}

func (f *fakeUploader) PutObject(ctx context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(in.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bodies == nil {
		f.bodies = map[string]string{}
		f.meta = map[string]map[string]string{}
	}
	key := aws.ToString(in.Key)
	f.bodies[key] = string(b)
	f.meta[key] = in.Metadata
	return &awss3.PutObjectOutput{}, nil
}

func writeFile(t *testing.T, dir, name, body string) export.File {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return export.File{Table: name, Name: name, Path: p, Bytes: int64(len(body)), Checksum: "0123456789abcdef"}
}

func TestObjectKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, run, name, want string
	}{
		{"", "run-1", "dim_juiz.csv", "run-1/dim_juiz.csv"},
		{"/bi/legal/", "run-1", "dim_juiz.csv", "bi/legal/run-1/dim_juiz.csv"},
		{"bi", "", "x.csv", "bi/x.csv"},
	}
	for _, tt := range tests {
		if got := ObjectKey(tt.prefix, tt.run, tt.name); got != tt.want {
			t.Errorf("ObjectKey(%q,%q,%q) = %q, want %q", tt.prefix, tt.run, tt.name, got, tt.want)
		}
	}
}

func TestPublish_UploadsInOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := []export.File{
		writeFile(t, dir, "dim_juiz.csv", "id_juiz\n1\n"),
		writeFile(t, dir, "fato_processos.csv", "numero_processo\n0001\n"),
	}
	up := &fakeUploader{}
	p := NewWithClient(up, Config{Bucket: "bi-extracts", Prefix: "legal"})

	uris, err := p.Publish(context.Background(), "run-7", files)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(up.bodies) != 2 {
		t.Fatalf("uploaded %d objects, want 2", len(up.bodies))
	}
	if uris[0] != "s3://bi-extracts/legal/run-7/dim_juiz.csv" || uris[1] != "s3://bi-extracts/legal/run-7/fato_processos.csv" {
		t.Errorf("uris = %q", uris)
	}
	if got := up.bodies["legal/run-7/dim_juiz.csv"]; got != "id_juiz\n1\n" {
		t.Errorf("body = %q", got)
	}
	if m := up.meta["legal/run-7/fato_processos.csv"]; m["xxh3"] != "0123456789abcdef" || m["run-id"] != "run-7" {
		t.Errorf("metadata = %v", m)
	}
}

func TestPublish_StopsOnError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	up := &fakeUploader{err: errors.New("AccessDenied")}
	p := NewWithClient(up, Config{Bucket: "b"})
	uris, err := p.Publish(context.Background(), "r", []export.File{writeFile(t, dir, "a.csv", "x")})
	if err == nil || len(uris) != 0 {
		t.Fatalf("Publish = %v, %v; want error and no uris", uris, err)
	}
}

func TestNew_RequiresBucket(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error without bucket")
	}
	if (Config{Bucket: " "}).Enabled() {
		t.Fatalf("blank bucket must not enable publishing")
	}
}
