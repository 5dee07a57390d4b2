package model

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"iris-api/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeObjectStore struct {
	objects   map[string][]byte
	pageSize  int
	listCalls int
}

func (f *fakeObjectStore) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listCalls++

	prefix := aws.ToString(params.Prefix)
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if params.ContinuationToken != nil {
		start, _ = strconv.Atoi(*params.ContinuationToken)
	}
	end := len(keys)
	if f.pageSize > 0 && start+f.pageSize < end {
		end = start + f.pageSize
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (f *fakeObjectStore) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Key)
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", key)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestSyncArtifacts(t *testing.T) {
	store := &fakeObjectStore{
		pageSize: 2,
		objects: map[string][]byte{
			"models/iris/v1/model.json":    []byte(`{"k":5}`),
			"models/iris/v1/scaler.json":   []byte(`{"means":[]}`),
			"models/iris/v1/metadata.json": []byte(`{"model_type":"KNeighborsClassifier"}`),
			"models/iris/latest.txt":       []byte("v1"),
			"other/ignored.txt":            []byte("nope"),
		},
	}
	cfg := config.S3Config{Bucket: "ml-models", Prefix: "models"}
	dest := t.TempDir()

	written, err := SyncArtifacts(context.Background(), store, cfg, dest)
	if err != nil {
		t.Fatalf("sync artifacts: %v", err)
	}
	if written != 4 {
		t.Fatalf("expected 4 files written, got %d", written)
	}
	if store.listCalls < 2 {
		t.Fatalf("expected paginated listing, got %d calls", store.listCalls)
	}

	data, err := os.ReadFile(filepath.Join(dest, "iris", "v1", "model.json"))
	if err != nil {
		t.Fatalf("read synced model: %v", err)
	}
	if string(data) != `{"k":5}` {
		t.Fatalf("unexpected model content: %s", data)
	}
	if _, err := os.Stat(filepath.Join(dest, "iris", "latest.txt")); err != nil {
		t.Fatalf("expected latest.txt synced: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "other", "ignored.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected objects outside the prefix to be skipped")
	}
}

func TestSyncArtifactsEmptyPrefix(t *testing.T) {
	store := &fakeObjectStore{
		objects: map[string][]byte{
			"iris/v1/model.json": []byte(`{}`),
		},
	}
	dest := t.TempDir()

	written, err := SyncArtifacts(context.Background(), store, config.S3Config{Bucket: "ml-models"}, dest)
	if err != nil {
		t.Fatalf("sync artifacts: %v", err)
	}
	if written != 1 {
		t.Fatalf("expected 1 file written, got %d", written)
	}
	if _, err := os.Stat(filepath.Join(dest, "iris", "v1", "model.json")); err != nil {
		t.Fatalf("expected file at full key path: %v", err)
	}
}
