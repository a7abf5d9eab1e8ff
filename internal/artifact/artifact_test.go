package artifact

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/henrybloomingdale/biofan/internal/quality"
	"github.com/henrybloomingdale/biofan/internal/record"
	"github.com/henrybloomingdale/biofan/internal/research"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	failOn  string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]string{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if f.failOn != "" && strings.HasSuffix(key, f.failOn) {
		return nil, errors.New("access denied")
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+key] = string(b)
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func sampleResult() *research.Result {
	ds := record.Dataset{
		Targets:    []record.Target{{TargetID: "P00533", UniProt: "P00533"}},
		Literature: []record.Literature{{Key: "PMID:1", PMID: "1", Title: "EGFR", Source: "pubmed"}},
	}
	return &research.Result{RunID: "run-1", Dataset: ds, Report: quality.Summarize(ds)}
}

func TestUpload(t *testing.T) {
	fake := newFakeS3()
	tests := []struct {
		base string
		want string
	}{
		{"", "s3://bucket/a/b.json"},
		{"https://s3.example.org/", "https://s3.example.org/bucket/a/b.json"},
	}
	for _, tt := range tests {
		u := New(fake, "bucket", tt.base, nil)
		link, err := u.Upload(context.Background(), "a/b.json", ContentJSON, []byte("{}"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if link != tt.want {
			t.Errorf("expected %q, got %q", tt.want, link)
		}
	}
	if fake.objects["bucket/a/b.json"] != "{}" {
		t.Errorf("expected object body stored, got %v", fake.objects)
	}
}

func TestUploadRun(t *testing.T) {
	fake := newFakeS3()
	u := New(fake, "bucket", "", nil)
	links, err := u.UploadRun(context.Background(), sampleResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"result.json", "quality.md", "literature.ris", "compounds.csv", "targets.csv", "assays.csv", "literature.csv"} {
		if _, ok := links[name]; !ok {
			t.Errorf("expected link for %s", name)
		}
	}
	if got := fake.objects["bucket/runs/run-1/targets.csv"]; !strings.HasPrefix(got, "target_id,uniprot\n") {
		t.Errorf("unexpected targets.csv %q", got)
	}
	if got := fake.objects["bucket/runs/run-1/compounds.csv"]; got != "" {
		t.Errorf("expected empty compounds table, got %q", got)
	}
	if !strings.Contains(fake.objects["bucket/runs/run-1/quality.md"], "## Metrics") {
		t.Error("expected quality markdown")
	}
	if fake.types["runs/run-1/literature.ris"] != ContentRIS {
		t.Errorf("unexpected content type %q", fake.types["runs/run-1/literature.ris"])
	}
}

func TestUploadRun_Failure(t *testing.T) {
	fake := newFakeS3()
	fake.failOn = "quality.md"
	u := New(fake, "bucket", "", nil)
	links, err := u.UploadRun(context.Background(), sampleResult())
	if err == nil || !strings.Contains(err.Error(), "quality.md") {
		t.Fatalf("expected quality.md upload error, got %v", err)
	}
	if _, ok := links["result.json"]; !ok {
		t.Error("expected links for uploads before the failure")
	}
}
