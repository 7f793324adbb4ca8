package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// s3RoundTripper fakes the S3 subset the store exercises. Unknown keys get
// the real missing-object responses (NoSuchKey on GET, bare 404 on HEAD);
// failAll switches every request to a 500 so service outages can be observed.
type s3RoundTripper struct {
	state   map[string][]byte
	failAll bool
}

func (m *s3RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if m.failAll {
		body := `<?xml version="1.0"?><Error><Code>InternalError</Code><Message>upstream failure</Message></Error>`
		return &http.Response{StatusCode: 500, Body: io.NopCloser(strings.NewReader(body)), Header: http.Header{}}, nil
	}
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	switch req.Method {
	case http.MethodPut:
		payload, _ := io.ReadAll(req.Body)
		m.state[key] = payload
		return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {`"etag"`}}}, nil
	case http.MethodHead:
		if payload, ok := m.state[key]; ok {
			return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{
				"Content-Length": {fmt.Sprintf("%d", len(payload))},
				"ETag":           {`"etag"`},
			}}, nil
		}
		return &http.Response{StatusCode: 404, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	case http.MethodGet:
		if payload, ok := m.state[key]; ok {
			return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewReader(payload)), Header: http.Header{
				"Content-Length": {fmt.Sprintf("%d", len(payload))},
				"ETag":           {`"etag"`},
			}}, nil
		}
		body := `<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`
		return &http.Response{StatusCode: 404, Body: io.NopCloser(strings.NewReader(body)), Header: http.Header{}}, nil
	case http.MethodDelete:
		delete(m.state, key)
		return &http.Response{StatusCode: 204, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	return &http.Response{StatusCode: 501, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
}

func newMockS3Store(t *testing.T) (*s3Store, *s3RoundTripper) {
	t.Helper()
	rt := &s3RoundTripper{state: make(map[string][]byte)}
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	)
	if err != nil {
		t.Fatalf("cfg: %v", err)
	}
	client := awsS3.NewFromConfig(cfg, func(o *awsS3.Options) {
		o.BaseEndpoint = aws.String("https://mock.s3.local")
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
	})
	return &s3Store{client: client, bucket: "test-bucket"}, rt
}

func TestS3StoreGetMissingKey(t *testing.T) {
	store, _ := newMockS3Store(t)
	if _, _, err := store.Get(context.Background(), "snapshots/absent.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}
}

func TestS3StoreGetPropagatesServiceFailure(t *testing.T) {
	store, rt := newMockS3Store(t)
	rt.failAll = true
	_, _, err := store.Get(context.Background(), "snapshots/state.json")
	if err == nil {
		t.Fatal("expected error from failing backend")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("service failure must not read as a missing key: %v", err)
	}
}

func TestS3StoreDeletePropagatesServiceFailure(t *testing.T) {
	store, rt := newMockS3Store(t)
	if _, err := store.Put(context.Background(), "k.txt", strings.NewReader("v"), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	rt.failAll = true
	if _, err := store.Delete(context.Background(), "k.txt"); err == nil {
		t.Fatal("expected error from failing backend")
	}
	rt.failAll = false
	if removed, err := store.Delete(context.Background(), "absent.txt"); err != nil || removed {
		t.Fatalf("expected clean no-op for absent key, got removed=%v err=%v", removed, err)
	}
}

func TestS3ConfigFromEnvReadsCredentials(t *testing.T) {
	t.Setenv("LIGHTHOUSECORE_BLOB_S3_BUCKET", "meals")
	t.Setenv("LIGHTHOUSECORE_BLOB_S3_REGION", "af-south-1")
	t.Setenv("LIGHTHOUSECORE_BLOB_S3_ACCESS_KEY_ID", "AKIAEXAMPLE")
	t.Setenv("LIGHTHOUSECORE_BLOB_S3_SECRET_ACCESS_KEY", "s3cret")
	t.Setenv("LIGHTHOUSECORE_BLOB_S3_SESSION_TOKEN", "tok123")
	cfg, err := s3ConfigFromEnv()
	if err != nil {
		t.Fatalf("config from env: %v", err)
	}
	if cfg.AccessKeyID != "AKIAEXAMPLE" || cfg.SecretAccessKey != "s3cret" || cfg.SessionToken != "tok123" {
		t.Fatalf("credentials not read from environment: %+v", cfg)
	}

	t.Setenv("LIGHTHOUSECORE_BLOB_S3_BUCKET", "")
	if _, err := s3ConfigFromEnv(); err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestIsObjectNotFound(t *testing.T) {
	if !isObjectNotFound(&types.NoSuchKey{}) {
		t.Fatal("NoSuchKey should classify as missing object")
	}
	if !isObjectNotFound(&smithy.GenericAPIError{Code: "NotFound"}) {
		t.Fatal("bare 404 NotFound should classify as missing object")
	}
	if isObjectNotFound(&smithy.GenericAPIError{Code: "InternalError"}) {
		t.Fatal("service errors must not classify as missing object")
	}
	if isObjectNotFound(errors.New("dial tcp: connection refused")) {
		t.Fatal("transport errors must not classify as missing object")
	}
}
