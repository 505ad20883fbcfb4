package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

var testModTime = time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

// fakeS3 implements the handful of path-style S3 calls used by S3Store.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	acls    map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects: make(map[string][]byte),
		acls:    make(map[string]string),
	}
}

func (f *fakeS3) acl(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acls[key]
}

func (f *fakeS3) objectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	_, isACL := r.URL.Query()["acl"]

	switch {
	case r.Method == http.MethodGet && key == "":
		keys := make([]string, 0, len(f.objects))
		for k := range f.objects {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
		sb.WriteString(fmt.Sprintf("<Name>test</Name><IsTruncated>false</IsTruncated><KeyCount>%d</KeyCount>", len(keys)))
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("<Contents><Key>%s</Key><LastModified>%s</LastModified><Size>%d</Size></Contents>",
				k, testModTime.Format("2006-01-02T15:04:05.000Z"), len(f.objects[k])))
		}
		sb.WriteString("</ListBucketResult>")
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, sb.String())
	case r.Method == http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		_, _ = w.Write(data)
	case r.Method == http.MethodPut && isACL:
		if _, ok := f.objects[key]; !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		f.acls[key] = r.Header.Get("X-Amz-Acl")
	case r.Method == http.MethodPut:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeS3Error(w, http.StatusInternalServerError, "InternalError")
			return
		}
		f.objects[key] = data
		delete(f.acls, key)
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		delete(f.acls, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeS3Error(w, http.StatusMethodNotAllowed, "MethodNotAllowed")
	}
}

func createS3Client(t *testing.T, handler http.Handler) (*s3.Client, func()) {
	ts := httptest.NewServer(handler)
	s3Cfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
		awsConfig.WithRegion("eu-west-3"),
		awsConfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               ts.URL,
				HostnameImmutable: true,
			}, nil
		})),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
	)
	require.NoError(t, err)
	return s3.NewFromConfig(s3Cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), ts.Close
}

func TestS3Store(t *testing.T) {
	fake := newFakeS3()
	client, closeFn := createS3Client(t, fake)
	defer closeFn()
	store := NewS3Store(client, "test", "https://s3.eu-west-3.amazonaws.com/")
	ctx := context.Background()

	objects, err := store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, objects)

	require.NoError(t, store.Put(ctx, "app-1.0.0.deb", []byte("deb")))
	require.NoError(t, store.SetPubliclyReadable(ctx, "app-1.0.0.deb"))
	require.Equal(t, "public-read", fake.acl("app-1.0.0.deb"))

	objects, err = store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []ObjectInfo{{Name: "app-1.0.0.deb", SizeBytes: 3, ModifiedAt: testModTime}}, objects)

	body, err := store.Get(ctx, "app-1.0.0.deb")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	require.Equal(t, []byte("deb"), data)

	_, err = store.Get(ctx, "missing.deb")
	require.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, store.Delete(ctx, "app-1.0.0.deb"))
	require.NoError(t, store.Delete(ctx, "app-1.0.0.deb"))
	require.Zero(t, fake.objectCount())

	require.Equal(t, "https://s3.eu-west-3.amazonaws.com/test/app-1.0.0.deb", store.Location("app-1.0.0.deb"))
}

func TestS3StoreErrors(t *testing.T) {
	client, closeFn := createS3Client(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeS3Error(w, http.StatusForbidden, "AccessDenied")
	}))
	defer closeFn()
	store := NewS3Store(client, "test", "")
	ctx := context.Background()

	_, err := store.List(ctx)
	require.ErrorContains(t, err, "failed to list bucket test")
	err = store.Put(ctx, "app-1.0.0.deb", []byte("deb"))
	require.ErrorContains(t, err, "failed to put object app-1.0.0.deb")
	err = store.Delete(ctx, "app-1.0.0.deb")
	require.ErrorContains(t, err, "failed to delete object app-1.0.0.deb")
	_, err = store.Get(ctx, "app-1.0.0.deb")
	require.NotErrorIs(t, err, ErrObjectNotFound)
}
