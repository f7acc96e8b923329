package r2

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxxuzi/fxgate/internal/config"
	"github.com/rxxuzi/fxgate/internal/drive"
	"github.com/rxxuzi/fxgate/internal/errs"
	"github.com/rxxuzi/fxgate/internal/logger"
)

const testBucket = "fx-test"

// fakeObject is one stored object in the fake bucket.
type fakeObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// fakeStore is an in-memory S3-compatible endpoint: ListObjectsV2 with
// delimiter grouping and continuation tokens, PUT (including
// x-amz-copy-source), and DELETE.
type fakeStore struct {
	mu       sync.Mutex
	objects  map[string]fakeObject
	pageSize int // objects per list page; 0 lists everything at once
	requests int
	failCopy bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]fakeObject{}}
}

func (f *fakeStore) put(key string, data []byte, modified time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = fakeObject{data: data, contentType: "application/octet-stream", modified: modified}
}

func (f *fakeStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++

	key := strings.TrimPrefix(r.URL.Path, "/"+testBucket)
	key = strings.TrimPrefix(key, "/")

	switch {
	case r.Method == http.MethodGet && key == "":
		f.serveList(w, r)
	case r.Method == http.MethodPut:
		if src := r.Header.Get("x-amz-copy-source"); src != "" {
			f.serveCopy(w, key, src)
			return
		}
		body, _ := io.ReadAll(r.Body)
		ct := r.Header.Get("Content-Type")
		f.objects[key] = fakeObject{data: body, contentType: ct, modified: time.Now()}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeStore) serveCopy(w http.ResponseWriter, dstKey, src string) {
	if f.failCopy {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	srcKey := strings.TrimPrefix(src, "/"+testBucket+"/")
	obj, ok := f.objects[srcKey]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	f.objects[dstKey] = fakeObject{data: obj.data, contentType: obj.contentType, modified: time.Now()}
	w.WriteHeader(http.StatusOK)
}

type xmlResult struct {
	XMLName               xml.Name    `xml:"ListBucketResult"`
	IsTruncated           bool        `xml:"IsTruncated"`
	NextContinuationToken string      `xml:"NextContinuationToken,omitempty"`
	Contents              []xmlObject `xml:"Contents"`
	CommonPrefixes        []xmlPrefix `xml:"CommonPrefixes"`
}

type xmlObject struct {
	Key          string `xml:"Key"`
	Size         int64  `xml:"Size"`
	LastModified string `xml:"LastModified"`
}

type xmlPrefix struct {
	Prefix string `xml:"Prefix"`
}

func (f *fakeStore) serveList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	prefix := q.Get("prefix")
	delimiter := q.Get("delimiter")

	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	result := xmlResult{}
	seenPrefix := map[string]bool{}
	flat := []string{}

	for _, k := range keys {
		rest := strings.TrimPrefix(k, prefix)
		if delimiter != "" {
			if i := strings.Index(rest, delimiter); i >= 0 {
				cp := prefix + rest[:i+1]
				if !seenPrefix[cp] {
					seenPrefix[cp] = true
					result.CommonPrefixes = append(result.CommonPrefixes, xmlPrefix{Prefix: cp})
				}
				continue
			}
		}
		flat = append(flat, k)
	}

	start := 0
	if tok := q.Get("continuation-token"); tok != "" {
		start, _ = strconv.Atoi(tok)
	}
	end := len(flat)
	if f.pageSize > 0 && start+f.pageSize < end {
		end = start + f.pageSize
		result.IsTruncated = true
		result.NextContinuationToken = strconv.Itoa(end)
	}

	for _, k := range flat[start:end] {
		obj := f.objects[k]
		result.Contents = append(result.Contents, xmlObject{
			Key:          k,
			Size:         int64(len(obj.data)),
			LastModified: obj.modified.UTC().Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/xml")
	_ = xml.NewEncoder(w).Encode(result)
}

func newTestDriver(t *testing.T, fake *fakeStore) (*Driver, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	d, err := New(&config.StoreConfig{
		Endpoint:  srv.URL,
		AccessKey: "test-access",
		SecretKey: "test-secret",
		Bucket:    testBucket,
		PublicURL: "https://fx.example.com",
	}, logger.New(&logger.Config{Output: io.Discard}))
	require.NoError(t, err)
	return d, srv
}

func TestNew_MissingCredentials(t *testing.T) {
	log := logger.New(&logger.Config{Output: io.Discard})

	tests := []struct {
		name string
		cfg  config.StoreConfig
	}{
		{"no endpoint", config.StoreConfig{AccessKey: "a", SecretKey: "s"}},
		{"no access key", config.StoreConfig{Endpoint: "https://x", SecretKey: "s"}},
		{"no secret key", config.StoreConfig{Endpoint: "https://x", AccessKey: "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&tt.cfg, log)
			require.Error(t, err)
			assert.True(t, errs.IsConfigMissing(err))
		})
	}
}

func TestListFolder(t *testing.T) {
	fake := newFakeStore()
	day := func(d int) time.Time { return time.Date(2024, 6, d, 12, 0, 0, 0, time.UTC) }
	fake.put("docs/", nil, day(1))                         // prefix marker
	fake.put("docs/report.pdf", bytes.Repeat([]byte{1}, 1536), day(3))
	fake.put("docs/old.txt", []byte("x"), day(1))
	fake.put("docs/drafts/a.md", []byte("draft"), day(2))
	fake.put("docs/media/clip.mp4", []byte("vid"), day(2))
	fake.put("root.txt", []byte("r"), day(1))

	d, _ := newTestDriver(t, fake)
	listing, err := d.ListFolder(context.Background(), "docs")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"drafts", "media"}, listing.Folders)

	keys := make([]string, 0, len(listing.Files))
	for _, f := range listing.Files {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"docs/report.pdf", "docs/old.txt"}, keys,
		"newest formatted date first, prefix marker excluded")

	report := listing.Files[0]
	assert.Equal(t, "report.pdf", report.Name)
	assert.Equal(t, "1.5 KB", report.Size)
	assert.Equal(t, int64(1536), report.SizeBytes)
	assert.Equal(t, "PDF", report.Type)
	assert.Equal(t, "https://fx.example.com/docs/report.pdf", report.URL)
}

func TestListFolder_Root(t *testing.T) {
	fake := newFakeStore()
	fake.put("a.txt", []byte("x"), time.Now())
	fake.put("docs/b.txt", []byte("x"), time.Now())

	d, _ := newTestDriver(t, fake)
	listing, err := d.ListFolder(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"docs"}, listing.Folders)
	require.Len(t, listing.Files, 1)
	assert.Equal(t, "a.txt", listing.Files[0].Key)
}

func TestListFolder_Empty(t *testing.T) {
	d, _ := newTestDriver(t, newFakeStore())
	listing, err := d.ListFolder(context.Background(), "missing")
	require.NoError(t, err)

	assert.Empty(t, listing.Files)
	assert.Empty(t, listing.Folders)
	assert.NotNil(t, listing.Files, "serialises as [] not null")
	assert.NotNil(t, listing.Folders)
}

func TestListFlat_FiltersSentinels(t *testing.T) {
	fake := newFakeStore()
	fake.put("docs/"+drive.SentinelName, nil, time.Now())
	fake.put("docs/a.txt", []byte("x"), time.Now())
	fake.put("docs/sub/b.txt", []byte("y"), time.Now())

	d, _ := newTestDriver(t, fake)
	files, err := d.ListFlat(context.Background(), "docs/")
	require.NoError(t, err)

	keys := make([]string, 0, len(files))
	for _, f := range files {
		keys = append(keys, f.Key)
	}
	assert.ElementsMatch(t, []string{"docs/a.txt", "docs/sub/b.txt"}, keys)
}

func TestListAll_DrainsContinuationPages(t *testing.T) {
	fake := newFakeStore()
	fake.pageSize = 2
	for _, k := range []string{"p/a", "p/b", "p/c", "p/d", "p/e"} {
		fake.put(k, []byte("x"), time.Now())
	}

	d, _ := newTestDriver(t, fake)
	files, err := d.ListFlat(context.Background(), "p/")
	require.NoError(t, err)
	assert.Len(t, files, 5)
}

func TestUpload_Overwrites(t *testing.T) {
	fake := newFakeStore()
	d, _ := newTestDriver(t, fake)
	ctx := context.Background()

	require.NoError(t, d.Upload(ctx, "docs/a.txt", strings.NewReader("one"), 3, "text/plain"))
	files, err := d.ListFlat(ctx, "docs/")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, int64(3), files[0].SizeBytes)

	require.NoError(t, d.Upload(ctx, "docs/a.txt", strings.NewReader("twelve bytes"), 12, "text/plain"))
	files, err = d.ListFlat(ctx, "docs/")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, int64(12), files[0].SizeBytes, "last write wins")
}

func TestCreateFolder_RoundTrip(t *testing.T) {
	fake := newFakeStore()
	d, _ := newTestDriver(t, fake)
	ctx := context.Background()

	require.NoError(t, d.CreateFolder(ctx, "a/b"))
	assert.True(t, fake.has("a/b/"+drive.SentinelName))

	listing, err := d.ListFolder(ctx, "a")
	require.NoError(t, err)
	assert.Contains(t, listing.Folders, "b")
}

func TestListFolder_ExcludesSentinelFromFiles(t *testing.T) {
	fake := newFakeStore()
	d, _ := newTestDriver(t, fake)
	ctx := context.Background()

	require.NoError(t, d.CreateFolder(ctx, "empty"))

	listing, err := d.ListFolder(ctx, "empty")
	require.NoError(t, err)
	// the sentinel is a real child object; it shows up as a file record
	// only in the folder's own listing, never as the folder marker itself
	for _, f := range listing.Files {
		assert.NotEqual(t, "empty/", f.Key)
	}
}

func TestDeleteFolder(t *testing.T) {
	fake := newFakeStore()
	for _, k := range []string{"old/" + drive.SentinelName, "old/a.txt", "old/sub/b.txt"} {
		fake.put(k, []byte("x"), time.Now())
	}
	fake.put("keep/c.txt", []byte("x"), time.Now())

	d, _ := newTestDriver(t, fake)
	tally, err := d.DeleteFolder(context.Background(), "old")
	require.NoError(t, err)

	assert.Equal(t, drive.Tally{Deleted: 3, Errors: 0}, tally)
	assert.Equal(t, 1, fake.count())
	assert.True(t, fake.has("keep/c.txt"))
}

func TestDeleteFolder_RemovesPrefixMarker(t *testing.T) {
	fake := newFakeStore()
	fake.put("docs/", nil, time.Now())
	fake.put("docs/a.txt", []byte("x"), time.Now())

	d, _ := newTestDriver(t, fake)
	ctx := context.Background()

	tally, err := d.DeleteFolder(ctx, "docs")
	require.NoError(t, err)

	assert.Equal(t, drive.Tally{Deleted: 2, Errors: 0}, tally)
	assert.False(t, fake.has("docs/"), "prefix marker must be gone")
	assert.Zero(t, fake.count())

	listing, err := d.ListFolder(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, listing.Folders, "deleted folder must not reappear")
}

func TestDeleteFolder_Unreachable(t *testing.T) {
	fake := newFakeStore()
	d, srv := newTestDriver(t, fake)
	srv.Close()

	tally, err := d.DeleteFolder(context.Background(), "old")
	require.Error(t, err)
	assert.Equal(t, drive.Tally{Deleted: 0, Errors: 1}, tally)
}

func TestRename(t *testing.T) {
	fake := newFakeStore()
	fake.put("docs/a.pdf", bytes.Repeat([]byte{1}, 1536), time.Now())

	d, _ := newTestDriver(t, fake)
	ctx := context.Background()

	require.NoError(t, d.Rename(ctx, "docs/a.pdf", "docs/b.pdf"))

	files, err := d.ListFlat(ctx, "")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "docs/b.pdf", files[0].Key)
	assert.Equal(t, int64(1536), files[0].SizeBytes)
	assert.Equal(t, "PDF", files[0].Type)
	assert.Equal(t, "https://fx.example.com/docs/b.pdf", files[0].URL, "url re-derived from the new key")
}

func TestRename_CopyFailureLeavesOriginal(t *testing.T) {
	fake := newFakeStore()
	fake.put("docs/a.pdf", []byte("x"), time.Now())
	fake.failCopy = true

	d, _ := newTestDriver(t, fake)
	err := d.Rename(context.Background(), "docs/a.pdf", "docs/b.pdf")
	require.Error(t, err)

	assert.True(t, fake.has("docs/a.pdf"), "failed copy must not delete the original")
	assert.False(t, fake.has("docs/b.pdf"))
}

func TestRename_SameKeyRejected(t *testing.T) {
	fake := newFakeStore()
	fake.put("docs/a.pdf", []byte("x"), time.Now())

	d, _ := newTestDriver(t, fake)
	err := d.Rename(context.Background(), "docs/a.pdf", "docs/a.pdf")

	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
	assert.True(t, fake.has("docs/a.pdf"), "object must survive a same-key rename")
	assert.Zero(t, fake.requests, "same-key rename must not reach the store")
}

func TestMove_SameFolderNoOp(t *testing.T) {
	fake := newFakeStore()
	fake.put("docs/a.pdf", []byte("x"), time.Now())

	d, _ := newTestDriver(t, fake)
	newKey, err := d.Move(context.Background(), "docs/a.pdf", "docs")

	require.NoError(t, err)
	assert.Equal(t, "docs/a.pdf", newKey)
	assert.True(t, fake.has("docs/a.pdf"))
	assert.Zero(t, fake.requests)
}

func TestMove(t *testing.T) {
	fake := newFakeStore()
	fake.put("inbox/a.txt", []byte("x"), time.Now())
	fake.put("inbox/b.txt", []byte("y"), time.Now())

	d, _ := newTestDriver(t, fake)
	ctx := context.Background()

	newKey, err := d.Move(ctx, "inbox/a.txt", "archive")
	require.NoError(t, err)
	assert.Equal(t, "archive/a.txt", newKey)
	assert.True(t, fake.has("archive/a.txt"))
	assert.False(t, fake.has("inbox/a.txt"))

	newKey, err = d.Move(ctx, "inbox/b.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "b.txt", newKey, "empty destination moves to root")
	assert.True(t, fake.has("b.txt"))
}

func TestPublicURL(t *testing.T) {
	d, _ := newTestDriver(t, newFakeStore())
	assert.Equal(t, "https://fx.example.com/my%20files/a.txt", d.PublicURL("my files/a.txt"))
}
