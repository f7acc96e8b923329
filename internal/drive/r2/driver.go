// Package r2 implements drive.Store against an S3-compatible object store
// (Cloudflare R2) over signed raw HTTP.
//
// The driver issues plain GET/PUT/DELETE requests signed with SigV4 and
// normalizes ListObjectsV2 XML itself, so folder semantics (prefix-as-
// folder, sentinel markers) stay under the gateway's control rather than
// inside an SDK client.
//
// Usage:
//
//	store, err := r2.New(&cfg.Store, log)
//	if err != nil { ... }
//
//	listing, err := store.ListFolder(ctx, "docs")
package r2

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/rxxuzi/fxgate/internal/config"
	"github.com/rxxuzi/fxgate/internal/drive"
	"github.com/rxxuzi/fxgate/internal/errs"
	"github.com/rxxuzi/fxgate/internal/logger"
)

// Driver is the R2 implementation of drive.Store. It holds no mutable
// state between requests and is safe for concurrent use.
type Driver struct {
	endpoint  string
	bucket    string
	accessKey string
	secretKey string
	region    string
	publicURL string
	httpc     *http.Client
	log       *logger.Logger
}

var _ drive.Store = (*Driver)(nil)

// New builds a Driver from cfg. Missing credentials are a configuration
// error: the constructor fails closed and logs which piece is absent, so
// no dependent operation ever reaches the network half-configured.
func New(cfg *config.StoreConfig, log *logger.Logger) (*Driver, error) {
	endpoint := cfg.StoreEndpoint()
	if endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		log.ErrorWith("store credentials missing", nil, map[string]interface{}{
			"hasEndpoint":  endpoint != "",
			"hasAccessKey": cfg.AccessKey != "",
			"hasSecretKey": cfg.SecretKey != "",
		})
		return nil, errs.New(errs.ErrKindConfigMissing, "store credentials missing")
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	return &Driver{
		endpoint:  endpoint,
		bucket:    cfg.Bucket,
		accessKey: cfg.AccessKey,
		secretKey: cfg.SecretKey,
		region:    region,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		httpc:     &http.Client{},
		log:       log,
	}, nil
}

// ListFolder returns the immediate children of prefix: common prefixes as
// folder names and objects as display records, excluding the prefix's own
// marker object. Files are sorted newest formatted date first; same-day
// entries keep the store's listing order.
func (d *Driver) ListFolder(ctx context.Context, prefix string) (*drive.Listing, error) {
	norm := drive.NormalizePrefix(prefix)

	page, err := d.listAll(ctx, norm, "/")
	if err != nil {
		return nil, err
	}

	listing := drive.EmptyListing()

	for _, cp := range page.CommonPrefixes {
		name := strings.TrimSuffix(strings.TrimPrefix(cp.Prefix, norm), "/")
		if name == "" {
			continue
		}
		listing.Folders = append(listing.Folders, name)
	}

	for _, obj := range page.Contents {
		if obj.Key == "" || obj.Key == norm {
			continue
		}
		listing.Files = append(listing.Files, drive.BuildFile(d.publicURL, obj.Key, obj.Size, obj.modTime()))
	}

	sort.SliceStable(listing.Files, func(i, j int) bool {
		return listing.Files[i].Date > listing.Files[j].Date
	})

	return listing, nil
}

// ListFlat returns every object under prefix at full depth. Zero-byte
// objects are treated as folder sentinel markers and filtered out.
func (d *Driver) ListFlat(ctx context.Context, prefix string) ([]drive.File, error) {
	page, err := d.listAll(ctx, prefix, "")
	if err != nil {
		return nil, err
	}

	files := []drive.File{}
	for _, obj := range page.Contents {
		if obj.Key == "" || obj.Size == 0 {
			continue
		}
		files = append(files, drive.BuildFile(d.publicURL, obj.Key, obj.Size, obj.modTime()))
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Date > files[j].Date
	})

	return files, nil
}

// Upload writes body to key in one PUT. Last write wins.
func (d *Driver) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := http.Header{}
	header.Set("Content-Type", contentType)

	resp, err := d.do(ctx, http.MethodPut, d.objectURL(key), body, size, header)
	if err != nil {
		return mapError(err, "upload object")
	}
	if !is2xx(resp.StatusCode) {
		serr := statusError(resp, "upload object")
		resp.Body.Close()
		return serr
	}
	drain(resp)
	return nil
}

// DeleteObject removes the object at exactly key.
func (d *Driver) DeleteObject(ctx context.Context, key string) error {
	resp, err := d.do(ctx, http.MethodDelete, d.objectURL(key), nil, 0, nil)
	if err != nil {
		return mapError(err, "delete object")
	}
	if !is2xx(resp.StatusCode) {
		serr := statusError(resp, "delete object")
		resp.Body.Close()
		return serr
	}
	drain(resp)
	return nil
}

// CreateFolder writes the zero-byte sentinel under path. This is the only
// way an empty folder can appear in a listing.
func (d *Driver) CreateFolder(ctx context.Context, path string) error {
	key := drive.NormalizePrefix(path) + drive.SentinelName
	return d.Upload(ctx, key, bytes.NewReader(nil), 0, "application/octet-stream")
}

// DeleteFolder enumerates every object under prefix and deletes them one
// at a time. It is not atomic: some objects may be deleted while others
// fail, and the tally tells the caller exactly that. An enumeration
// failure deletes nothing and counts as one error.
func (d *Driver) DeleteFolder(ctx context.Context, prefix string) (drive.Tally, error) {
	norm := drive.NormalizePrefix(prefix)

	page, err := d.listAll(ctx, norm, "")
	if err != nil {
		return drive.Tally{Deleted: 0, Errors: 1}, err
	}

	tally := drive.Tally{}
	for _, obj := range page.Contents {
		if obj.Key == "" {
			continue
		}
		if err := d.DeleteObject(ctx, obj.Key); err != nil {
			d.log.ErrorWith("folder delete: object failed", err, map[string]interface{}{
				"key": obj.Key,
			})
			tally.Errors++
			continue
		}
		tally.Deleted++
	}
	return tally, nil
}

// Rename moves the object at key to newKey. The store has no rename
// primitive, so this is a server-side copy followed by a delete of the
// old key. Equal keys are rejected up front: the delete leg would
// destroy the only copy. A failed copy leaves the old object untouched;
// a failed delete after a successful copy leaves the object under both
// keys and the error names the leftover rather than hiding it.
func (d *Driver) Rename(ctx context.Context, key, newKey string) error {
	if key == newKey {
		return errs.New(errs.ErrKindInvalidInput, "rename: source and destination are the same key")
	}
	if err := d.copyObject(ctx, key, newKey); err != nil {
		return err
	}
	if err := d.DeleteObject(ctx, key); err != nil {
		return errs.Wrap(errs.ErrKindStoreFailed,
			"rename: copied but original remains under "+key, err)
	}
	return nil
}

// Move renames key into destFolder, keeping its basename. Moving an
// object into the folder it already lives in is a no-op.
func (d *Driver) Move(ctx context.Context, key, destFolder string) (string, error) {
	base := drive.Basename(key)
	newKey := base
	if dest := strings.TrimSuffix(destFolder, "/"); dest != "" {
		newKey = dest + "/" + base
	}
	if newKey == key {
		return newKey, nil
	}
	if err := d.Rename(ctx, key, newKey); err != nil {
		return "", err
	}
	return newKey, nil
}

// PublicURL returns the public download URL for key.
func (d *Driver) PublicURL(key string) string {
	return drive.JoinURL(d.publicURL, key)
}

// copyObject is a server-side copy: a PUT on the destination carrying
// x-amz-copy-source, which preserves the object's content type.
func (d *Driver) copyObject(ctx context.Context, srcKey, dstKey string) error {
	header := http.Header{}
	header.Set("x-amz-copy-source", "/"+d.bucket+"/"+drive.EncodeKey(srcKey))

	resp, err := d.do(ctx, http.MethodPut, d.objectURL(dstKey), nil, 0, header)
	if err != nil {
		return mapError(err, "copy object")
	}
	if !is2xx(resp.StatusCode) {
		serr := statusError(resp, "copy object")
		resp.Body.Close()
		return serr
	}
	drain(resp)
	return nil
}
