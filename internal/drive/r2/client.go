package r2

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/minio/minio-go/v7/pkg/signer"

	"github.com/rxxuzi/fxgate/internal/drive"
)

// unsignedPayload skips body hashing during SigV4 signing. R2 accepts
// unsigned payloads over TLS, and it keeps uploads single-pass.
const unsignedPayload = "UNSIGNED-PAYLOAD"

// bucketURL builds the bucket-level URL with the given query parameters.
func (d *Driver) bucketURL(query url.Values) string {
	u := d.endpoint + "/" + url.PathEscape(d.bucket)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// objectURL builds the object-level URL for key, escaping each segment.
func (d *Driver) objectURL(key string) string {
	return d.endpoint + "/" + url.PathEscape(d.bucket) + "/" + drive.EncodeKey(key)
}

// do issues one signed request and returns the raw response. The caller
// owns the response body. No retries: a failed request surfaces
// immediately as an operation failure.
func (d *Driver) do(ctx context.Context, method, rawURL string, body io.Reader, contentLength int64, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if contentLength >= 0 {
		req.ContentLength = contentLength
	}
	req.Header.Set("X-Amz-Content-Sha256", unsignedPayload)

	signed := signer.SignV4(*req, d.accessKey, d.secretKey, "", d.region)
	return d.httpc.Do(signed)
}

// drain discards and closes a response body so the transport connection
// can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}
