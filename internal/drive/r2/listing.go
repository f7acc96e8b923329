package r2

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"time"
)

// listBucketResult is one page of an S3 ListObjectsV2 response. Fields the
// gateway never reads are left out; absent elements decode to zero values.
type listBucketResult struct {
	XMLName               xml.Name       `xml:"ListBucketResult"`
	IsTruncated           bool           `xml:"IsTruncated"`
	NextContinuationToken string         `xml:"NextContinuationToken"`
	Contents              []listObject   `xml:"Contents"`
	CommonPrefixes        []commonPrefix `xml:"CommonPrefixes"`
}

// listObject keeps LastModified as the raw wire string so a missing or
// malformed timestamp degrades per object instead of failing the page.
type listObject struct {
	Key          string `xml:"Key"`
	Size         int64  `xml:"Size"`
	LastModified string `xml:"LastModified"`
}

type commonPrefix struct {
	Prefix string `xml:"Prefix"`
}

// modTime parses the object's LastModified, falling back to now when the
// store omitted it.
func (o listObject) modTime() time.Time {
	if t, err := time.Parse(time.RFC3339, o.LastModified); err == nil {
		return t
	}
	return time.Now()
}

// listPage issues one ListObjectsV2 call. An empty delimiter lists at full
// depth; "/" groups immediate children into common prefixes.
func (d *Driver) listPage(ctx context.Context, prefix, delimiter, token string) (*listBucketResult, error) {
	q := url.Values{}
	q.Set("list-type", "2")
	if delimiter != "" {
		q.Set("delimiter", delimiter)
	}
	if prefix != "" {
		q.Set("prefix", prefix)
	}
	if token != "" {
		q.Set("continuation-token", token)
	}

	resp, err := d.do(ctx, http.MethodGet, d.bucketURL(q), nil, 0, nil)
	if err != nil {
		return nil, mapError(err, "list objects")
	}
	defer resp.Body.Close()

	if !is2xx(resp.StatusCode) {
		return nil, statusError(resp, "list objects")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, mapError(err, "read list response")
	}

	var page listBucketResult
	if err := xml.Unmarshal(body, &page); err != nil {
		return nil, mapError(err, "decode list response")
	}
	return &page, nil
}

// listAll drains every continuation page for prefix into one result.
func (d *Driver) listAll(ctx context.Context, prefix, delimiter string) (*listBucketResult, error) {
	out := &listBucketResult{}
	token := ""
	for {
		page, err := d.listPage(ctx, prefix, delimiter, token)
		if err != nil {
			return nil, err
		}
		out.Contents = append(out.Contents, page.Contents...)
		out.CommonPrefixes = append(out.CommonPrefixes, page.CommonPrefixes...)
		if page.NextContinuationToken == "" {
			return out, nil
		}
		token = page.NextContinuationToken
	}
}
