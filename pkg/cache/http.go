package cache

import (
	"net/http"
)

// Conditional request and validator header names.
const (
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"
)

// ShouldMakeConditionalRequest determines if we should add conditional
// request headers (If-None-Match or If-Modified-Since) based on the cache entry.
func ShouldMakeConditionalRequest(entry *Entry) bool {
	if entry == nil {
		return false
	}
	return entry.HasValidators()
}

// ConditionalHeaders returns a copy of base with If-None-Match and
// If-Modified-Since added for every validator the entry carries. Both are
// sent when both are present; the origin decides which one it honors.
func ConditionalHeaders(base http.Header, entry *Entry) http.Header {
	header := base.Clone()
	if header == nil {
		header = make(http.Header)
	}
	if entry == nil {
		return header
	}

	if entry.ETag != "" {
		header.Set(HeaderIfNoneMatch, entry.ETag)
	}
	if entry.LastModified != "" {
		header.Set(HeaderIfModifiedSince, entry.LastModified)
	}
	return header
}

// ValidatorOptions builds SetOptions carrying the ETag and Last-Modified
// values of a response, verbatim.
func ValidatorOptions(header http.Header, tags []string, params Params) SetOptions {
	return SetOptions{
		ETag:         header.Get(HeaderETag),
		LastModified: header.Get(HeaderLastModified),
		Tags:         tags,
		Params:       params,
	}
}
