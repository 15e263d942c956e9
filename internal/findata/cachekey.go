package findata

import (
	"crypto/md5"
	"fmt"
	"net/url"
)

// canonicalKey builds the cache signature for a GET request: the path plus
// the query string with parameters in sorted key order, so semantically
// identical requests always produce the same signature.
func canonicalKey(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

// canonicalPostKey extends a canonical key with the serialized request body.
func canonicalPostKey(path string, params url.Values, body []byte) string {
	return canonicalKey(path, params) + "-" + string(body)
}

// cacheDigest returns the uppercase fixed-width hex MD5 digest of a
// canonical key. Leading zeros are preserved so every digest is exactly 32
// characters.
func cacheDigest(key string) string {
	sum := md5.Sum([]byte(key))
	return fmt.Sprintf("%032X", sum[:])
}
