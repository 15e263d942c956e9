package findata

import (
	"net/url"
	"strings"
	"testing"
)

func TestCanonicalKeyParamOrder(t *testing.T) {
	a := url.Values{}
	a.Set("ticker", "AAPL")
	a.Set("limit", "10")
	a.Set("period", "ttm")

	b := url.Values{}
	b.Set("period", "ttm")
	b.Set("limit", "10")
	b.Set("ticker", "AAPL")

	keyA := canonicalKey("/financial-metrics/", a)
	keyB := canonicalKey("/financial-metrics/", b)
	if keyA != keyB {
		t.Errorf("canonical keys differ for identical params: %q vs %q", keyA, keyB)
	}
	if !strings.HasPrefix(keyA, "/financial-metrics/?") {
		t.Errorf("canonical key missing path prefix: %q", keyA)
	}
}

func TestCanonicalKeyNoParams(t *testing.T) {
	if got := canonicalKey("/company/facts/", nil); got != "/company/facts/" {
		t.Errorf("canonicalKey() = %q, want bare path", got)
	}
}

func TestCanonicalPostKeyIncludesBody(t *testing.T) {
	body1 := []byte(`{"tickers":["AAPL"]}`)
	body2 := []byte(`{"tickers":["MSFT"]}`)

	key1 := canonicalPostKey("/financials/search/line-items", nil, body1)
	key2 := canonicalPostKey("/financials/search/line-items", nil, body2)
	if key1 == key2 {
		t.Error("post keys must differ for different bodies")
	}
	if !strings.Contains(key1, "-"+string(body1)) {
		t.Errorf("post key missing body suffix: %q", key1)
	}
}

func TestCacheDigest(t *testing.T) {
	digest := cacheDigest("/company/facts/?ticker=AAPL")

	if len(digest) != 32 {
		t.Errorf("digest length = %d, want 32", len(digest))
	}
	if digest != strings.ToUpper(digest) {
		t.Errorf("digest not uppercase: %q", digest)
	}
	if again := cacheDigest("/company/facts/?ticker=AAPL"); again != digest {
		t.Errorf("digest not deterministic: %q vs %q", again, digest)
	}
	if other := cacheDigest("/company/facts/?ticker=MSFT"); other == digest {
		t.Error("different keys produced identical digests")
	}
}
