package urlnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeResolvesAndStripsFragment(t *testing.T) {
	got, ok := Normalize("http://a/x/", "../y?q=1#f")
	assert.True(t, ok)
	assert.Equal(t, "http://a/y?q=1", got)
}

func TestNormalizeRejectsMailto(t *testing.T) {
	_, ok := Normalize("http://a/", "mailto:x@y")
	assert.False(t, ok)
}

func TestNormalizeRejectsTelAndJavascript(t *testing.T) {
	_, ok := Normalize("http://a/", "tel:+15551234")
	assert.False(t, ok)
	_, ok = Normalize("http://a/", "javascript:alert(1)")
	assert.False(t, ok)
}

func TestNormalizeRejectsEmpty(t *testing.T) {
	_, ok := Normalize("http://a/", "   ")
	assert.False(t, ok)
}

func TestNormalizeRejectsNonHTTPScheme(t *testing.T) {
	_, ok := Normalize("http://a/", "ftp://a/file")
	assert.False(t, ok)
}

func TestSameDomain(t *testing.T) {
	assert.True(t, SameDomain("http://a.com/x", "http://b.com/y", false))
	assert.True(t, SameDomain("http://a.com/x", "http://a.com/y", true))
	assert.False(t, SameDomain("http://a.com/x", "http://b.com/y", true))
}

func TestOrigin(t *testing.T) {
	origin, err := Origin("https://example.com:8443/foo/bar")
	assert.NoError(t, err)
	assert.Equal(t, "https://example.com:8443", origin)
}

func TestPathWithQuery(t *testing.T) {
	p, err := PathWithQuery("http://a/foo/bar?x=1")
	assert.NoError(t, err)
	assert.Equal(t, "/foo/bar?x=1", p)

	p, err = PathWithQuery("http://a")
	assert.NoError(t, err)
	assert.Equal(t, "/", p)
}
