package v1

import (
	"net/http/cookiejar"
	"net/url"
	"testing"
)

type jar struct {
	*cookiejar.Jar
}

func newJar(t *testing.T) jar {
	t.Helper()
	j, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return jar{j}
}

func (j jar) value(base, name string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	for _, c := range j.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
