package portalui

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCookieValue(t *testing.T) {
	cases := []struct {
		name    string
		cookies string
		want    string
		found   bool
	}{
		{name: "only cookie", cookies: "csrftoken=abc123", want: "abc123", found: true},
		{name: "among others", cookies: "sessionid=xyz; csrftoken=abc123; theme=dark", want: "abc123", found: true},
		{name: "no spaces", cookies: "a=1;csrftoken=tok", want: "tok", found: true},
		{name: "percent decoded", cookies: "csrftoken=a%2Fb%3Dc", want: "a/b=c", found: true},
		{name: "plus kept", cookies: "csrftoken=a+b", want: "a+b", found: true},
		{name: "empty value", cookies: "csrftoken=", want: "", found: true},
		{name: "first match wins", cookies: "csrftoken=one; csrftoken=two", want: "one", found: true},
		{name: "name as suffix of other cookie", cookies: "xcsrftoken=abc", found: false},
		{name: "name as prefix of other cookie", cookies: "csrftoken_old=abc", found: false},
		{name: "name inside value", cookies: "other=csrftoken=abc", found: false},
		{name: "absent", cookies: "sessionid=xyz", found: false},
		{name: "empty", cookies: "", found: false},
		{name: "malformed escape", cookies: "csrftoken=%zz", found: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := CookieValue(tc.cookies, CSRFCookieName)
			require.Equal(t, tc.found, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNewSession(t *testing.T) {
	s := NewSession("sessionid=1; csrftoken=tok")
	require.True(t, s.HasToken)
	require.Equal(t, "tok", s.CSRFToken)

	require.False(t, NewSession("sessionid=1").HasToken)
}
