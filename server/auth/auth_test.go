package auth

import (
	"encoding/base64"
	"testing"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	"github.com/google/go-cmp/cmp"
)

func TestParseHeader(t *testing.T) {
	secret := []byte{0xfb, 0xff, 0x01, 0x02, 0x03}
	cases := []struct {
		header string
		scheme string
		err    error
	}{
		{header: "Token " + base64.StdEncoding.EncodeToString(secret), scheme: "token"},
		{header: "token " + base64.RawURLEncoding.EncodeToString(secret), scheme: "token"},
		{header: "Token", err: types.ErrMalformed},
		{header: "Token a b", err: types.ErrMalformed},
		{header: "Token ***", err: types.ErrMalformed},
		{header: "", err: types.ErrMalformed},
	}

	for _, tc := range cases {
		t.Run(tc.header, func(t *testing.T) {
			scheme, got, err := ParseHeader(tc.header)
			if err != tc.err {
				t.Fatalf("err: got %v, want %v", err, tc.err)
			}
			if err != nil {
				return
			}
			if scheme != tc.scheme {
				t.Errorf("scheme: got %s, want %s", scheme, tc.scheme)
			}
			if diff := cmp.Diff(secret, got); diff != "" {
				t.Errorf("secret mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRegisterNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Register with nil handler must panic")
		}
	}()
	Register("dummy", nil)
}
