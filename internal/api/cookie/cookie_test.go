package cookie

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestCodec_EncodeDecode(t *testing.T) {
	c := NewCodec("secret", false)

	value, err := c.Encode("tok-123", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if value == "tok-123" {
		t.Fatalf("cookie value must not be the raw token")
	}

	token, err := c.Decode(value)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if token != "tok-123" {
		t.Fatalf("expected tok-123, got %s", token)
	}
}

func TestCodec_RejectsTampering(t *testing.T) {
	issuer := NewCodec("secret", false)
	value, _ := issuer.Encode("tok", time.Now().Add(time.Hour))

	if _, err := NewCodec("other", false).Decode(value); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for wrong key, got %v", err)
	}
	if _, err := issuer.Decode(value + "x"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for altered signature, got %v", err)
	}
	if _, err := issuer.Decode(""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for empty value, got %v", err)
	}
}

func TestCodec_RejectsExpired(t *testing.T) {
	c := NewCodec("secret", false)
	value, _ := c.Encode("tok", time.Now().Add(-time.Minute))

	if _, err := c.Decode(value); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for expired cookie, got %v", err)
	}
}

func TestCodec_RejectsOtherAlgorithms(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sid": "tok",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	value, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	if _, err := NewCodec("secret", false).Decode(value); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for alg=none, got %v", err)
	}
}

func TestCodec_CookieAttributes(t *testing.T) {
	c := NewCodec("secret", true)

	ck := c.New("v", time.Now().Add(24*time.Hour))
	if ck.Name != Name || ck.Path != "/" || !ck.HttpOnly || !ck.Secure || ck.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie attributes: %+v", ck)
	}
	if ck.MaxAge < 24*3600-5 || ck.MaxAge > 24*3600 {
		t.Fatalf("unexpected max age: %d", ck.MaxAge)
	}

	cleared := c.Clear()
	if cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Fatalf("clear cookie should expire immediately: %+v", cleared)
	}
}
