package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTVerifierRoundTrip(t *testing.T) {
	v := NewJWTVerifier("test-secret")
	want := Identity{ID: "42", Username: "Alice", Avatar: "abc"}

	token, err := v.Sign(want)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	got, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != want {
		t.Fatalf("identity = %+v, want %+v", got, want)
	}
}

func TestJWTVerifierRejectsBadSignature(t *testing.T) {
	token, err := NewJWTVerifier("other-secret").Sign(Identity{ID: "42", Username: "Alice"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewJWTVerifier("test-secret").Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
	if _, err := NewJWTVerifier("test-secret").Verify(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestJWTVerifierRejectsWrongAlgorithm(t *testing.T) {
	secret := []byte("test-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS384, &Claims{
		Username: "Alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}

	// correct secret, wrong signing method: must not validate
	if _, err := NewJWTVerifier("test-secret").Verify(context.Background(), signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestDiscordVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/@me" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"123","username":"alice","avatar":"av"}`))
	}))
	defer srv.Close()

	client := NewDiscordClient(srv.URL, "cid", "secret", "http://localhost/cb")

	id, err := client.Verify(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.ID != "123" || id.Username != "alice" {
		t.Fatalf("identity = %+v", id)
	}

	if _, err := client.Verify(context.Background(), "bad-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestDiscordVerifyUnreachableProvider(t *testing.T) {
	client := NewDiscordClient("http://127.0.0.1:1", "cid", "secret", "")
	if _, err := client.Verify(context.Background(), "token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("unreachable provider should surface as auth failure, got %v", err)
	}
}

func TestDiscordExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/token" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("grant_type") != "authorization_code" || r.PostForm.Get("code") != "the-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"access_token":"tok","token_type":"Bearer"}`))
	}))
	defer srv.Close()

	client := NewDiscordClient(srv.URL, "cid", "secret", "http://localhost/cb")
	bundle, err := client.ExchangeCode(context.Background(), "the-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if string(bundle) != `{"access_token":"tok","token_type":"Bearer"}` {
		t.Fatalf("bundle not passed through: %s", bundle)
	}
}

func TestAdminGate(t *testing.T) {
	v := NewJWTVerifier("test-secret")
	gate := NewAdminGate(v, []string{"42"})

	adminToken, _ := v.Sign(Identity{ID: "42", Username: "Admin"})
	userToken, _ := v.Sign(Identity{ID: "7", Username: "User"})

	if _, err := gate.Check(context.Background(), adminToken); err != nil {
		t.Fatalf("allow-listed admin rejected: %v", err)
	}
	if _, err := gate.Check(context.Background(), userToken); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("err = %v, want ErrNotAllowed", err)
	}
	if _, err := gate.Check(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}
