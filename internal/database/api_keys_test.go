package database

import (
	"errors"
	"strings"
	"testing"
)

func TestCreateAndVerifyAPIKey(t *testing.T) {
	for name, db := range testDatabases(t) {
		t.Run(name, func(t *testing.T) {
			key, plaintext, err := db.CreateAPIKey("cartographer")
			if err != nil {
				t.Fatalf("CreateAPIKey() error: %v", err)
			}
			if key.ID == "" || key.Prefix == "" {
				t.Errorf("key = %+v", key)
			}
			if !strings.HasPrefix(plaintext, "hxk_"+key.Prefix+"_") {
				t.Errorf("plaintext %q does not carry the prefix", plaintext)
			}

			verified, err := db.VerifyAPIKey(plaintext)
			if err != nil {
				t.Fatalf("VerifyAPIKey() error: %v", err)
			}
			if verified.Name != "cartographer" {
				t.Errorf("Name = %q, want cartographer", verified.Name)
			}
			if verified.LastUsed == nil {
				t.Error("LastUsed should be set after verification")
			}
		})
	}
}

func TestVerifyAPIKeyRejects(t *testing.T) {
	db := testDatabases(t)["sqlite"]

	_, plaintext, err := db.CreateAPIKey("surveyor")
	if err != nil {
		t.Fatalf("CreateAPIKey() error: %v", err)
	}
	parts := strings.Split(plaintext, "_")

	bad := []string{
		"",
		"garbage",
		"hxk__",
		"abc_" + parts[1] + "_" + parts[2],
		"hxk_" + parts[1] + "_" + strings.Repeat("0", len(parts[2])),
		"hxk_ffffffff_" + parts[2],
		plaintext + "_extra",
	}
	for _, k := range bad {
		if _, err := db.VerifyAPIKey(k); !errors.Is(err, ErrInvalidAPIKey) {
			t.Errorf("VerifyAPIKey(%q) error = %v, want ErrInvalidAPIKey", k, err)
		}
	}
}

func TestCreateAPIKeyDuplicateName(t *testing.T) {
	for name, db := range testDatabases(t) {
		t.Run(name, func(t *testing.T) {
			if _, _, err := db.CreateAPIKey("dup"); err != nil {
				t.Fatalf("CreateAPIKey() error: %v", err)
			}
			if _, _, err := db.CreateAPIKey("dup"); !errors.Is(err, ErrDuplicateName) {
				t.Errorf("second CreateAPIKey() error = %v, want ErrDuplicateName", err)
			}
		})
	}
}

func TestCreateAPIKeyBlankName(t *testing.T) {
	db := testDatabases(t)["sqlite"]
	if _, _, err := db.CreateAPIKey(" "); err == nil {
		t.Error("expected error for blank name")
	}
}

func TestRevokeAPIKey(t *testing.T) {
	db := testDatabases(t)["sqlite"]

	_, plaintext, err := db.CreateAPIKey("temp")
	if err != nil {
		t.Fatalf("CreateAPIKey() error: %v", err)
	}
	if err := db.RevokeAPIKey("temp"); err != nil {
		t.Fatalf("RevokeAPIKey() error: %v", err)
	}
	if _, err := db.VerifyAPIKey(plaintext); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("revoked key still verifies: %v", err)
	}
	if err := db.RevokeAPIKey("temp"); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("second RevokeAPIKey() error = %v", err)
	}
}
