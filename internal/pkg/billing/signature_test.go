package billing

import (
	"errors"
	"testing"
	"time"
)

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.upcoming","data":{}}`)
	secret := "whsec_test_1234567890abcdef"
	now := time.Unix(1700000000, 0)

	valid := SignatureHeader(payload, secret, now.Unix())
	if err := VerifySignature(payload, valid, secret, now, 5*time.Minute); err != nil {
		t.Fatalf("expected valid signature to verify, got %v", err)
	}

	if err := VerifySignature([]byte(`tampered`), valid, secret, now, 5*time.Minute); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected tampered payload to fail, got %v", err)
	}

	if err := VerifySignature(payload, valid, "whsec_other_secret_value", now, 5*time.Minute); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected wrong secret to fail, got %v", err)
	}
}

func TestVerifySignatureTimestampTolerance(t *testing.T) {
	payload := []byte(`{}`)
	secret := "whsec_test_1234567890abcdef"
	now := time.Unix(1700000000, 0)

	stale := SignatureHeader(payload, secret, now.Add(-6*time.Minute).Unix())
	if err := VerifySignature(payload, stale, secret, now, 5*time.Minute); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected stale timestamp to fail, got %v", err)
	}

	recent := SignatureHeader(payload, secret, now.Add(-4*time.Minute).Unix())
	if err := VerifySignature(payload, recent, secret, now, 5*time.Minute); err != nil {
		t.Fatalf("expected timestamp inside tolerance to verify, got %v", err)
	}

	// Zero tolerance disables the window check entirely.
	ancient := SignatureHeader(payload, secret, now.Add(-24*time.Hour).Unix())
	if err := VerifySignature(payload, ancient, secret, now, 0); err != nil {
		t.Fatalf("expected zero tolerance to skip window check, got %v", err)
	}
}

func TestVerifySignatureMalformedHeaders(t *testing.T) {
	payload := []byte(`{}`)
	secret := "whsec_test_1234567890abcdef"
	now := time.Unix(1700000000, 0)

	tests := []struct {
		name   string
		header string
	}{
		{name: "empty", header: ""},
		{name: "missing v1", header: "t=1700000000"},
		{name: "missing t", header: "v1=deadbeef"},
		{name: "bad timestamp", header: "t=abc,v1=deadbeef"},
		{name: "bad hex", header: "t=1700000000,v1=zzzz"},
		{name: "garbage", header: "not-a-signature"},
	}
	for _, tt := range tests {
		if err := VerifySignature(payload, tt.header, secret, now, 5*time.Minute); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("%s: expected ErrInvalidSignature, got %v", tt.name, err)
		}
	}
}
