package change

import (
	"bytes"
	"errors"
	"testing"

	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
)

// testSigner is a real ed25519 signer; the identity package is not
// imported here to keep the dependency direction one-way.
type testSigner struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

func newTestSigner(t *testing.T) *testSigner {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	return &testSigner{priv: priv, pub: pub}
}

func (s *testSigner) Author() string { return hex.EncodeToString(s.pub) }

func (s *testSigner) Sign(data []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, data), nil
}

func TestNewValidation(t *testing.T) {
	signer := newTestSigner(t)
	root, err := New(signer, &CreateIssue{Title: "Bug"}, nil)
	if err != nil {
		t.Fatalf("New root failed: %v", err)
	}

	tests := []struct {
		name    string
		payload Payload
		parents []ID
	}{
		{"nil payload", nil, nil},
		{"empty create title", &CreateIssue{Description: "x"}, nil},
		{"create with parents", &CreateIssue{Title: "Bug"}, []ID{root.ID}},
		{"empty set title", &SetTitle{}, []ID{root.ID}},
		{"set title without parents", &SetTitle{Title: "x"}, nil},
		{"bad status", &SetStatus{Status: "wontfix"}, []ID{root.ID}},
		{"empty comment body", &AddComment{}, []ID{root.ID}},
		{"comment without parents", &AddComment{Body: "x"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(signer, tt.payload, tt.parents)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("New() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestIDIndependentOfParentOrder(t *testing.T) {
	signer := newTestSigner(t)
	root, err := New(signer, &CreateIssue{Title: "Bug"}, nil)
	if err != nil {
		t.Fatalf("New root failed: %v", err)
	}
	a, err := New(signer, &SetTitle{Title: "A"}, []ID{root.ID})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	b, err := New(signer, &SetTitle{Title: "B"}, []ID{root.ID})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	merged1, err := New(signer, &AddComment{Body: "merging"}, []ID{a.ID, b.ID})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	merged2, err := New(signer, &AddComment{Body: "merging"}, []ID{b.ID, a.ID, b.ID})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if merged1.ID != merged2.ID {
		t.Errorf("ids differ under parent reordering: %s vs %s", merged1.ID, merged2.ID)
	}
	if len(merged2.Parents) != 2 {
		t.Errorf("parents not deduplicated: %v", merged2.Parents)
	}
}

func TestContentDeterminesID(t *testing.T) {
	signer := newTestSigner(t)
	a, err := New(signer, &CreateIssue{Title: "Bug", Description: "x"}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	b, err := New(signer, &CreateIssue{Title: "Bug", Description: "x"}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if a.ID != b.ID {
		t.Errorf("identical content produced different ids: %s vs %s", a.ID, b.ID)
	}

	c, err := New(signer, &CreateIssue{Title: "Bug", Description: "y"}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if a.ID == c.ID {
		t.Error("different content produced the same id")
	}
}

func TestVerify(t *testing.T) {
	signer := newTestSigner(t)
	ch, err := New(signer, &CreateIssue{Title: "Bug"}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := ch.Verify(); err != nil {
		t.Errorf("Verify on honest change failed: %v", err)
	}

	t.Run("tampered payload", func(t *testing.T) {
		bad := *ch
		bad.Payload = &CreateIssue{Title: "Evil"}
		if err := bad.Verify(); !errors.Is(err, ErrIntegrity) {
			t.Errorf("Verify = %v, want ErrIntegrity", err)
		}
	})

	t.Run("forged id", func(t *testing.T) {
		bad := *ch
		bad.ID = "0000000000000000000000000000000000000000000000000000000000000000"
		if err := bad.Verify(); !errors.Is(err, ErrIntegrity) {
			t.Errorf("Verify = %v, want ErrIntegrity", err)
		}
	})

	t.Run("wrong signer", func(t *testing.T) {
		other := newTestSigner(t)
		bad := *ch
		sig, _ := other.Sign([]byte("whatever"))
		bad.Signature = hex.EncodeToString(sig)
		if err := bad.Verify(); !errors.Is(err, ErrIntegrity) {
			t.Errorf("Verify = %v, want ErrIntegrity", err)
		}
	})

	t.Run("garbage author", func(t *testing.T) {
		bad := *ch
		bad.Author = "not-a-key"
		if err := bad.Verify(); !errors.Is(err, ErrIntegrity) {
			t.Errorf("Verify = %v, want ErrIntegrity", err)
		}
	})
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	signer := newTestSigner(t)
	root, err := New(signer, &CreateIssue{Title: "Bug", Description: "details"}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	comment, err := New(signer, &AddComment{Body: "first", ReplyTo: ""}, []ID{root.ID})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for _, ch := range []*Change{root, comment} {
		data, err := ch.Encode()
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		got, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if err := got.Verify(); err != nil {
			t.Errorf("Verify after round-trip failed: %v", err)
		}
		again, err := got.Encode()
		if err != nil {
			t.Fatalf("re-Encode failed: %v", err)
		}
		if !bytes.Equal(data, again) {
			t.Errorf("round-trip not byte-identical:\n  %s\n  %s", data, again)
		}
	}
}

func TestEncodingKeepsHTMLCharsLiteral(t *testing.T) {
	signer := newTestSigner(t)
	ch, err := New(signer, &CreateIssue{Title: "render <em> & </em> tags"}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := ch.Verify(); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	data, err := ch.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Contains(data, []byte("render <em> & </em> tags")) {
		t.Errorf("wire form escaped HTML characters: %s", data)
	}
	if bytes.Contains(data, []byte(`\u003c`)) || bytes.Contains(data, []byte(`\u0026`)) {
		t.Errorf("wire form contains unicode escapes: %s", data)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if err := got.Verify(); err != nil {
		t.Errorf("Verify after round-trip failed: %v", err)
	}
	again, err := got.Encode()
	if err != nil {
		t.Fatalf("re-Encode failed: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Errorf("round-trip not byte-identical:\n  %s\n  %s", data, again)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "nope"},
		{"unknown payload", `{"id":"abc","parents":[],"author":"a","signature":"s","payload":{"type":"delete_everything"}}`},
		{"missing id", `{"parents":[],"author":"a","signature":"s","payload":{"type":"set_title","title":"x"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.data)); !errors.Is(err, ErrValidation) {
				t.Errorf("Decode = %v, want ErrValidation", err)
			}
		})
	}
}

func TestIDShort(t *testing.T) {
	if got := ID("abcdef0123456789").Short(); got != "abcdef01" {
		t.Errorf("Short = %q, want abcdef01", got)
	}
	if got := ID("abc").Short(); got != "abc" {
		t.Errorf("Short = %q, want abc", got)
	}
}
