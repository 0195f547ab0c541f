package utils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/disintegration/imaging"
)

func TestDownscaleImage(t *testing.T) {
	src := imaging.New(400, 200, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.PNG); err != nil {
		t.Fatalf("encode error: %v", err)
	}

	out, err := DownscaleImage(buf.Bytes(), "image/png", 100)
	if err != nil {
		t.Fatalf("DownscaleImage error: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Fatalf("expected 100x50, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}

	same, err := DownscaleImage(buf.Bytes(), "image/png", 1600)
	if err != nil {
		t.Fatalf("DownscaleImage error: %v", err)
	}
	if !bytes.Equal(same, buf.Bytes()) {
		t.Fatalf("expected small image to be returned unchanged")
	}

	pdf := []byte("%PDF-1.4 fake")
	passthrough, err := DownscaleImage(pdf, "application/pdf", 100)
	if err != nil || !bytes.Equal(passthrough, pdf) {
		t.Fatalf("expected pdf passthrough, got err=%v", err)
	}
}

func TestLocalStorageRoundTrip(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", StorageProviderLocal)
	t.Setenv("LOCAL_UPLOAD_DIR", t.TempDir())
	t.Setenv("STORAGE_ACCESS_BASE_URL", "")
	ctx := context.Background()

	if err := PutObject(ctx, "transactions/invoice/a.txt", []byte("hello"), "text/plain"); err != nil {
		t.Fatalf("PutObject error: %v", err)
	}
	obj, err := OpenObject(ctx, "transactions/invoice/a.txt")
	if err != nil {
		t.Fatalf("OpenObject error: %v", err)
	}
	body, _ := io.ReadAll(obj.Body)
	obj.Body.Close()
	if string(body) != "hello" || obj.Size != 5 {
		t.Fatalf("unexpected object %q size=%d", body, obj.Size)
	}

	if err := DeleteObject(ctx, "transactions/invoice/a.txt"); err != nil {
		t.Fatalf("DeleteObject error: %v", err)
	}
	if _, err := OpenObject(ctx, "transactions/invoice/a.txt"); err != ErrObjectNotFound {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
	if err := PutObject(ctx, "../escape.txt", []byte("x"), "text/plain"); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}

	url := BuildObjectAccessURL("parties/p 1.png")
	if url != "/uploads/object?key=parties%2Fp+1.png" {
		t.Fatalf("unexpected local access url %q", url)
	}
	if key := ExtractObjectKeyFromURL(url); key != "parties/p 1.png" {
		t.Fatalf("expected key round-trip, got %q", key)
	}
}

func TestExtractObjectKeyFromURL_GCS(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"https://storage.googleapis.com/ledger-bucket/transactions/invoice/x.jpg", "transactions/invoice/x.jpg"},
		{"https://ledger-bucket.storage.googleapis.com/parties/y.png", "parties/y.png"},
		{"gs://ledger-bucket/users/z.png", "users/z.png"},
		{"parties/raw.png", "parties/raw.png"},
		{"parties/../secret", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ExtractObjectKeyFromURL(tc.in); got != tc.expected {
			t.Fatalf("ExtractObjectKeyFromURL(%q) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}
