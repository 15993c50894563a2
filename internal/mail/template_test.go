package mail

import (
	"strings"
	"testing"
)

func TestOTPEmailBody(t *testing.T) {
	t.Parallel()

	body, err := OTPEmailBody("Pat", "482910", 10)
	if err != nil {
		t.Fatalf("OTPEmailBody() error = %v", err)
	}

	for _, want := range []string{"Pat", "482910", "10"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestOTPEmailBodyEscapesHTML(t *testing.T) {
	t.Parallel()

	body, err := OTPEmailBody("<script>alert(1)</script>", "482910", 10)
	if err != nil {
		t.Fatalf("OTPEmailBody() error = %v", err)
	}

	if strings.Contains(body, "<script>") {
		t.Error("recipient name must be HTML-escaped")
	}
}
