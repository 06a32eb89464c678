package artifact

import (
	"bytes"
	"strings"
	"testing"
)

// pngSignature — первые 8 байт любого PNG-файла.
var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

// TestQRCodePNG проверяет генерацию PNG с QR-кодом.
func TestQRCodePNG(t *testing.T) {
	png, err := QRCodePNG("https://share.example.com/view?id=abc")
	if err != nil {
		t.Fatalf("ошибка генерации: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("пустой PNG")
	}
	if !bytes.HasPrefix(png, pngSignature) {
		t.Error("данные не начинаются с сигнатуры PNG")
	}
}

// TestQRCodePNG_Deterministic проверяет детерминизм генерации:
// одинаковый URL даёт одинаковые байты.
func TestQRCodePNG_Deterministic(t *testing.T) {
	first, err := QRCodePNG("https://share.example.com/view?id=abc")
	if err != nil {
		t.Fatalf("ошибка генерации: %v", err)
	}
	second, err := QRCodePNG("https://share.example.com/view?id=abc")
	if err != nil {
		t.Fatalf("ошибка генерации: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("повторная генерация дала другие байты")
	}

	other, err := QRCodePNG("https://share.example.com/view?id=def")
	if err != nil {
		t.Fatalf("ошибка генерации: %v", err)
	}
	if bytes.Equal(first, other) {
		t.Error("разные URL дали одинаковые байты")
	}
}

// TestQRCodePNG_Empty проверяет отказ для пустого URL.
func TestQRCodePNG_Empty(t *testing.T) {
	if _, err := QRCodePNG(""); err == nil {
		t.Error("ожидалась ошибка для пустого URL")
	}
}

// TestQRCodePDF проверяет сборку PDF-листа.
func TestQRCodePDF(t *testing.T) {
	pdf, err := QRCodePDF("https://share.example.com/view?id=abc", "report.pdf")
	if err != nil {
		t.Fatalf("ошибка сборки: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("данные не начинаются с заголовка PDF")
	}
	if len(pdf) < 1000 {
		t.Errorf("PDF подозрительно мал: %d байт", len(pdf))
	}
}

// TestQRCodePDF_UnicodeLabel проверяет, что метка с кириллицей
// не ломает сборку.
func TestQRCodePDF_UnicodeLabel(t *testing.T) {
	pdf, err := QRCodePDF("https://share.example.com/view?id=abc", "отчёт за август.pdf")
	if err != nil {
		t.Fatalf("ошибка сборки: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("данные не начинаются с заголовка PDF")
	}
}

// TestPDFFileName проверяет построение имени скачиваемого PDF.
func TestPDFFileName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"report.pdf", "report-qrcode.pdf"},
		{"archive.tar.gz", "archive-qrcode.pdf"},
		{"noextension", "noextension-qrcode.pdf"},
		{"Hello World", "Hello World-qrcode.pdf"},
		{".hidden", "share-qrcode.pdf"},
		{"", "share-qrcode.pdf"},
	}

	for _, tt := range tests {
		got := PDFFileName(tt.input)
		if got != tt.expected {
			t.Errorf("PDFFileName(%q) = %q, ожидалось %q", tt.input, got, tt.expected)
		}
		if !strings.HasSuffix(got, "-qrcode.pdf") {
			t.Errorf("PDFFileName(%q) = %q без суффикса -qrcode.pdf", tt.input, got)
		}
	}
}
