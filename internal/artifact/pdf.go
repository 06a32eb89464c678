// pdf.go — PDF-лист с QR-кодом для печати (A4, портрет).
package artifact

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Геометрия PDF-листа в миллиметрах (A4 210x297).
const (
	pageWidth  = 210.0
	pageHeight = 297.0
	qrSizeMM   = 100.0
)

// QRCodePDF собирает A4-лист: QR-код по центру, подпись "Scan to view"
// и метка записи (имя файла или превью текста) под ним.
func QRCodePDF(url, label string) ([]byte, error) {
	png, err := QRCodePNG(url)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	x := (pageWidth - qrSizeMM) / 2
	y := (pageHeight-qrSizeMM)/2 - 20

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qrcode", opts, bytes.NewReader(png))
	pdf.ImageOptions("qrcode", x, y, qrSizeMM, qrSizeMM, false, opts, 0, "")

	// Подписи центрируются по ширине листа.
	// Встроенные шрифты fpdf поддерживают только cp1252, поэтому
	// текст прогоняется через транслятор.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(26, 26, 46)
	pdf.SetXY(0, y+qrSizeMM+8)
	pdf.CellFormat(pageWidth, 8, tr("Scan to view"), "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(0, y+qrSizeMM+15)
	pdf.CellFormat(pageWidth, 8, tr(label), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("ошибка сборки PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// PDFFileName строит имя скачиваемого PDF из отображаемого имени записи:
// часть до первой точки плюс суффикс -qrcode.pdf.
func PDFFileName(displayName string) string {
	base := displayName
	if idx := strings.IndexByte(base, '.'); idx >= 0 {
		base = base[:idx]
	}
	if base == "" {
		base = "share"
	}
	return base + "-qrcode.pdf"
}
