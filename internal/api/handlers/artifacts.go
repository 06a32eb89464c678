// artifacts.go — выдача QR-кода записи в PNG и PDF.
// QR кодирует только view-ссылку, поэтому генерируется и для
// защищённых записей: содержимое остаётся за гейтом пароля.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/qrshare/internal/api/errors"
	"github.com/bigkaa/qrshare/internal/artifact"
	"github.com/bigkaa/qrshare/internal/service"
)

// TextShareQR — GET /api/v1/shares/text/{shareID}/qr.
func (h *APIHandler) TextShareQR(w http.ResponseWriter, r *http.Request) {
	access, err := h.access.ResolveText(r.Context(), chi.URLParam(r, "shareID"))
	if err != nil {
		h.writeResolveError(w, "text", chi.URLParam(r, "shareID"), err)
		return
	}
	h.writeQRPNG(w, h.shares.TextViewURL(access.Share.ID))
}

// FileShareQR — GET /api/v1/shares/file/{shareID}/qr.
func (h *APIHandler) FileShareQR(w http.ResponseWriter, r *http.Request) {
	access, err := h.access.ResolveFile(r.Context(), chi.URLParam(r, "shareID"))
	if err != nil {
		h.writeResolveError(w, "file", chi.URLParam(r, "shareID"), err)
		return
	}
	h.writeQRPNG(w, h.shares.FileViewURL(access.Share.ID))
}

// TextShareQRPDF — GET /api/v1/shares/text/{shareID}/qr.pdf.
func (h *APIHandler) TextShareQRPDF(w http.ResponseWriter, r *http.Request) {
	access, err := h.access.ResolveText(r.Context(), chi.URLParam(r, "shareID"))
	if err != nil {
		h.writeResolveError(w, "text", chi.URLParam(r, "shareID"), err)
		return
	}

	// Метка под QR: превью для открытого текста, нейтральная
	// подпись для защищённого — превью не должно утекать до пароля.
	label := "Protected message"
	if access.State == service.StateUnlocked {
		label = textLabel(access.Share.Content)
	}
	h.writeQRPDF(w, h.shares.TextViewURL(access.Share.ID), label, "message")
}

// FileShareQRPDF — GET /api/v1/shares/file/{shareID}/qr.pdf.
func (h *APIHandler) FileShareQRPDF(w http.ResponseWriter, r *http.Request) {
	access, err := h.access.ResolveFile(r.Context(), chi.URLParam(r, "shareID"))
	if err != nil {
		h.writeResolveError(w, "file", chi.URLParam(r, "shareID"), err)
		return
	}

	label := "Protected file"
	name := "file"
	if access.State == service.StateUnlocked {
		label = access.Share.FileName
		name = access.Share.FileName
	}
	h.writeQRPDF(w, h.shares.FileViewURL(access.Share.ID), label, name)
}

// writeQRPNG генерирует и отдаёт PNG с QR-кодом.
func (h *APIHandler) writeQRPNG(w http.ResponseWriter, viewURL string) {
	png, err := artifact.QRCodePNG(viewURL)
	if err != nil {
		h.logger.Error("Ошибка генерации QR-кода", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Не удалось сгенерировать QR-код")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// writeQRPDF собирает и отдаёт PDF-лист с QR-кодом.
func (h *APIHandler) writeQRPDF(w http.ResponseWriter, viewURL, label, displayName string) {
	pdf, err := artifact.QRCodePDF(viewURL, label)
	if err != nil {
		h.logger.Error("Ошибка сборки PDF", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Не удалось собрать PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+artifact.PDFFileName(displayName)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// textLabel обрезает текст сообщения до короткой метки.
func textLabel(content string) string {
	const limit = 50
	runes := []rune(content)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return content
}
