// view.go — server-rendered страницы просмотра записей: /view и /view-file.
// Страницы самодостаточны (inline CSS) и открываются по ссылке из QR-кода.
// Защищённая запись рендерит форму пароля; неверный пароль возвращает
// форму с сообщением об ошибке.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bigkaa/qrshare/internal/domain/model"
	"github.com/bigkaa/qrshare/internal/repository"
	"github.com/bigkaa/qrshare/internal/service"
)

// pageStyle — общий inline CSS страниц просмотра.
const pageStyle = `    * {
      margin: 0;
      padding: 0;
      box-sizing: border-box;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
      background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
      min-height: 100vh;
      padding: 20px;
      display: flex;
      align-items: center;
      justify-content: center;
    }
    .container {
      background: white;
      border-radius: 16px;
      box-shadow: 0 25px 50px -12px rgba(0, 0, 0, 0.25);
      max-width: 800px;
      width: 100%;
      overflow: hidden;
    }
    .header {
      background: linear-gradient(135deg, #1a1a2e 0%, #16213e 100%);
      color: white;
      padding: 24px 32px;
    }
    .header h1 {
      font-size: 24px;
      font-weight: 600;
      margin-bottom: 8px;
    }
    .header p {
      font-size: 14px;
      opacity: 0.8;
    }
    .content {
      padding: 32px;
    }
    .message {
      font-size: 18px;
      line-height: 1.8;
      color: #333;
      white-space: pre-wrap;
      word-wrap: break-word;
    }
    .meta {
      font-size: 14px;
      color: #888;
      margin-top: 12px;
    }
    .download {
      display: inline-block;
      margin-top: 16px;
      padding: 12px 24px;
      background: linear-gradient(135deg, #1a1a2e 0%, #16213e 100%);
      color: white;
      border-radius: 8px;
      text-decoration: none;
      font-size: 16px;
    }
    .password-form input[type="password"] {
      width: 100%;
      padding: 12px;
      font-size: 16px;
      border: 1px solid #ccc;
      border-radius: 8px;
      margin-bottom: 12px;
    }
    .password-form button {
      padding: 12px 24px;
      font-size: 16px;
      border: none;
      border-radius: 8px;
      background: linear-gradient(135deg, #1a1a2e 0%, #16213e 100%);
      color: white;
      cursor: pointer;
    }
    .error {
      color: #c0392b;
      font-size: 14px;
      margin-bottom: 12px;
    }
    .footer {
      border-top: 1px solid #eee;
      padding: 16px 32px;
      text-align: center;
      color: #888;
      font-size: 12px;
    }
    @media print {
      body {
        background: white;
        padding: 0;
      }
      .container {
        box-shadow: none;
        border-radius: 0;
      }
    }`

// ViewText — GET|POST /view?id=.
// GET открытой записи рендерит текст; защищённой — форму пароля.
// POST проверяет пароль из формы.
func (h *APIHandler) ViewText(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeHTMLError(w, http.StatusBadRequest, "Missing id parameter")
		return
	}

	if r.Method == http.MethodPost {
		share, err := h.access.UnlockText(r.Context(), id, r.FormValue("password"))
		if err != nil {
			h.viewUnlockError(w, "/view", id, "Shared Message", err)
			return
		}
		writeHTML(w, renderTextPage(share))
		return
	}

	access, err := h.access.ResolveText(r.Context(), id)
	if err != nil {
		h.viewResolveError(w, "Message not found", err)
		return
	}
	if access.State == service.StateGated {
		writeHTML(w, renderGatePage("/view", id, "Shared Message", ""))
		return
	}
	writeHTML(w, renderTextPage(access.Share))
}

// ViewFile — GET|POST /view-file?id=.
func (h *APIHandler) ViewFile(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeHTMLError(w, http.StatusBadRequest, "Missing id parameter")
		return
	}

	if r.Method == http.MethodPost {
		share, err := h.access.UnlockFile(r.Context(), id, r.FormValue("password"))
		if err != nil {
			h.viewUnlockError(w, "/view-file", id, "Shared File", err)
			return
		}
		writeHTML(w, renderFilePage(share))
		return
	}

	access, err := h.access.ResolveFile(r.Context(), id)
	if err != nil {
		h.viewResolveError(w, "File not found", err)
		return
	}
	if access.State == service.StateGated {
		writeHTML(w, renderGatePage("/view-file", id, "Shared File", ""))
		return
	}
	writeHTML(w, renderFilePage(access.Share))
}

// viewResolveError переводит ошибку разрешения в HTML-ответ.
func (h *APIHandler) viewResolveError(w http.ResponseWriter, notFoundMsg string, err error) {
	switch {
	case errors.Is(err, service.ErrMissingID):
		writeHTMLError(w, http.StatusBadRequest, "Missing id parameter")
	case errors.Is(err, repository.ErrNotFound):
		writeHTMLError(w, http.StatusNotFound, notFoundMsg)
	default:
		writeHTMLError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// viewUnlockError рендерит форму пароля с ошибкой или HTML-ошибку.
func (h *APIHandler) viewUnlockError(w http.ResponseWriter, action, id, title string, err error) {
	switch {
	case errors.Is(err, service.ErrWrongPassword), errors.Is(err, service.ErrEmptyPassword):
		writeHTML(w, renderGatePage(action, id, title, "Incorrect password"))
	case errors.Is(err, repository.ErrNotFound):
		writeHTMLError(w, http.StatusNotFound, "Not found")
	default:
		writeHTMLError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// renderTextPage собирает страницу просмотра текстовой записи.
func renderTextPage(share *model.TextShare) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Shared Message</title>
  <style>
%s
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>&#128196; Shared Message</h1>
      <p>Created: %s</p>
    </div>
    <div class="content">
      <div class="message">%s</div>
    </div>
    <div class="footer">
      Shared via QR Share
    </div>
  </div>
</body>
</html>`, pageStyle, formatTimestamp(share.CreatedAt), escapeText(share.Content))
}

// renderFilePage собирает страницу просмотра файловой записи.
func renderFilePage(share *model.FileShare) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Shared File</title>
  <style>
%s
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>&#128206; Shared File</h1>
      <p>Created: %s</p>
    </div>
    <div class="content">
      <div class="message">%s</div>
      <div class="meta">%s &middot; %s</div>
      <a class="download" href="%s" download>Download</a>
    </div>
    <div class="footer">
      Shared via QR Share
    </div>
  </div>
</body>
</html>`,
		pageStyle,
		formatTimestamp(share.CreatedAt),
		escapeText(share.FileName),
		escapeText(service.FormatFileSize(share.FileSize)),
		escapeText(share.FileType),
		escapeAttr(share.PublicURL),
	)
}

// renderGatePage собирает страницу с формой пароля.
// errorMsg рендерится над полем ввода; пустая строка — без ошибки.
func renderGatePage(action, id, title, errorMsg string) string {
	errorHTML := ""
	if errorMsg != "" {
		errorHTML = `<p class="error">` + escapeText(errorMsg) + `</p>
      `
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>%s</title>
  <style>
%s
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>&#128274; %s</h1>
      <p>This content is password protected</p>
    </div>
    <div class="content">
      %s<form class="password-form" method="POST" action="%s?id=%s">
        <input type="password" name="password" placeholder="Enter password" autofocus>
        <button type="submit">Unlock</button>
      </form>
    </div>
    <div class="footer">
      Shared via QR Share
    </div>
  </div>
</body>
</html>`, escapeText(title), pageStyle, escapeText(title), errorHTML, action, escapeAttr(id))
}

// writeHTML отдаёт страницу с заголовками как у исходных view-ответов.
func writeHTML(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// writeHTMLError отдаёт plain-text ошибку страниц просмотра.
func writeHTMLError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

// escapeText экранирует пользовательский текст для HTML-страницы.
// Перевод строки превращается в <br>, чтобы многострочные сообщения
// сохраняли разбивку.
func escapeText(text string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#039;",
		"\n", "<br>",
	)
	return r.Replace(text)
}

// escapeAttr экранирует значение HTML-атрибута без замены переводов строк.
func escapeAttr(value string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#039;",
	)
	return r.Replace(value)
}

// formatTimestamp форматирует время создания в стиле locale-строки
// браузера (en-US).
func formatTimestamp(t time.Time) string {
	return t.Local().Format("1/2/2006, 3:04:05 PM")
}
