package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/qrshare/internal/blobstore"
	"github.com/bigkaa/qrshare/internal/domain/model"
	"github.com/bigkaa/qrshare/internal/repository"
	"github.com/bigkaa/qrshare/internal/service"
)

// --- Тестовые дублёры ---

type memTextRepo struct {
	records map[string]*model.TextShare
}

func (m *memTextRepo) Insert(_ context.Context, share *model.TextShare) error {
	share.ID = uuid.NewString()
	share.CreatedAt = time.Now().UTC()
	stored := *share
	m.records[share.ID] = &stored
	return nil
}

func (m *memTextRepo) GetByID(_ context.Context, id string) (*model.TextShare, error) {
	share, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *share
	return &copied, nil
}

type memFileRepo struct {
	records map[string]*model.FileShare
}

func (m *memFileRepo) Insert(_ context.Context, share *model.FileShare) error {
	share.ID = uuid.NewString()
	share.CreatedAt = time.Now().UTC()
	stored := *share
	m.records[share.ID] = &stored
	return nil
}

func (m *memFileRepo) GetByID(_ context.Context, id string) (*model.FileShare, error) {
	share, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *share
	return &copied, nil
}

type memBlobStore struct {
	blobs map[string][]byte
	types map[string]string
}

func (m *memBlobStore) Put(_ context.Context, key, contentType string, r io.Reader) (*blobstore.BlobInfo, error) {
	if _, ok := m.blobs[key]; ok {
		return nil, blobstore.ErrExists
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.blobs[key] = data
	m.types[key] = contentType
	return &blobstore.BlobInfo{Key: key, Size: int64(len(data)), ContentType: contentType}, nil
}

func (m *memBlobStore) Open(_ context.Context, key string) (io.ReadCloser, *blobstore.BlobInfo, error) {
	data, ok := m.blobs[key]
	if !ok {
		return nil, nil, blobstore.ErrNotFound
	}
	info := &blobstore.BlobInfo{Key: key, Size: int64(len(data)), ContentType: m.types[key]}
	return io.NopCloser(bytes.NewReader(data)), info, nil
}

func (m *memBlobStore) Stat(_ context.Context, key string) (*blobstore.BlobInfo, error) {
	data, ok := m.blobs[key]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return &blobstore.BlobInfo{Key: key, Size: int64(len(data)), ContentType: m.types[key]}, nil
}

func (m *memBlobStore) PublicURL(key string) string {
	return "https://share.example.com/uploads/" + key
}

type okChecker struct{}

func (okChecker) CheckReady() (string, string) { return "ok", "" }

// newTestServer собирает полный маршрутизатор на in-memory дублёрах.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	texts := &memTextRepo{records: map[string]*model.TextShare{}}
	files := &memFileRepo{records: map[string]*model.FileShare{}}
	blobs := &memBlobStore{blobs: map[string][]byte{}, types: map[string]string{}}

	shareSvc := service.NewShareService(texts, files, blobs, "https://share.example.com", logger)
	accessSvc := service.NewAccessService(texts, files, nil, logger)
	health := NewHealthHandler(okChecker{}, okChecker{})

	h := NewAPIHandler(shareSvc, accessSvc, blobs, health, logger)
	srv := httptest.NewServer(h.Router(logger))
	t.Cleanup(srv.Close)
	return srv
}

// postJSON выполняет POST с JSON-телом и декодирует ответ в out.
func postJSON(t *testing.T, url string, body any, out any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("ошибка сериализации: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ошибка запроса: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("ошибка декодирования ответа: %v", err)
		}
	}
	return resp
}

// --- Тесты ---

// TestCreateAndViewText проверяет полный путь: создание текстовой записи
// через API и просмотр по view-ссылке.
func TestCreateAndViewText(t *testing.T) {
	srv := newTestServer(t)

	var created struct {
		ID          string `json:"id"`
		ViewURL     string `json:"view_url"`
		DisplayName string `json:"display_name"`
	}
	resp := postJSON(t, srv.URL+"/api/v1/shares/text",
		map[string]string{"content": "Привет, мир!"}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, ожидался 201", resp.StatusCode)
	}
	if created.ID == "" {
		t.Fatal("id не заполнен")
	}
	if created.ViewURL != "https://share.example.com/view?id="+created.ID {
		t.Errorf("view_url = %q", created.ViewURL)
	}

	page, err := http.Get(srv.URL + "/view?id=" + created.ID)
	if err != nil {
		t.Fatalf("ошибка запроса страницы: %v", err)
	}
	defer page.Body.Close()

	if page.StatusCode != http.StatusOK {
		t.Fatalf("status страницы = %d", page.StatusCode)
	}
	if ct := page.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	body, _ := io.ReadAll(page.Body)
	if !strings.Contains(string(body), "Привет, мир!") {
		t.Error("страница не содержит текста сообщения")
	}
	if !strings.Contains(string(body), "Shared Message") {
		t.Error("страница не содержит заголовка")
	}
}

// TestViewText_Escaping проверяет экранирование HTML в тексте сообщения.
func TestViewText_Escaping(t *testing.T) {
	srv := newTestServer(t)

	var created struct {
		ID string `json:"id"`
	}
	postJSON(t, srv.URL+"/api/v1/shares/text",
		map[string]string{"content": "<script>alert(\"x\")</script>\n'second & line'"}, &created)

	page, err := http.Get(srv.URL + "/view?id=" + created.ID)
	if err != nil {
		t.Fatalf("ошибка запроса страницы: %v", err)
	}
	defer page.Body.Close()
	body, _ := io.ReadAll(page.Body)
	html := string(body)

	if strings.Contains(html, "<script>alert") {
		t.Error("HTML-теги не экранированы")
	}
	for _, want := range []string{
		"&lt;script&gt;alert(&quot;x&quot;)&lt;/script&gt;",
		"<br>",
		"&#039;second &amp; line&#039;",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("страница не содержит %q", want)
		}
	}
}

// TestViewText_PasswordGate проверяет гейт пароля на view-странице:
// форма → неверный пароль → верный пароль.
func TestViewText_PasswordGate(t *testing.T) {
	srv := newTestServer(t)

	var created struct {
		ID string `json:"id"`
	}
	postJSON(t, srv.URL+"/api/v1/shares/text",
		map[string]string{"content": "большой секрет", "password": "secret"}, &created)

	// GET — форма пароля без содержимого
	page, err := http.Get(srv.URL + "/view?id=" + created.ID)
	if err != nil {
		t.Fatalf("ошибка запроса: %v", err)
	}
	body, _ := io.ReadAll(page.Body)
	page.Body.Close()
	if strings.Contains(string(body), "большой секрет") {
		t.Error("содержимое доступно без пароля")
	}
	if !strings.Contains(string(body), `name="password"`) {
		t.Error("страница не содержит формы пароля")
	}

	// POST с неверным паролем — форма с ошибкой
	wrong, err := http.PostForm(srv.URL+"/view?id="+created.ID,
		url.Values{"password": {"wrong"}})
	if err != nil {
		t.Fatalf("ошибка запроса: %v", err)
	}
	body, _ = io.ReadAll(wrong.Body)
	wrong.Body.Close()
	if !strings.Contains(string(body), "Incorrect password") {
		t.Error("нет сообщения о неверном пароле")
	}
	if strings.Contains(string(body), "большой секрет") {
		t.Error("содержимое доступно при неверном пароле")
	}

	// POST с верным паролем — содержимое
	ok, err := http.PostForm(srv.URL+"/view?id="+created.ID,
		url.Values{"password": {"secret"}})
	if err != nil {
		t.Fatalf("ошибка запроса: %v", err)
	}
	body, _ = io.ReadAll(ok.Body)
	ok.Body.Close()
	if !strings.Contains(string(body), "большой секрет") {
		t.Error("содержимое недоступно при верном пароле")
	}
}

// TestGetTextShare_ProtectedHidesContent проверяет, что API не отдаёт
// содержимое защищённой записи без разблокировки.
func TestGetTextShare_ProtectedHidesContent(t *testing.T) {
	srv := newTestServer(t)

	var created struct {
		ID string `json:"id"`
	}
	postJSON(t, srv.URL+"/api/v1/shares/text",
		map[string]string{"content": "секрет", "password": "pw"}, &created)

	resp, err := http.Get(srv.URL + "/api/v1/shares/text/" + created.ID)
	if err != nil {
		t.Fatalf("ошибка запроса: %v", err)
	}
	defer resp.Body.Close()

	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("ошибка декодирования: %v", err)
	}
	if got["protected"] != true {
		t.Error("protected = false")
	}
	if _, ok := got["content"]; ok {
		t.Error("content присутствует в ответе для защищённой записи")
	}
}

// TestUnlockTextShare проверяет API разблокировки.
func TestUnlockTextShare(t *testing.T) {
	srv := newTestServer(t)

	var created struct {
		ID string `json:"id"`
	}
	postJSON(t, srv.URL+"/api/v1/shares/text",
		map[string]string{"content": "секрет", "password": "pw"}, &created)

	// Неверный пароль → 401 WRONG_PASSWORD
	var apiErr struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	resp := postJSON(t, srv.URL+"/api/v1/shares/text/"+created.ID+"/unlock",
		map[string]string{"password": "wrong"}, &apiErr)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, ожидался 401", resp.StatusCode)
	}
	if apiErr.Error.Code != "WRONG_PASSWORD" {
		t.Errorf("code = %q, ожидался WRONG_PASSWORD", apiErr.Error.Code)
	}

	// Верный пароль → содержимое
	var unlocked struct {
		Content *string `json:"content"`
	}
	resp = postJSON(t, srv.URL+"/api/v1/shares/text/"+created.ID+"/unlock",
		map[string]string{"password": "pw"}, &unlocked)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, ожидался 200", resp.StatusCode)
	}
	if unlocked.Content == nil || *unlocked.Content != "секрет" {
		t.Error("содержимое не возвращено при верном пароле")
	}
}

// TestCreateTextShare_Empty проверяет отказ для пустого текста.
func TestCreateTextShare_Empty(t *testing.T) {
	srv := newTestServer(t)

	var apiErr struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	resp := postJSON(t, srv.URL+"/api/v1/shares/text",
		map[string]string{"content": "   "}, &apiErr)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, ожидался 400", resp.StatusCode)
	}
	if apiErr.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q", apiErr.Error.Code)
	}
}

// multipartUpload собирает multipart-форму с файлом и паролем.
func multipartUpload(t *testing.T, filename, contentType, content, password string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("ошибка создания part: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("ошибка записи part: %v", err)
	}
	if password != "" {
		if err := mw.WriteField("password", password); err != nil {
			t.Fatalf("ошибка записи поля: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("ошибка закрытия формы: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// TestCreateAndDownloadFile проверяет загрузку файла и скачивание
// по публичному адресу.
func TestCreateAndDownloadFile(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartUpload(t, "note.txt", "text/plain", "содержимое файла", "")
	resp, err := http.Post(srv.URL+"/api/v1/shares/file", contentType, body)
	if err != nil {
		t.Fatalf("ошибка запроса: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, ожидался 201", resp.StatusCode)
	}

	var created struct {
		ID          string `json:"id"`
		ViewURL     string `json:"view_url"`
		DisplayName string `json:"display_name"`
		Degraded    bool   `json:"degraded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("ошибка декодирования: %v", err)
	}
	if created.Degraded {
		t.Error("degraded = true")
	}
	if created.DisplayName != "note.txt" {
		t.Errorf("display_name = %q", created.DisplayName)
	}

	// Читаем метаданные через API и скачиваем blob
	meta, err := http.Get(srv.URL + "/api/v1/shares/file/" + created.ID)
	if err != nil {
		t.Fatalf("ошибка запроса метаданных: %v", err)
	}
	defer meta.Body.Close()

	var fileMeta struct {
		PublicURL string `json:"public_url"`
	}
	if err := json.NewDecoder(meta.Body).Decode(&fileMeta); err != nil {
		t.Fatalf("ошибка декодирования: %v", err)
	}

	key := strings.TrimPrefix(fileMeta.PublicURL, "https://share.example.com/uploads/")
	download, err := http.Get(srv.URL + "/uploads/" + key)
	if err != nil {
		t.Fatalf("ошибка скачивания: %v", err)
	}
	defer download.Body.Close()

	if download.StatusCode != http.StatusOK {
		t.Fatalf("status скачивания = %d", download.StatusCode)
	}
	if ct := download.Header.Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := download.Header.Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", cc)
	}
	data, _ := io.ReadAll(download.Body)
	if string(data) != "содержимое файла" {
		t.Error("содержимое файла не совпадает")
	}
}

// TestCreateFileShare_TooLarge проверяет отказ 413 для слишком
// большого файла (размер берётся из multipart-заголовка).
func TestCreateFileShare_TooLarge(t *testing.T) {
	srv := newTestServer(t)

	big := strings.Repeat("a", int(service.MaxFileSize)+1)
	body, contentType := multipartUpload(t, "big.txt", "text/plain", big, "")
	resp, err := http.Post(srv.URL+"/api/v1/shares/file", contentType, body)
	if err != nil {
		t.Fatalf("ошибка запроса: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, ожидался 413", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "FILE_TOO_LARGE") {
		t.Error("в ответе нет кода FILE_TOO_LARGE")
	}
}

// TestCreateFileShare_UnsupportedType проверяет отказ 415.
func TestCreateFileShare_UnsupportedType(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartUpload(t, "app.exe", "application/x-msdownload", "MZ", "")
	resp, err := http.Post(srv.URL+"/api/v1/shares/file", contentType, body)
	if err != nil {
		t.Fatalf("ошибка запроса: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, ожидался 415", resp.StatusCode)
	}
}

// TestShareQR проверяет выдачу QR-кода и PDF.
func TestShareQR(t *testing.T) {
	srv := newTestServer(t)

	var created struct {
		ID string `json:"id"`
	}
	postJSON(t, srv.URL+"/api/v1/shares/text",
		map[string]string{"content": "текст"}, &created)

	png, err := http.Get(srv.URL + "/api/v1/shares/text/" + created.ID + "/qr")
	if err != nil {
		t.Fatalf("ошибка запроса QR: %v", err)
	}
	defer png.Body.Close()
	if png.StatusCode != http.StatusOK {
		t.Fatalf("status QR = %d", png.StatusCode)
	}
	if ct := png.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type QR = %q", ct)
	}
	data, _ := io.ReadAll(png.Body)
	if !bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4e, 0x47}) {
		t.Error("ответ не является PNG")
	}

	pdf, err := http.Get(srv.URL + "/api/v1/shares/text/" + created.ID + "/qr.pdf")
	if err != nil {
		t.Fatalf("ошибка запроса PDF: %v", err)
	}
	defer pdf.Body.Close()
	if ct := pdf.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type PDF = %q", ct)
	}
	data, _ = io.ReadAll(pdf.Body)
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("ответ не является PDF")
	}
}

// TestNotFound проверяет 404 для отсутствующих записей.
func TestNotFound(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{
		"/api/v1/shares/text/" + uuid.NewString(),
		"/api/v1/shares/file/" + uuid.NewString(),
		"/view?id=" + uuid.NewString(),
		"/uploads/no/such.txt",
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("%s: ошибка запроса: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: status = %d, ожидался 404", path, resp.StatusCode)
		}
	}
}

// TestView_MissingID проверяет 400 для страницы без параметра id.
func TestView_MissingID(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/view")
	if err != nil {
		t.Fatalf("ошибка запроса: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, ожидался 400", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "Missing id parameter" {
		t.Errorf("тело = %q", string(body))
	}
}

// TestCORS проверяет permissive CORS-заголовки и preflight.
func TestCORS(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/shares/text", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("ошибка preflight: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("preflight status = %d, ожидался 200", resp.StatusCode)
	}
	if origin := resp.Header.Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", origin)
	}
	if headers := resp.Header.Get("Access-Control-Allow-Headers"); !strings.Contains(headers, "content-type") {
		t.Errorf("Access-Control-Allow-Headers = %q", headers)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Errorf("preflight тело не пустое: %q", string(body))
	}
}

// TestHealthEndpoints проверяет health trio.
func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	live, err := http.Get(srv.URL + "/health/live")
	if err != nil {
		t.Fatalf("ошибка liveness: %v", err)
	}
	defer live.Body.Close()
	if live.StatusCode != http.StatusOK {
		t.Errorf("liveness status = %d", live.StatusCode)
	}
	var liveResp struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	if err := json.NewDecoder(live.Body).Decode(&liveResp); err != nil {
		t.Fatalf("ошибка декодирования: %v", err)
	}
	if liveResp.Status != "ok" || liveResp.Service != "qrshare" {
		t.Errorf("liveness = %+v", liveResp)
	}

	ready, err := http.Get(srv.URL + "/health/ready")
	if err != nil {
		t.Fatalf("ошибка readiness: %v", err)
	}
	defer ready.Body.Close()
	if ready.StatusCode != http.StatusOK {
		t.Errorf("readiness status = %d", ready.StatusCode)
	}

	metrics, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("ошибка metrics: %v", err)
	}
	defer metrics.Body.Close()
	if metrics.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d", metrics.StatusCode)
	}
}
