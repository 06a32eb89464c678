// cors.go — permissive CORS для всех endpoints.
// View-страницы и API открыты для встраивания с любого origin;
// preflight-запросы (OPTIONS) получают пустой успешный ответ.
package middleware

import "net/http"

// CORS возвращает middleware, добавляющий permissive cross-origin заголовки
// и отвечающий на preflight-запросы пустым телом.
func CORS() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
