package gateway

import "net/http"

// routeKind はリクエストの処理経路を表す。
type routeKind int

const (
	// routeProtected は認証が必要でバックエンドへ転送する経路。
	routeProtected routeKind = iota
	// routePreflight はCORSプリフライトに即時応答する経路。
	routePreflight
	// routeHealth は認証なしでヘルスチェックに応答する経路。
	routeHealth
)

// String はメトリクスのラベルに使う経路名を返す。
func (k routeKind) String() string {
	switch k {
	case routePreflight:
		return "preflight"
	case routeHealth:
		return "health"
	default:
		return "protected"
	}
}

// classify は認証処理より前にメソッドとパスだけで処理経路を決める。
// OPTIONSはパスに関わらずプリフライトとして扱い、ヘルスチェックより優先する。
func classify(method, path, healthPath string) routeKind {
	switch {
	case method == http.MethodOptions:
		return routePreflight
	case path == healthPath:
		return routeHealth
	default:
		return routeProtected
	}
}
