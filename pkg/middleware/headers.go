package middleware

import "net/http"

const (
	// HeaderAuthorization はクライアントの資格情報を運ぶヘッダー。バックエンドには転送しない。
	HeaderAuthorization = "Authorization"
	// HeaderUserID はバックエンドにユーザーIDを伝播するためのヘッダー。
	HeaderUserID = "X-User-Id"
	// HeaderWorkspaceID はバックエンドにワークスペースIDを伝播するためのヘッダー。
	HeaderWorkspaceID = "X-Workspace-Id"
)

// RewriteHeaders はバックエンドへ送るヘッダーセットを生成する。
//
// 元のヘッダーをすべてコピーした上でAuthorizationを削除し、
// X-User-Id と X-Workspace-Id をクレームの値で上書きする。
// クライアントが同名のヘッダーを送ってきても、検証済みの値で置き換わる。
// 元のヘッダーセットは変更しない。
func RewriteHeaders(original http.Header, claims *Claims) http.Header {
	header := original.Clone()
	if header == nil {
		header = make(http.Header)
	}

	header.Del(HeaderAuthorization)
	header.Set(HeaderUserID, claims.UserID())
	header.Set(HeaderWorkspaceID, claims.WorkspaceID)
	return header
}
