package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// bearerPrefix はAuthorizationヘッダーのスキーム接頭辞。大文字小文字を区別する。
const bearerPrefix = "Bearer "

var (
	// ErrMissingCredential はAuthorizationヘッダーが無い、またはBearer形式でないことを表す。
	ErrMissingCredential = errors.New("missing or invalid authorization")
	// ErrInvalidToken は署名不一致、構造不正、有効期限切れなど検証失敗全般を表す。
	// 呼び出し側に失敗理由を区別させないため、原因はラップして保持するだけにする。
	ErrInvalidToken = errors.New("invalid token")
)

// hmacMethods は受け付ける署名アルゴリズム。共有鍵方式（HMAC）のみ許可する。
var hmacMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// Claims は検証済みトークンのペイロードを表す。
// 署名検証に成功した場合にのみ生成される。
type Claims struct {
	jwt.RegisteredClaims
	// WorkspaceID はワークスペース（テナント）の識別子。存在しない場合は空文字列。
	WorkspaceID string `json:"workspace_id"`
}

// UserID はsubクレームを返す。存在しない場合は空文字列。
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenValidator はBearerトークンを共有鍵で検証する。
// 状態を持たないため、複数のゴルーチンから同時に使用できる。
type TokenValidator struct {
	// secret はHMAC署名の検証に使うUTF-8エンコード済みの秘密鍵。
	secret []byte
	// parser はアルゴリズム制限付きのJWTパーサー。
	parser *jwt.Parser
}

// NewTokenValidator は秘密鍵からTokenValidatorを生成する。
func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods(hmacMethods)),
	}
}

// Validate はAuthorizationヘッダーの値を検証し、クレームを返す。
//
// ヘッダーが空、または "Bearer " で始まらない場合は ErrMissingCredential を返す。
// 署名・構造・有効期限のいずれかの検証に失敗した場合は ErrInvalidToken をラップしたエラーを返す。
func (v *TokenValidator) Validate(authHeader string) (*Claims, error) {
	tokenString, found := strings.CutPrefix(authHeader, bearerPrefix)
	if !found {
		return nil, ErrMissingCredential
	}

	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
