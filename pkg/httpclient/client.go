package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Client はバックエンドサービスへリクエストを転送するHTTPクライアント。
//
// リダイレクトは追跡せず、レスポンスの自動展開も行わない。
// バックエンドの応答を加工せずに呼び出し元へ返すためである。
// タイムアウトとリトライは持たない。打ち切りは呼び出し元のコンテキストに従う。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は転送先バックエンドのベースURL。
	baseURL string
}

// Option はClientの設定を変更する関数。
type Option func(*Client)

// WithTransport は内部で使用するRoundTripperを差し替える。
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// New は新しい転送用HTTPクライアントを生成する。
// baseURLには転送先のベースURL（例: "https://api.internal"）を指定する。
func New(baseURL string, opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableCompression = true

	c := &Client{
		httpClient: &http.Client{
			Transport: transport,
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL は転送先のベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Forward はベースURLにpathAndQueryを連結したURLへリクエストを送信する。
//
// pathAndQueryは正規化も再エンコードもせずにそのまま連結する。
// bodyはバッファリングせずにストリームとして送信する。contentLengthが負の場合は長さ不明として
// チャンク転送になる。返されたレスポンスのBodyは呼び出し側が閉じる必要がある。
func (c *Client) Forward(ctx context.Context, method, pathAndQuery string, header http.Header, body io.Reader, contentLength int64) (*http.Response, error) {
	url := c.baseURL + pathAndQuery
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("転送リクエストの作成に失敗: %w", err)
	}
	if header != nil {
		req.Header = header
	}
	if body != nil && body != http.NoBody {
		req.ContentLength = contentLength
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("バックエンドへの送信に失敗: %w", err)
	}
	return resp, nil
}

// CopyFlush はsrcの内容を読み取った単位でdstに書き込み、書き込みごとにフラッシュする。
// dstが http.Flusher を実装していない場合は通常のコピーと同じ動作になる。
// ボディ全体をメモリに保持しないため、サイズに上限のないストリームにも使える。
func CopyFlush(dst io.Writer, src io.Reader) (int64, error) {
	flusher, _ := dst.(http.Flusher)
	buf := make([]byte, 32*1024)

	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			m, werr := dst.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, fmt.Errorf("レスポンスの書き込みに失敗: %w", werr)
			}
			if m != n {
				return written, io.ErrShortWrite
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if errors.Is(rerr, io.EOF) {
			return written, nil
		}
		if rerr != nil {
			return written, fmt.Errorf("バックエンドからの読み取りに失敗: %w", rerr)
		}
	}
}
