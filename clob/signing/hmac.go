package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/betcli/gotrade/clob/types"
)

// BuildPolyHmacSignature 构建 L2 认证的 HMAC-SHA256 签名。
// 消息为 timestamp + method + requestPath + body 拼接，
// secret 按 base64url 解码，签名输出为 base64url（保留 = 填充）。
func BuildPolyHmacSignature(
	secret string,
	timestamp int64,
	method string,
	requestPath string,
	body *string,
) (string, error) {
	message := strconv.FormatInt(timestamp, 10) + method + requestPath
	if body != nil {
		message += *body
	}

	keyData, err := base64.URLEncoding.DecodeString(secret)
	if err != nil {
		// 兼容标准 base64 编码的 secret
		keyData, err = base64.StdEncoding.DecodeString(secret)
		if err != nil {
			return "", types.ErrMissingCredentials.WithField("secret").WithCause(err)
		}
	}

	mac := hmac.New(sha256.New, keyData)
	mac.Write([]byte(message))
	digest := mac.Sum(nil)

	sigBase64 := base64.StdEncoding.EncodeToString(digest)

	// 转换为 URL 安全的 base64（保留 = 后缀）
	sigURLSafe := strings.ReplaceAll(sigBase64, "+", "-")
	sigURLSafe = strings.ReplaceAll(sigURLSafe, "/", "_")

	return sigURLSafe, nil
}
