// 包 cachebust 为 opengraph 图片代理地址替换哈希段：
// - 代理按哈希段缓存截图，每次渲染换一个新哈希即可强制回源
// - 只做结构匹配（前缀/哈希/后缀三段），不校验哈希本身
package cachebust

import (
	"encoding/binary"
	"encoding/hex"
	"regexp"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// TokenLen 为替换后哈希段的长度（小写十六进制）。
const TokenLen = 8

var proxyURL = regexp.MustCompile(`^(https://opengraph\.[^/]+/)([^/]+)(/.*)$`)

// Rewriter 持有时间源与随机源，便于测试注入。
type Rewriter struct {
	Now     func() time.Time
	Entropy func() [16]byte
}

// New 返回使用系统时钟与 uuid v4 随机数的 Rewriter。
func New() *Rewriter {
	return &Rewriter{Now: time.Now, Entropy: func() [16]byte { return uuid.New() }}
}

var std = New()

// Rewrite 使用默认 Rewriter 改写 URL，不匹配时原样返回。
func Rewrite(raw string) string { return std.Rewrite(raw) }

// RewriteValue 供模板调用：非字符串输入（含 nil）原样透传。
func RewriteValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return std.Rewrite(s)
}

// Match 判断 URL 是否为可改写的代理地址。
func Match(raw string) bool { return proxyURL.MatchString(raw) }

// Rewrite 替换哈希段，前缀与后缀逐字节保留。
func (r *Rewriter) Rewrite(raw string) string {
	m := proxyURL.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	return m[1] + r.Token() + m[3]
}

// Token 生成新的缓存破坏令牌：时间戳与随机值拼接后摘要，取前 8 位。
func (r *Rewriter) Token() string {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	entropy := func() [16]byte { return uuid.New() }
	if r.Entropy != nil {
		entropy = r.Entropy
	}
	var buf [8 + 16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(now().UnixNano()))
	e := entropy()
	copy(buf[8:], e[:])
	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], xxhash.Sum64(buf[:]))
	return hex.EncodeToString(sum[:])[:TokenLen]
}
