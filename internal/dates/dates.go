// 包 dates 负责 front matter 日期的归一化：
// - 输入可能是 YYYY-MM-DD 字符串、time.Time、Unix 毫秒或缺失值
// - 解析失败时返回确定的兜底字符串，从不 panic
package dates

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Mode 为输出格式。
type Mode string

const (
	ISO     Mode = "iso"
	Display Mode = "display"
)

const (
	// EpochISO 为 iso 模式下非字符串输入解析失败的兜底值。
	EpochISO = "1970-01-01"
	// InvalidDate 为 display 模式解析失败的兜底值。
	InvalidDate = "Invalid Date"

	// maxMillis 为可表示日期的毫秒上限（±100,000,000 天）
	maxMillis = 8.64e15

	isoLayout     = "2006-01-02"
	displayLayout = "2 January 2006" // en-AU 长格式
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseMode 将模板传入的格式名解析为 Mode：仅精确的 "iso" 为 ISO，其余按 display 处理。
func ParseMode(s string) Mode {
	if s == string(ISO) {
		return ISO
	}
	return Display
}

// Normalize 按模式把日期渲染为字符串。
// iso：已是 YYYY-MM-DD 的字符串原样返回（不重新解析、不做时区换算）。
func Normalize(v any, mode Mode) string {
	if mode == ISO {
		s, isString := v.(string)
		if isString && isoDate.MatchString(s) {
			return s
		}
		t, ok := Parse(v)
		if !ok {
			if isString {
				return s
			}
			return EpochISO
		}
		return t.Format(isoLayout)
	}
	t, ok := Parse(v)
	if !ok {
		return InvalidDate
	}
	return t.Format(displayLayout)
}

// Parse 尝试将任意值解释为日历日期，结果统一为 UTC。
// 数值按 Unix 毫秒处理，超出 ±8.64e15 视为无效；nil、空字符串与无法识别的类型返回 false。
func Parse(v any) (time.Time, bool) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return d.UTC(), true
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return d.UTC(), true
	case string:
		return parseString(d)
	case int:
		return fromMillis(int64(d))
	case int32:
		return fromMillis(int64(d))
	case int64:
		return fromMillis(d)
	case uint:
		return fromFloat(float64(d))
	case uint32:
		return fromMillis(int64(d))
	case uint64:
		return fromFloat(float64(d))
	case float32:
		return fromFloat(float64(d))
	case float64:
		return fromFloat(d)
	}
	return time.Time{}, false
}

func parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	// 常见格式先走标准解析，其余交给 dateparse 宽松识别
	if t, err := time.Parse(isoLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func fromMillis(ms int64) (time.Time, bool) {
	if ms > maxMillis || ms < -maxMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

func fromFloat(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > maxMillis {
		return time.Time{}, false
	}
	return fromMillis(int64(f))
}
