package dateparse

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// ErrInvalidTimeRange 日历输入无法解析为时间
var ErrInvalidTimeRange = errors.New("invalid start or end date format")

// 表单 date / datetime-local 输入与 RFC3339 都按 UTC 解析
var parser = &now.Config{
	WeekStartDay: time.Monday,
	TimeLocation: time.UTC,
	TimeFormats: []string{
		"2006-01-02",
		"2006-01-02T15:04",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
	},
}

// Parse 解析单个日历输入；空串或无法识别的格式返回 ErrInvalidTimeRange
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTimeRange)
	}
	t, err := parser.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
	}
	return t, nil
}

// Window 解析起止时间
func Window(start, end string) (time.Time, time.Time, error) {
	st, err := Parse(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	et, err := Parse(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return st, et, nil
}

// UnixWindow 解析为链上使用的 Unix 秒
func UnixWindow(start, end string) (int64, int64, error) {
	st, et, err := Window(start, end)
	if err != nil {
		return 0, 0, err
	}
	return st.Unix(), et.Unix(), nil
}
