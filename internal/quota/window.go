package quota

import (
	"errors"
	"time"
)

var ErrInvalidAnchor = errors.New("账号创建时间缺失或晚于当前时间")

// Window 当前配额窗口，左闭右开 [Start, End)。
// 每次查询现算，不落库。
type Window struct {
	Start time.Time
	End   time.Time
}

// PeriodKey 窗口的稳定标识（窗口起点的 UTC 日期），日志和聚合键用
func (w Window) PeriodKey() string {
	return w.Start.UTC().Format("2006-01-02")
}

// Contains 判断时刻是否落在窗口内（End 本身属于下一个窗口）
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// CurrentWindow 由账号创建时间和当前时间推出本期配额窗口。
//
// 锚点日取创建日期的“日”，两侧边界都沿用创建时刻的时分秒（精确时刻，
// 不做 end-of-day 钳制）。目标月没有锚点日时钳制到该月最后一天，
// 如锚点 31 日：1/31 -> 2/29 -> 3/31。
// 纯函数，无副作用，可并发调用。
func CurrentWindow(createdAt, now time.Time) (Window, error) {
	if createdAt.IsZero() || now.IsZero() || createdAt.After(now) {
		return Window{}, ErrInvalidAnchor
	}

	createdAt = createdAt.UTC()
	now = now.UTC()

	anchorDay := createdAt.Day()

	// 本月的锚点日还没到就回退一个月
	startYear, startMonth := now.Year(), now.Month()
	start := anchorDate(startYear, startMonth, anchorDay, createdAt)
	if start.After(now) {
		startYear, startMonth = prevMonth(startYear, startMonth)
		start = anchorDate(startYear, startMonth, anchorDay, createdAt)
	}

	// 终点从锚点日推，不从（可能被钳制过的）起点日推，
	// 否则锚点 31 日在 2 月会把终点算到 3/29，3/30 的查询就落在窗口外了
	endYear, endMonth := nextMonth(startYear, startMonth)
	end := anchorDate(endYear, endMonth, anchorDay, createdAt)

	return Window{Start: start, End: end}, nil
}

// anchorDate 指定年月的锚点日时刻，锚点日超出月长时钳到月末
func anchorDate(year int, month time.Month, day int, clock time.Time) time.Time {
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day,
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), time.UTC)
}

func lastDayOfMonth(year int, month time.Month) int {
	// 下月第 0 天即本月最后一天
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func prevMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}
