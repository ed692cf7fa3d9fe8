package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestCurrentWindow_AnchorDayPassed(t *testing.T) {
	createdAt := mustParse(t, "2024-03-15T08:30:00Z")
	now := mustParse(t, "2024-03-20T12:00:00Z")

	w, err := CurrentWindow(createdAt, now)
	require.NoError(t, err)

	assert.Equal(t, mustParse(t, "2024-03-15T08:30:00Z"), w.Start)
	assert.Equal(t, mustParse(t, "2024-04-15T08:30:00Z"), w.End)
}

func TestCurrentWindow_BeforeAnchorDayThisMonth(t *testing.T) {
	// 锚点日还没到，窗口从上个月的锚点日开始
	createdAt := mustParse(t, "2024-03-15T08:30:00Z")
	now := mustParse(t, "2025-03-10T00:00:00Z")

	w, err := CurrentWindow(createdAt, now)
	require.NoError(t, err)

	assert.Equal(t, mustParse(t, "2025-02-15T08:30:00Z"), w.Start)
	assert.Equal(t, mustParse(t, "2025-03-15T08:30:00Z"), w.End)
}

func TestCurrentWindow_EndClampedToShortMonth(t *testing.T) {
	// 锚点 31 日，2 月没有 31 日，终点钳到 2/29（闰年）
	createdAt := mustParse(t, "2024-01-31T10:00:00Z")
	now := mustParse(t, "2024-02-15T00:00:00Z")

	w, err := CurrentWindow(createdAt, now)
	require.NoError(t, err)

	assert.Equal(t, mustParse(t, "2024-01-31T10:00:00Z"), w.Start)
	assert.Equal(t, mustParse(t, "2024-02-29T10:00:00Z"), w.End)
}

func TestCurrentWindow_EndClampedNonLeapYear(t *testing.T) {
	createdAt := mustParse(t, "2023-01-31T10:00:00Z")
	now := mustParse(t, "2023-02-15T00:00:00Z")

	w, err := CurrentWindow(createdAt, now)
	require.NoError(t, err)

	assert.Equal(t, mustParse(t, "2023-02-28T10:00:00Z"), w.End)
}

func TestCurrentWindow_StartClampedButEndBackOnAnchor(t *testing.T) {
	// 起点被钳到 2/29，终点要回到锚点日 3/31，而不是 3/29
	createdAt := mustParse(t, "2024-01-31T10:00:00Z")
	now := mustParse(t, "2024-03-30T00:00:00Z")

	w, err := CurrentWindow(createdAt, now)
	require.NoError(t, err)

	assert.Equal(t, mustParse(t, "2024-02-29T10:00:00Z"), w.Start)
	assert.Equal(t, mustParse(t, "2024-03-31T10:00:00Z"), w.End)
	assert.True(t, w.Contains(now))
}

func TestCurrentWindow_YearRollover(t *testing.T) {
	createdAt := mustParse(t, "2023-12-20T06:00:00Z")
	now := mustParse(t, "2024-01-05T00:00:00Z")

	w, err := CurrentWindow(createdAt, now)
	require.NoError(t, err)

	assert.Equal(t, mustParse(t, "2023-12-20T06:00:00Z"), w.Start)
	assert.Equal(t, mustParse(t, "2024-01-20T06:00:00Z"), w.End)
}

func TestCurrentWindow_NowExactlyAtBoundary(t *testing.T) {
	// now 恰好等于上一窗口的终点：属于新窗口（左闭右开）
	createdAt := mustParse(t, "2024-01-15T10:00:00Z")
	now := mustParse(t, "2024-02-15T10:00:00Z")

	w, err := CurrentWindow(createdAt, now)
	require.NoError(t, err)

	assert.Equal(t, mustParse(t, "2024-02-15T10:00:00Z"), w.Start)
	assert.Equal(t, mustParse(t, "2024-03-15T10:00:00Z"), w.End)
}

func TestCurrentWindow_CreatedJustNow(t *testing.T) {
	createdAt := mustParse(t, "2024-06-10T09:00:00Z")

	w, err := CurrentWindow(createdAt, createdAt)
	require.NoError(t, err)

	assert.Equal(t, createdAt, w.Start)
	assert.True(t, w.Contains(createdAt))
}

func TestCurrentWindow_InvalidInput(t *testing.T) {
	now := mustParse(t, "2024-06-10T09:00:00Z")

	_, err := CurrentWindow(time.Time{}, now)
	assert.ErrorIs(t, err, ErrInvalidAnchor)

	_, err = CurrentWindow(now, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidAnchor)

	// 创建时间在未来
	_, err = CurrentWindow(now.Add(time.Hour), now)
	assert.ErrorIs(t, err, ErrInvalidAnchor)
}

func TestCurrentWindow_Idempotent(t *testing.T) {
	createdAt := mustParse(t, "2024-01-31T10:00:00Z")
	now := mustParse(t, "2024-02-15T00:00:00Z")

	w1, err := CurrentWindow(createdAt, now)
	require.NoError(t, err)
	w2, err := CurrentWindow(createdAt, now)
	require.NoError(t, err)

	assert.True(t, w1.Start.Equal(w2.Start))
	assert.True(t, w1.End.Equal(w2.End))
}

func TestCurrentWindow_NonUTCInput(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	createdAt := time.Date(2024, 3, 15, 16, 30, 0, 0, loc) // 08:30 UTC
	now := mustParse(t, "2024-03-20T12:00:00Z")

	w, err := CurrentWindow(createdAt, now)
	require.NoError(t, err)

	assert.Equal(t, mustParse(t, "2024-03-15T08:30:00Z"), w.Start)
}

// 遍历一批创建时间和查询时刻，验证窗口不变式 start <= now < end
func TestCurrentWindow_InvariantSweep(t *testing.T) {
	anchors := []string{
		"2023-01-01T00:00:00Z",
		"2023-01-31T23:59:59Z",
		"2023-02-28T12:00:00Z",
		"2024-02-29T12:00:00Z", // 闰日锚点
		"2023-04-30T06:00:00Z",
		"2023-12-31T18:45:30Z",
	}

	for _, anchor := range anchors {
		createdAt := mustParse(t, anchor)
		// 创建后两年内每 17 小时取一个查询时刻
		for now := createdAt; now.Before(createdAt.AddDate(2, 0, 0)); now = now.Add(17 * time.Hour) {
			w, err := CurrentWindow(createdAt, now)
			require.NoError(t, err)

			assert.False(t, w.Start.After(now),
				"start %v after now %v (anchor %s)", w.Start, now, anchor)
			assert.True(t, now.Before(w.End),
				"now %v not before end %v (anchor %s)", now, w.End, anchor)
			assert.True(t, w.Start.Before(w.End))

			// 窗口跨度不超过一个自然月（31 天），不少于 28 天
			span := w.End.Sub(w.Start)
			assert.LessOrEqual(t, span, 31*24*time.Hour, "anchor %s now %v", anchor, now)
			assert.GreaterOrEqual(t, span, 28*24*time.Hour, "anchor %s now %v", anchor, now)
		}
	}
}

func TestWindow_PeriodKey(t *testing.T) {
	createdAt := mustParse(t, "2024-01-31T10:00:00Z")
	now := mustParse(t, "2024-02-15T00:00:00Z")

	w, err := CurrentWindow(createdAt, now)
	require.NoError(t, err)

	// 同一窗口内不同时刻的 key 一致
	assert.Equal(t, "2024-01-31", w.PeriodKey())

	w2, err := CurrentWindow(createdAt, mustParse(t, "2024-02-28T00:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, w.PeriodKey(), w2.PeriodKey())
}

func TestWindow_Contains(t *testing.T) {
	w := Window{
		Start: mustParse(t, "2024-01-15T10:00:00Z"),
		End:   mustParse(t, "2024-02-15T10:00:00Z"),
	}

	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(mustParse(t, "2024-02-01T00:00:00Z")))
	// 终点本身属于下一个窗口
	assert.False(t, w.Contains(w.End))
	assert.False(t, w.Contains(w.Start.Add(-time.Nanosecond)))
}
