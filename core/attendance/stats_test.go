package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func rec(student string, d int, st Status) Record {
	return Record{StudentID: student, Date: day(d), Status: st}
}

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    Stats
	}{
		{"empty", nil, Stats{}},
		{
			name: "late counts as present",
			records: []Record{
				rec("s-1", 2, StatusPresent),
				rec("s-1", 3, StatusLate),
				rec("s-1", 4, StatusAbsent),
				rec("s-1", 5, StatusExcused),
			},
			want: Stats{
				TotalDays: 4, Present: 1, Late: 1, Absent: 1, Excused: 1,
				AttendancePercentage: 50, CurrentStreak: 0, LongestStreak: 2,
			},
		},
		{
			name: "rounded to one decimal",
			records: []Record{
				rec("s-1", 2, StatusPresent),
				rec("s-1", 3, StatusPresent),
				rec("s-1", 4, StatusAbsent),
			},
			want: Stats{
				TotalDays: 3, Present: 2, Absent: 1,
				AttendancePercentage: 66.7, CurrentStreak: 0, LongestStreak: 2,
			},
		},
		{
			name: "remarked day counts once, last wins",
			records: []Record{
				rec("s-1", 2, StatusAbsent),
				rec("s-1", 2, StatusPresent),
			},
			want: Stats{TotalDays: 1, Present: 1, AttendancePercentage: 100, CurrentStreak: 1, LongestStreak: 1},
		},
		{
			name: "excused neither breaks nor extends",
			records: []Record{
				rec("s-1", 2, StatusPresent),
				rec("s-1", 3, StatusExcused),
				rec("s-1", 4, StatusPresent),
			},
			want: Stats{
				TotalDays: 3, Present: 2, Excused: 1,
				AttendancePercentage: 66.7, CurrentStreak: 2, LongestStreak: 2,
			},
		},
		{
			name: "several students on one day",
			records: []Record{
				rec("s-1", 2, StatusPresent),
				rec("s-2", 2, StatusAbsent),
				rec("s-1", 3, StatusPresent),
				rec("s-2", 3, StatusPresent),
			},
			want: Stats{
				TotalDays: 2, Present: 3, Absent: 1,
				AttendancePercentage: 75, CurrentStreak: 1, LongestStreak: 1,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStats(tt.records))
		})
	}
}

func TestStatus_CountsAsPresent(t *testing.T) {
	assert.True(t, StatusPresent.CountsAsPresent())
	assert.True(t, StatusLate.CountsAsPresent())
	assert.False(t, StatusAbsent.CountsAsPresent())
	assert.False(t, StatusExcused.CountsAsPresent())
}

func TestComputeStats_OrderIndependent(t *testing.T) {
	records := []Record{
		rec("s-1", 9, StatusPresent),
		rec("s-1", 2, StatusAbsent),
		rec("s-1", 5, StatusPresent),
		rec("s-1", 7, StatusLate),
	}
	st := ComputeStats(records)
	assert.Equal(t, 3, st.CurrentStreak)
	assert.Equal(t, 3, st.LongestStreak)
	assert.Equal(t, 75.0, st.AttendancePercentage)
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	got := Day(time.Date(2026, 3, 2, 1, 30, 0, 0, loc))
	assert.True(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Equal(got))

	parsed, err := ParseDay("2026-03-02")
	assert.NoError(t, err)
	assert.True(t, day(2).Equal(parsed))

	_, err = ParseDay("02/03/2026")
	assert.Error(t, err)
}
