package attendance

import (
	"math"
	"sort"
	"time"
)

// Stats is the roll-up of attendance records over a date range.
type Stats struct {
	TotalDays            int     `json:"total_days"`
	Present              int     `json:"present"`
	Absent               int     `json:"absent"`
	Late                 int     `json:"late"`
	Excused              int     `json:"excused"`
	AttendancePercentage float64 `json:"attendance_percentage"`
	CurrentStreak        int     `json:"current_streak"`
	LongestStreak        int     `json:"longest_streak"`
}

type recordKey struct {
	studentID string
	day       time.Time
}

// ComputeStats rolls records up. Records repeating a (student, day) pair count once, the last one wins.
//
// TotalDays is the number of distinct days. The percentage is (present + late) over the counted
// records, rounded to one decimal, and 0 when there is nothing to count.
// Streaks run over consecutive recorded days on which every record counts as present;
// an absence breaks a streak, an excused day neither breaks nor extends it.
func ComputeStats(records []Record) Stats {
	var st Stats
	if len(records) == 0 {
		return st
	}

	latest := make(map[recordKey]Record, len(records))
	for _, r := range records {
		latest[recordKey{studentID: r.StudentID, day: Day(r.Date)}] = r
	}

	type dayTally struct{ present, absent int }
	days := make(map[time.Time]*dayTally)
	var attended int
	for k, r := range latest {
		tally, ok := days[k.day]
		if !ok {
			tally = new(dayTally)
			days[k.day] = tally
		}
		switch r.Status {
		case StatusPresent:
			st.Present++
		case StatusLate:
			st.Late++
		case StatusAbsent:
			st.Absent++
			tally.absent++
		case StatusExcused:
			st.Excused++
		}
		if r.Status.CountsAsPresent() {
			attended++
			tally.present++
		}
	}

	st.TotalDays = len(days)
	counted := st.Present + st.Absent + st.Late + st.Excused
	if counted > 0 {
		pct := float64(attended) / float64(counted) * 100
		st.AttendancePercentage = math.Round(pct*10) / 10
	}

	ordered := make([]time.Time, 0, len(days))
	for d := range days {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	var run int
	for _, d := range ordered {
		tally := days[d]
		switch {
		case tally.absent > 0:
			run = 0
		case tally.present > 0:
			run++
			if run > st.LongestStreak {
				st.LongestStreak = run
			}
		}
	}
	st.CurrentStreak = run
	return st
}
