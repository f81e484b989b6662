package analytics

import (
	"sort"
	"time"

	"gratitude-journal/internal/domain"
)

const secondsPerDay = 24 * 60 * 60

// dayNumber переводит дату записи в номер календарного дня.
func dayNumber(t time.Time) int64 {
	return domain.CalendarDay(t).Unix() / secondsPerDay
}

// distinctDays возвращает уникальные дни записей по убыванию.
func distinctDays(entries []domain.JournalEntry) []int64 {
	seen := make(map[int64]struct{}, len(entries))
	days := make([]int64, 0, len(entries))
	for _, e := range entries {
		n := dayNumber(e.Date)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		days = append(days, n)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] > days[j] })
	return days
}

// CurrentStreak считает подряд идущие дни с записями, заканчивающиеся сегодня или вчера.
// Несколько записей за один день считаются одним днём.
func CurrentStreak(entries []domain.JournalEntry, now time.Time) int {
	days := distinctDays(entries)
	if len(days) == 0 {
		return 0
	}
	if dayNumber(now)-days[0] > 1 {
		return 0
	}
	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i-1]-days[i] != 1 {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak находит самую длинную серию дней за всю историю.
func LongestStreak(entries []domain.JournalEntry) int {
	days := distinctDays(entries)
	if len(days) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1]-days[i] == 1 {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 1
	}
	return longest
}

// DaysLogged количество разных календарных дней с записями.
func DaysLogged(entries []domain.JournalEntry) int {
	return len(distinctDays(entries))
}

// HasEntryOn проверяет, есть ли запись за календарный день day.
func HasEntryOn(entries []domain.JournalEntry, day time.Time) bool {
	target := dayNumber(day)
	for _, e := range entries {
		if dayNumber(e.Date) == target {
			return true
		}
	}
	return false
}

// LoggedDaysInMonth возвращает числа месяца, за которые есть записи, по возрастанию.
func LoggedDaysInMonth(entries []domain.JournalEntry, month time.Time) []int {
	y, m, _ := month.Date()
	seen := make(map[int]struct{})
	var out []int
	for _, e := range entries {
		ey, em, ed := e.Date.Date()
		if ey != y || em != m {
			continue
		}
		if _, ok := seen[ed]; ok {
			continue
		}
		seen[ed] = struct{}{}
		out = append(out, ed)
	}
	sort.Ints(out)
	return out
}
