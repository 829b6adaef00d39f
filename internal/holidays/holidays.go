// Package holidays вычисляет норвежские государственные праздники (helligdager),
// включая переходящие праздники, привязанные к Пасхе.
package holidays

import (
	"sort"
	"time"
)

// Date представляет календарную дату без времени суток.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf возвращает календарную дату момента t в его собственной временной зоне.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// AddDays сдвигает дату на n дней с учётом длины месяцев.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// Weekday возвращает день недели даты.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

func (d Date) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

// MarshalJSON кодирует дату в формате YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d Date) before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// Set — неупорядоченное множество праздничных дат.
type Set map[Date]struct{}

// Contains сообщает, приходится ли момент t на праздник. Время суток игнорируется.
func (s Set) Contains(t time.Time) bool {
	_, ok := s[DateOf(t)]
	return ok
}

// Dates возвращает даты множества в порядке возрастания.
func (s Set) Dates() []Date {
	dates := make([]Date, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].before(dates[j]) })
	return dates
}

// Holiday — праздник с норвежским названием.
type Holiday struct {
	Date Date   `json:"date"`
	Name string `json:"name"`
}

// EasterSunday вычисляет дату пасхального воскресенья по анонимному григорианскому алгоритму.
func EasterSunday(year int) Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1

	return Date{Year: year, Month: time.Month(month), Day: day}
}

type fixedHoliday struct {
	month time.Month
	day   int
	name  string
}

type easterHoliday struct {
	offset int
	name   string
}

var fixedHolidays = []fixedHoliday{
	{time.January, 1, "Nyttårsdag"},
	{time.May, 1, "Arbeidernes dag"},
	{time.May, 17, "Grunnlovsdag"},
	{time.December, 25, "1. juledag"},
	{time.December, 26, "2. juledag"},
}

var easterHolidays = []easterHoliday{
	{-3, "Skjærtorsdag"},
	{-2, "Langfredag"},
	{0, "Påskedag"},
	{1, "2. påskedag"},
	{39, "Kristi himmelfartsdag"},
	{49, "Pinsedag"},
	{50, "2. pinsedag"},
}

// Named возвращает все 12 праздников года с названиями, отсортированные по дате.
func Named(year int) []Holiday {
	result := make([]Holiday, 0, len(fixedHolidays)+len(easterHolidays))
	for _, h := range fixedHolidays {
		result = append(result, Holiday{Date: Date{Year: year, Month: h.month, Day: h.day}, Name: h.name})
	}

	easter := EasterSunday(year)
	for _, h := range easterHolidays {
		result = append(result, Holiday{Date: easter.AddDays(h.offset), Name: h.name})
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].Date.before(result[j].Date) })
	return result
}

// ForYear возвращает множество праздничных дат одного года.
func ForYear(year int) Set {
	set := make(Set, len(fixedHolidays)+len(easterHolidays))
	for _, h := range Named(year) {
		set[h.Date] = struct{}{}
	}
	return set
}

// Norwegian объединяет праздники за годы [referenceYear-1, referenceYear+2].
func Norwegian(referenceYear int) Set {
	set := make(Set, 4*(len(fixedHolidays)+len(easterHolidays)))
	for year := referenceYear - 1; year <= referenceYear+2; year++ {
		for d := range ForYear(year) {
			set[d] = struct{}{}
		}
	}
	return set
}

// IsHoliday сообщает, совпадает ли дата момента t с одной из дат множества.
func IsHoliday(t time.Time, set Set) bool {
	return set.Contains(t)
}
