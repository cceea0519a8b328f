package commands

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// dayTemplate holds date elements available in shell command, like {{.YYYYMMDD}}.
// W-prefixed elements use the last business day, weekends skipped.
type dayTemplate struct {
	YYYYMMDD string
	YYYY     string
	YYYYMM   string
	YYMMDD   string
	ISODATE  string
	MM       string
	DD       string
	YY       string

	WYYYYMMDD string
	WYYYY     string
	WYYYYMM   string
	WYYMMDD   string
	WISODATE  string
	WMM       string
	WDD       string
	WYY       string

	UNIX     int64
	UNIXMSEC int64
}

func newDayTemplate(ts time.Time, tz *time.Location) dayTemplate {
	yy, mm, dd := ts.In(tz).Date()
	day := time.Date(yy, mm, dd, 0, 0, 0, 0, tz)
	wday := day
	for wday.Weekday() == time.Saturday || wday.Weekday() == time.Sunday {
		wday = wday.AddDate(0, 0, -1)
	}

	return dayTemplate{
		YYYYMMDD: day.Format("20060102"),
		YYYY:     day.Format("2006"),
		YYYYMM:   day.Format("200601"),
		YYMMDD:   day.Format("060102"),
		ISODATE:  day.Format("2006-01-02T00:00:00.000Z"),
		MM:       day.Format("01"),
		DD:       day.Format("02"),
		YY:       day.Format("06"),

		WYYYYMMDD: wday.Format("20060102"),
		WYYYY:     wday.Format("2006"),
		WYYYYMM:   wday.Format("200601"),
		WYYMMDD:   wday.Format("060102"),
		WISODATE:  wday.Format("2006-01-02T00:00:00.000Z"),
		WMM:       wday.Format("01"),
		WDD:       wday.Format("02"),
		WYY:       wday.Format("06"),

		UNIX:     ts.Unix(),
		UNIXMSEC: ts.UnixMilli(),
	}
}

// expandDays replaces date templates in command with values for ts. Commands without "{{" returned as is.
func expandDays(command string, ts time.Time, tz *time.Location) (string, error) {
	if !strings.Contains(command, "{{") {
		return command, nil
	}
	if tz == nil {
		tz = time.Local
	}
	tmpl, err := template.New("cmd").Parse(command)
	if err != nil {
		return "", fmt.Errorf("bad template in %q: %w", command, err)
	}
	buf := bytes.Buffer{}
	if err := tmpl.Execute(&buf, newDayTemplate(ts, tz)); err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", command, err)
	}
	return buf.String(), nil
}
