package markethours

import (
	"fmt"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST = time.FixedZone("IST", 5*3600+30*60)

// NSE equity session boundaries in IST.
const (
	OpenHour    = 9
	OpenMinute  = 15
	CloseHour   = 15
	CloseMinute = 30
)

// Phase labels the current market session state.
type Phase string

const (
	PhaseOpen   Phase = "open"
	PhaseClosed Phase = "closed"
)

// Status describes the session as the order-entry surface needs it:
// whether live orders go through now, when that changes next, and
// whether the after-market-order flag is the sensible default.
type Status struct {
	Phase      Phase     `json:"phase"`
	NextOpen   time.Time `json:"next_open"`
	NextClose  time.Time `json:"next_close,omitempty"`
	SuggestAMO bool      `json:"suggest_amo"`
	Label      string    `json:"label"`
}

// IsOpen reports whether t falls within NSE trading hours
// (9:15 AM to 3:30 PM IST, Mon to Fri, excluding holidays).
func IsOpen(t time.Time) bool {
	ist := t.In(IST)
	if !IsTradingDay(ist) {
		return false
	}
	hm := ist.Hour()*60 + ist.Minute()
	return hm >= OpenHour*60+OpenMinute && hm < CloseHour*60+CloseMinute
}

// IsTradingDay reports whether t is a weekday and not an exchange holiday.
func IsTradingDay(t time.Time) bool {
	ist := t.In(IST)
	wd := ist.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !IsHoliday(ist)
}

// NextOpen returns the next session open at or after t.
func NextOpen(t time.Time) time.Time {
	ist := t.In(IST)

	todayOpen := time.Date(ist.Year(), ist.Month(), ist.Day(), OpenHour, OpenMinute, 0, 0, IST)
	if ist.Before(todayOpen) && IsTradingDay(ist) {
		return todayOpen
	}

	d := ist.AddDate(0, 0, 1)
	for i := 0; i < 10; i++ {
		if IsTradingDay(d) {
			return time.Date(d.Year(), d.Month(), d.Day(), OpenHour, OpenMinute, 0, 0, IST)
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(ist.Year(), ist.Month(), ist.Day()+1, OpenHour, OpenMinute, 0, 0, IST)
}

// TodayClose returns t's calendar day session close.
func TodayClose(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), CloseHour, CloseMinute, 0, 0, IST)
}

// Now returns the session Status at t. Outside trading hours the
// after-market-order flag is suggested so orders queue for the next open.
func Now(t time.Time) Status {
	if IsOpen(t) {
		close := TodayClose(t)
		return Status{
			Phase:     PhaseOpen,
			NextOpen:  NextOpen(close),
			NextClose: close,
			Label:     fmt.Sprintf("Market open, closes in %s", fmtDur(close.Sub(t.In(IST)))),
		}
	}
	next := ist(NextOpen(t))
	return Status{
		Phase:      PhaseClosed,
		NextOpen:   next,
		SuggestAMO: true,
		Label: fmt.Sprintf("Market closed, opens %s %s",
			next.Weekday().String()[:3], next.Format("15:04")),
	}
}

func ist(t time.Time) time.Time { return t.In(IST) }

func fmtDur(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
