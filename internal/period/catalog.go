package period

// Holidays lists the holiday categories in the compiled holiday table.
var Holidays = []string{
	"new_year", "mar_lut_king_jr", "valentine", "president",
	"good_friday", "memorial", "independence", "labour",
	"event_911", "columbus", "veteran", "thanksgiving", "christmas",
}

// TWWPeriods lists the quarterly turn-of-the-week periods. Each has a
// "_week_aft" companion in the compiled TWW table.
var TWWPeriods = []string{"tww_q1", "tww_q2", "tww_q3", "tww_q4"}

// IsHoliday reports whether name is a known holiday category.
func IsHoliday(name string) bool {
	return contains(Holidays, name)
}

// IsTWWPeriod reports whether name is a known TWW period.
func IsTWWPeriod(name string) bool {
	return contains(TWWPeriods, name)
}

// IsSpecialPeriod reports whether f is a special-period family.
func IsSpecialPeriod(f Family) bool {
	for _, s := range SpecialPeriods {
		if s == f {
			return true
		}
	}
	return false
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
