package normalize

import "time"

// Age returns the age in whole years on the reference date, or ok=false if
// dob is missing, malformed or after ref.
func Age(dob string, ref time.Time) (int, bool) {
	born, err := ParseDOB(dob)
	if err != nil {
		return 0, false
	}
	age := ref.Year() - born.Year()
	if ref.Month() < born.Month() || (ref.Month() == born.Month() && ref.Day() < born.Day()) {
		age--
	}
	if age < 0 {
		return 0, false
	}
	return age, true
}
