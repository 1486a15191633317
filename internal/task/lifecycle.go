package task

// NextStatus returns the status after s and false when s is the last one.
func NextStatus(s Status) (Status, bool) {
	i := statusIndex(s)
	if i < 0 || i == len(Statuses)-1 {
		return s, false
	}
	return Statuses[i+1], true
}

// PrevStatus returns the status before s and false when s is the first one.
func PrevStatus(s Status) (Status, bool) {
	i := statusIndex(s)
	if i <= 0 {
		return s, false
	}
	return Statuses[i-1], true
}

// StatusIndex returns the board position of s, or -1.
func StatusIndex(s Status) int { return statusIndex(s) }

func statusIndex(s Status) int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}
