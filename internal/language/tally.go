package language

// Tally counts files per language.
type Tally [numLanguages]int

// Add counts name if its extension belongs to a recognised language and
// reports whether it did.
func (t *Tally) Add(name string) bool {
	l, ok := ForFile(name)
	if !ok {
		return false
	}
	t[l]++
	return true
}

// Total returns the number of counted files.
func (t Tally) Total() int {
	total := 0
	for _, l := range All {
		total += t[l]
	}
	return total
}

// Dominant applies the dominance rule: the language with the highest count
// wins if that count is at least twice the count of the runner-up. Otherwise,
// or without any samples, the result is Unknown. On equal counts the language
// listed first in All leads, which never matters since a tie is never
// dominant.
func (t Tally) Dominant() Language {
	leader, first, second := Unknown, 0, 0
	for _, l := range All {
		n := t[l]
		switch {
		case n > first:
			leader, first, second = l, n, first
		case n > second:
			second = n
		}
	}

	if first == 0 || first < 2*second {
		return Unknown
	}
	return leader
}
