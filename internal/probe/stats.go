package probe

// Summarize computes min, max and mean of the given durations.
func Summarize(durations []int64) (Summary, error) {
	if len(durations) == 0 {
		return Summary{}, &EmptyInputError{}
	}
	s := Summary{MinMS: durations[0], MaxMS: durations[0], Attempts: len(durations)}
	var total int64
	for _, d := range durations {
		if d < s.MinMS {
			s.MinMS = d
		}
		if d > s.MaxMS {
			s.MaxMS = d
		}
		total += d
	}
	s.AvgMS = float64(total) / float64(len(durations))
	return s, nil
}
