package outcome

// Tables are listed edge to centre and mirrored.
var plinkoTables = map[Risk]map[int][]float64{
	RiskLow: {
		8:  mirror(8, 5.6, 2.1, 1.1, 1, 0.5),
		9:  mirror(9, 5.6, 2, 1.6, 1, 0.7),
		10: mirror(10, 8.9, 3, 1.4, 1.1, 1, 0.5),
		11: mirror(11, 8.4, 3, 1.9, 1.3, 1, 0.7),
		12: mirror(12, 10, 3, 1.6, 1.4, 1.1, 1, 0.5),
		13: mirror(13, 8.1, 4, 3, 1.9, 1.2, 0.9, 0.7),
		14: mirror(14, 7.1, 4, 1.9, 1.4, 1.3, 1.1, 1, 0.5),
		15: mirror(15, 15, 8, 3, 2, 1.5, 1.1, 1, 0.7),
		16: mirror(16, 16, 9, 2, 1.4, 1.4, 1.2, 1.1, 1, 0.5),
	},
	RiskMedium: {
		8:  mirror(8, 13, 3, 1.3, 0.7, 0.4),
		9:  mirror(9, 18, 4, 1.7, 0.9, 0.5),
		10: mirror(10, 22, 5, 2, 1.4, 0.6, 0.4),
		11: mirror(11, 24, 6, 3, 1.8, 0.7, 0.5),
		12: mirror(12, 33, 11, 4, 2, 1.1, 0.6, 0.3),
		13: mirror(13, 43, 13, 6, 3, 1.3, 0.7, 0.4),
		14: mirror(14, 58, 15, 7, 4, 1.9, 1, 0.5, 0.2),
		15: mirror(15, 88, 18, 11, 5, 3, 1.3, 0.5, 0.3),
		16: mirror(16, 110, 41, 10, 5, 3, 1.5, 1, 0.5, 0.3),
	},
	RiskHigh: {
		8:  mirror(8, 29, 4, 1.5, 0.3, 0.2),
		9:  mirror(9, 43, 7, 2, 0.6, 0.2),
		10: mirror(10, 76, 10, 3, 0.9, 0.3, 0.2),
		11: mirror(11, 120, 14, 5.2, 1.4, 0.4, 0.2),
		12: mirror(12, 170, 24, 8.1, 2, 0.7, 0.2, 0.2),
		13: mirror(13, 260, 37, 11, 4, 1, 0.2, 0.2),
		14: mirror(14, 420, 56, 18, 5, 1.9, 0.3, 0.2, 0.2),
		15: mirror(15, 620, 83, 27, 8, 3, 0.5, 0.2, 0.2),
		16: mirror(16, 1000, 130, 26, 9, 4, 2, 0.2, 0.2, 0.2),
	},
}

// mirror expands one half of a table into rows+1 buckets. For even rows the
// last value given is the single centre bucket.
func mirror(rows int, half ...float64) []float64 {
	n := rows + 1
	if len(half) != (n+1)/2 {
		panic("plinko: bad half table")
	}
	out := make([]float64, n)
	for i, v := range half {
		out[i] = v
		out[n-1-i] = v
	}
	return out
}
