package search

// PartialRatio scores how well query aligns with the best-matching part of
// text, in [0,100]. Every substring of text at least as long as query is
// compared with the indel similarity 2*LCS/(len(query)+len(sub))*100 and the
// maximum is returned. When text is shorter than query the two strings are
// compared whole. Inputs are compared rune by rune without case folding.
func PartialRatio(query, text string) float64 {
	q := []rune(query)
	s := []rune(text)
	if len(q) == 0 || len(s) == 0 {
		return 0
	}
	if len(s) < len(q) {
		return indelRatio(q, s)
	}

	m := len(q)
	best := 0.0
	prev := make([]int, m+1)
	cur := make([]int, m+1)

	for start := 0; start+m <= len(s); start++ {
		if best >= 100 {
			break
		}
		for j := range prev {
			prev[j] = 0
		}
		for end := start; end < len(s); end++ {
			k := end - start + 1
			if ratio(m, m, k) <= best {
				// longer substrings can only score lower
				break
			}
			cur[0] = 0
			for j := 1; j <= m; j++ {
				switch {
				case s[end] == q[j-1]:
					cur[j] = prev[j-1] + 1
				case prev[j] >= cur[j-1]:
					cur[j] = prev[j]
				default:
					cur[j] = cur[j-1]
				}
			}
			prev, cur = cur, prev
			if k < m {
				continue
			}
			if r := ratio(prev[m], m, k); r > best {
				best = r
			}
		}
	}
	return best
}

func indelRatio(a, b []rune) float64 {
	return ratio(lcs(a, b), len(a), len(b))
}

func ratio(common, m, k int) float64 {
	if m+k == 0 {
		return 0
	}
	return 200 * float64(common) / float64(m+k)
}

func lcs(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
