package lower

// editDistance is plain Levenshtein over bytes, two-row rolling buffer.
func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// closestName picks the candidate nearest to target, if it is near enough to
// plausibly be a typo. Ties keep the first candidate.
func closestName(target string, candidates []string) (string, bool) {
	limit := len(target) / 3
	if limit < 1 {
		limit = 1
	}
	best, bestDist := "", limit+1
	for _, cand := range candidates {
		if cand == target {
			continue
		}
		if d := editDistance(target, cand); d < bestDist {
			best, bestDist = cand, d
		}
	}
	return best, best != ""
}
