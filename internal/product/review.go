package product

const (
	MinRating = 1
	MaxRating = 5
)

func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// AggregateRatings returns the mean and count of the given ratings. An empty
// slice yields the zero value.
func AggregateRatings(ratings []int) Ratings {
	if len(ratings) == 0 {
		return Ratings{}
	}

	sum := 0
	for _, r := range ratings {
		sum += r
	}

	return Ratings{
		Average: float64(sum) / float64(len(ratings)),
		Count:   len(ratings),
	}
}
