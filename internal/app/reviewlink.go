package app

import (
	"regexp"
	"strings"
)

const googleWriteReviewHost = "search.google.com/local/writereview"

var ratingParamRe = regexp.MustCompile(`rating=\d+`)

// WithFiveStarRating rewrites a Google review link so the review form opens
// with five stars pre-selected. Links without a rating parameter that are not
// Google write-review URLs are returned unchanged.
func WithFiveStarRating(reviewLink string) string {
	if reviewLink == "" {
		return reviewLink
	}

	if strings.Contains(reviewLink, "rating=") {
		return ratingParamRe.ReplaceAllString(reviewLink, "rating=5")
	}

	if strings.Contains(reviewLink, googleWriteReviewHost) {
		separator := "?"
		if strings.Contains(reviewLink, "?") {
			separator = "&"
		}
		return reviewLink + separator + "rating=5"
	}

	return reviewLink
}
