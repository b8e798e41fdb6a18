package access

// FreeTierPostLimit is the number of posts a free user may author.
const FreeTierPostLimit = 5

// CanCreatePost reports whether user may author one more post given how many
// they already have, regardless of visibility.
//
// The check is advisory: two concurrent creations can both observe a count
// below the limit.
func CanCreatePost(user User, existingPostCount int) bool {
	return user.IsPremium || existingPostCount < FreeTierPostLimit
}

// RemainingPosts is the number of posts user may still create, or -1 when
// unlimited.
func RemainingPosts(user User, existingPostCount int) int {
	if user.IsPremium {
		return -1
	}
	if existingPostCount >= FreeTierPostLimit {
		return 0
	}
	return FreeTierPostLimit - existingPostCount
}
