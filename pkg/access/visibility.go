package access

// CanRead reports whether requesterID may read post. Public posts are readable
// by anyone, including anonymous requesters; authors always read their own.
func CanRead(requesterID string, post Post) bool {
	if post.Visibility == VisibilityPublic {
		return true
	}
	return requesterID != "" && requesterID == post.AuthorID
}

// Readable is implemented by domain types that can be projected onto a Post.
type Readable interface {
	AccessPost() Post
}

// FilterReadable keeps the items requesterID may read, preserving order.
func FilterReadable[T Readable](requesterID string, items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if CanRead(requesterID, item.AccessPost()) {
			out = append(out, item)
		}
	}
	return out
}

// CanChangeVisibility validates a visibility transition requested through an
// update. Both states must be known; staying in the same state is allowed.
func CanChangeVisibility(from, to Visibility) bool {
	return from.Valid() && to.Valid()
}
