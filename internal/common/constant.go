package common

const (
	// TopTasksLimit is how many tasks the short listing and the
	// "upcoming" reminder fallback show.
	TopTasksLimit = 5

	// MessageLimit is the longest chat reply we emit in one piece.
	MessageLimit = 1900
)
