package history

// DefaultMaxItems bounds the number of kept history items.
const DefaultMaxItems = 100

const idPrefix = "analysis_"
