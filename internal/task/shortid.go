package task

const shortIDLength = 8

// ShortID shortens an id for display.
func ShortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}
