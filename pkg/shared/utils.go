package shared

// IsInList reports whether value is present in list.
func IsInList(value string, list []string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
