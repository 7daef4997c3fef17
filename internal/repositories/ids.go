package repositories

import "github.com/google/uuid"

// validID reports whether id can match a UUID primary key. Lookups with any
// other id are answered as not found without a query.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
