package document

import (
	"fmt"
	"strings"
)

// Collection names the partition a document belongs to. The set is closed.
type Collection string

const (
	// EmploymentNotice holds recruitment and job notices.
	EmploymentNotice Collection = "EmploymentNotice"
	// NotificationCircular holds notifications and circulars.
	NotificationCircular Collection = "NotificationCircular"
	// Tender holds tender documents.
	Tender Collection = "Tender"
)

var categories = map[Collection]string{
	EmploymentNotice:     "Employment Notice",
	NotificationCircular: "Notification/Circular",
	Tender:               "Tender",
}

// All returns every collection in the fixed search order.
func All() []Collection {
	return []Collection{EmploymentNotice, NotificationCircular, Tender}
}

// ParseCollection validates a collection name (case-insensitive).
func ParseCollection(s string) (Collection, error) {
	for _, c := range All() {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown collection %q", s)
}

// Valid reports whether c is one of the known collections.
func (c Collection) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Category returns the display category derived from collection membership.
func (c Collection) Category() string {
	return categories[c]
}

// DefaultStoreName returns the storage collection name following the
// lowercase-plural convention the portal's schema models were created with.
func (c Collection) DefaultStoreName() string {
	return strings.ToLower(string(c)) + "s"
}

func (c Collection) String() string { return string(c) }
