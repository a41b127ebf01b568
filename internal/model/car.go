package model

import "time"

// Car is a listing owned by exactly one Account.
//
// A Car has no life of its own: it is created inside its owner's collection,
// edited in place and removed from that collection. The ID is only unique
// within the owner's cars, which is why every lookup takes the owner's ID too.
//
// Images and CreatedAt are fixed at creation. Only Title, Description and Tags
// can change afterwards (see CarPatch).
type Car struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        string    `json:"tags"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CarPatch is a partial update. A nil field means "leave unchanged".
type CarPatch struct {
	Title       *string
	Description *string
	Tags        *string
}

// IsEmpty reports whether the patch would change nothing.
func (p CarPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Tags == nil
}
