package index

import "time"

// Document is the indexed projection of a podcast episode. ID is the decimal
// string form of the episode's relational id; that string equality is the only
// correlation between the two stores.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Transcript  string    `json:"transcript"`
	CreatedAt   time.Time `json:"created_at"`
}
