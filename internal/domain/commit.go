package domain

// Commit represents a single commit as returned by a hosting platform.
// CreatedAt is kept as the raw ISO-8601 string from the API; parsing and
// timezone conversion happen in the overtime package.
type Commit struct {
	Hash        string `json:"hash"`
	AuthorEmail string `json:"author_email"`
	Title       string `json:"title"`
	CreatedAt   string `json:"created_at"`
}

// Repository represents a repository accessible to the configured token
type Repository struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}
