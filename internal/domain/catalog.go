package domain

// Product is the catalog entry a review belongs to.
type Product struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User is the account that wrote a review.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
