package catalog

import "time"

// Review is one customer review embedded in a product.
type Review struct {
	ReviewID  string    `dynamodbav:"review_id" json:"review_id"`
	UserID    string    `dynamodbav:"user_id" json:"user_id"`
	UserName  string    `dynamodbav:"user_name" json:"user_name"`
	Rating    int       `dynamodbav:"rating" json:"rating"`
	Comment   string    `dynamodbav:"comment" json:"comment"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
}

// Product represents the item stored in the catalog DynamoDB table.
// ReviewerIDs mirrors Reviews as a string set so the duplicate-review guard
// can run as a single conditional write.
type Product struct {
	ProductID    string    `dynamodbav:"product_id" json:"product_id"` // PK
	Name         string    `dynamodbav:"name" json:"name"`
	Team         string    `dynamodbav:"team" json:"team"`
	Player       string    `dynamodbav:"player" json:"player"`
	JerseyNumber string    `dynamodbav:"jersey_number,omitempty" json:"jersey_number,omitempty"`
	Image        string    `dynamodbav:"image" json:"image"`
	Description  string    `dynamodbav:"description" json:"description"`
	Price        float64   `dynamodbav:"price" json:"price"`
	Stock        int       `dynamodbav:"stock" json:"stock"`
	Rating       float64   `dynamodbav:"rating" json:"rating"`
	NumReviews   int       `dynamodbav:"num_reviews" json:"num_reviews"`
	Reviews      []Review  `dynamodbav:"reviews,omitempty" json:"reviews,omitempty"`
	ReviewerIDs  []string  `dynamodbav:"reviewer_ids,stringset,omitempty" json:"-"`
	IsFeatured   bool      `dynamodbav:"is_featured" json:"is_featured"`
	CreatedAt    time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt    time.Time `dynamodbav:"updated_at" json:"updated_at"`
}
