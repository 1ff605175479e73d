package api

import "net/url"

// Sweet is a purchasable inventory item as returned by the backend.
// The backend owns this data; clients hold a read-mostly cached copy.
type Sweet struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// SweetDraft is the payload for creating or updating a sweet.
type SweetDraft struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// SearchFilter holds the optional search criteria for SearchSweets.
// Zero-valued fields are omitted from the query string entirely rather
// than being sent as empty parameters.
type SearchFilter struct {
	Name     string
	Category string
	PriceMin *float64
	PriceMax *float64
}

// IsZero reports whether no filter criteria are set.
func (f SearchFilter) IsZero() bool {
	return f.Name == "" && f.Category == "" && f.PriceMin == nil && f.PriceMax == nil
}

// Query encodes the filter as URL query values, omitting unset fields.
func (f SearchFilter) Query() url.Values {
	q := url.Values{}
	if f.Name != "" {
		q.Set("name", f.Name)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.PriceMin != nil {
		q.Set("price_min", formatPrice(*f.PriceMin))
	}
	if f.PriceMax != nil {
		q.Set("price_max", formatPrice(*f.PriceMax))
	}
	return q
}

// Token is the credential issued by the login endpoint.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Registration is the payload for creating a new account.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResult is the backend's response to a successful registration.
type RegisterResult struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// Identity describes the authenticated user as reported by the backend.
type Identity struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}
