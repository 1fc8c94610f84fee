// Package listing holds the rental listing domain: properties, the messages
// prospective tenants send owners, and the users behind both.
package listing

import "time"

// Property types a listing may declare.
const (
	TypeApartment = "Apartment"
	TypeCondo     = "Condo"
	TypeHouse     = "House"
	TypeCabin     = "Cabin Or Cottage"
	TypeRoom      = "Room"
	TypeStudio    = "Studio"
	TypeOther     = "Other"
)

// PropertyTypes lists every accepted property type in display order.
var PropertyTypes = []string{TypeApartment, TypeCondo, TypeHouse, TypeCabin, TypeRoom, TypeStudio, TypeOther}

// Amenities are the checkbox options offered by the property form. Stored
// amenities are free text; this list only drives form choices.
var Amenities = []string{
	"Wifi", "Full kitchen", "Washer & Dryer", "Free Parking", "Swimming Pool",
	"Hot Tub", "24/7 Security", "Wheelchair Accessible", "Elevator Access",
	"Dishwasher", "Gym/Fitness Center", "Air Conditioning", "Balcony/Patio",
	"Smart TV", "Coffee Maker",
}

// Location is the postal address of a property.
type Location struct {
	Street  string `json:"street" yaml:"street"`
	City    string `json:"city" yaml:"city"`
	State   string `json:"state" yaml:"state"`
	Zipcode string `json:"zipcode" yaml:"zipcode"`
}

// Rates are whole-dollar prices. Zero means the period is not offered.
type Rates struct {
	Nightly int `json:"nightly,omitempty" yaml:"nightly,omitempty" validate:"gte=0"`
	Weekly  int `json:"weekly,omitempty" yaml:"weekly,omitempty" validate:"gte=0"`
	Monthly int `json:"monthly,omitempty" yaml:"monthly,omitempty" validate:"gte=0"`
}

// IsZero reports whether no period is offered.
func (r Rates) IsZero() bool {
	return r.Nightly == 0 && r.Weekly == 0 && r.Monthly == 0
}

// SellerInfo is how prospective tenants reach the owner.
type SellerInfo struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Phone string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// Property is a stored listing.
type Property struct {
	ID          string     `json:"id"`
	Owner       string     `json:"owner"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Description string     `json:"description,omitempty"`
	Location    Location   `json:"location"`
	Beds        int        `json:"beds"`
	Baths       int        `json:"baths"`
	SquareFeet  int        `json:"square_feet"`
	Amenities   []string   `json:"amenities,omitempty"`
	Rates       Rates      `json:"rates"`
	SellerInfo  SellerInfo `json:"seller_info"`
	Images      []string   `json:"images,omitempty"`
	Featured    bool       `json:"is_featured"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Apply copies the editable fields of in onto p.
func (p *Property) Apply(in PropertyInput) {
	p.Name = in.Name
	p.Type = in.Type
	p.Description = in.Description
	p.Location = Location(in.Location)
	p.Beds = in.Beds
	p.Baths = in.Baths
	p.SquareFeet = in.SquareFeet
	p.Amenities = append([]string(nil), in.Amenities...)
	p.Rates = in.Rates
	p.SellerInfo = SellerInfo(in.SellerInfo)
	p.Images = append([]string(nil), in.Images...)
}

// Message is an enquiry sent to a property owner.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Property  string    `json:"property"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sign-in providers a user account can be linked to.
const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
)

// User is an account. Providers lists the sign-in methods linked to it.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username,omitempty"`
	PasswordHash []byte    `json:"-"`
	Providers    []string  `json:"providers"`
	Bookmarks    []string  `json:"bookmarks,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasProvider reports whether provider is linked to the account.
func (u User) HasProvider(provider string) bool {
	for _, p := range u.Providers {
		if p == provider {
			return true
		}
	}
	return false
}

// HasBookmark reports whether the user bookmarked propertyID.
func (u User) HasBookmark(propertyID string) bool {
	for _, id := range u.Bookmarks {
		if id == propertyID {
			return true
		}
	}
	return false
}
