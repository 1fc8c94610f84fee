package listing

// LocationInput is the address section of the property form.
type LocationInput struct {
	Street  string `json:"street" yaml:"street" validate:"required,max=200"`
	City    string `json:"city" yaml:"city" validate:"required,max=100"`
	State   string `json:"state" yaml:"state" validate:"required,max=100"`
	Zipcode string `json:"zipcode" yaml:"zipcode" validate:"required,numeric,len=5"`
}

// SellerInfoInput is the contact section of the property form.
type SellerInfoInput struct {
	Name  string `json:"name" yaml:"name" validate:"required,max=120"`
	Email string `json:"email" yaml:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" yaml:"phone,omitempty" validate:"omitempty,e164"`
}

// PropertyInput is the payload of the add and edit property forms.
type PropertyInput struct {
	Name        string          `json:"name" yaml:"name" validate:"required,max=120"`
	Type        string          `json:"type" yaml:"type" validate:"required,oneof=Apartment Condo House 'Cabin Or Cottage' Room Studio Other"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty" validate:"max=2000"`
	Location    LocationInput   `json:"location" yaml:"location"`
	Beds        int             `json:"beds" yaml:"beds" validate:"gte=0,lte=50"`
	Baths       int             `json:"baths" yaml:"baths" validate:"gte=0,lte=50"`
	SquareFeet  int             `json:"square_feet" yaml:"square_feet" validate:"gte=0"`
	Amenities   []string        `json:"amenities,omitempty" yaml:"amenities,omitempty" validate:"max=30,dive,required"`
	Rates       Rates           `json:"rates" yaml:"rates"`
	SellerInfo  SellerInfoInput `json:"seller_info" yaml:"seller_info"`
	Images      []string        `json:"images,omitempty" yaml:"images,omitempty" validate:"max=4,dive,url"`
}

// MessageInput is the payload of the contact-owner form. Recipient is
// resolved from the property and never trusted from the form.
type MessageInput struct {
	Property string `json:"property" yaml:"property" validate:"required"`
	Name     string `json:"name" yaml:"name" validate:"required,max=120"`
	Email    string `json:"email" yaml:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty" yaml:"phone,omitempty" validate:"omitempty,e164"`
	Body     string `json:"body" yaml:"body" validate:"required,max=2000"`
}

// CredentialsInput is the payload of the sign-up and link-credentials forms.
type CredentialsInput struct {
	Email    string `json:"email" yaml:"email" validate:"required,email"`
	Password string `json:"password" yaml:"password" validate:"required,min=8,max=72"`
}
