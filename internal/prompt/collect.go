package prompt

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dwellio/go-formstate/pkg/formerrors"
	"github.com/dwellio/go-formstate/pkg/listing"
)

// form walks fields of one input struct. Values already present are offered
// as defaults and errors from a previous attempt are shown next to the label.
type form struct {
	ctx    context.Context
	driver Driver
	errs   formerrors.ErrorMap
	err    error
}

func (f *form) label(text, path string) string {
	messages := f.errs.Lookup(path)
	if len(messages) == 0 {
		return text
	}
	return fmt.Sprintf("%s [%s]", text, strings.Join(messages, "; "))
}

func (f *form) text(dest *string, label, path string) {
	if f.err != nil {
		return
	}
	value, err := f.driver.Input(f.ctx, InputConfig{Message: f.label(label, path), Default: *dest})
	if err != nil {
		f.err = err
		return
	}
	*dest = strings.TrimSpace(value)
}

func (f *form) secret(dest *string, label, path string) {
	if f.err != nil {
		return
	}
	value, err := f.driver.Password(f.ctx, InputConfig{Message: f.label(label, path)})
	if err != nil {
		f.err = err
		return
	}
	*dest = value
}

func (f *form) number(dest *int, label, path string) {
	if f.err != nil {
		return
	}
	def := ""
	if *dest != 0 {
		def = strconv.Itoa(*dest)
	}
	value, err := f.driver.Input(f.ctx, InputConfig{
		Message:   f.label(label, path),
		Default:   def,
		Validator: validInt,
	})
	if err != nil {
		f.err = err
		return
	}
	n, err := parseInt(value)
	if err != nil {
		f.err = fmt.Errorf("prompt: %s: %w", path, err)
		return
	}
	*dest = n
}

func (f *form) choice(dest *string, label, path string, options []string) {
	if f.err != nil {
		return
	}
	idx, err := f.driver.Select(f.ctx, SelectConfig{
		Message:      f.label(label, path),
		Options:      options,
		DefaultIndex: indexOf(options, *dest),
	})
	if err != nil {
		f.err = err
		return
	}
	if idx < 0 || idx >= len(options) {
		f.err = fmt.Errorf("prompt: %s: selection %d out of range", path, idx)
		return
	}
	*dest = options[idx]
}

func (f *form) choices(dest *[]string, label, path string, options []string) {
	if f.err != nil {
		return
	}
	indices, err := f.driver.MultiSelect(f.ctx, SelectConfig{
		Message:  f.label(label, path),
		Options:  options,
		Defaults: indicesOf(options, *dest),
	})
	if err != nil {
		f.err = err
		return
	}
	selected := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(options) {
			selected = append(selected, options[idx])
		}
	}
	*dest = selected
}

func (f *form) list(dest *[]string, label, path string) {
	joined := strings.Join(*dest, ", ")
	f.text(&joined, label+" (comma separated)", path)
	if f.err != nil {
		return
	}
	var items []string
	for _, item := range strings.Split(joined, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dest = items
}

// CollectProperty prompts for every field of the property form. current
// seeds the defaults; errs annotates fields that failed a previous attempt.
func CollectProperty(ctx context.Context, driver Driver, current listing.PropertyInput, errs formerrors.ErrorMap) (listing.PropertyInput, error) {
	in := current
	f := &form{ctx: ctx, driver: driver, errs: errs}

	f.text(&in.Name, "Property name", "name")
	f.choice(&in.Type, "Property type", "type", listing.PropertyTypes)
	f.text(&in.Description, "Description", "description")
	f.text(&in.Location.Street, "Street", "location.street")
	f.text(&in.Location.City, "City", "location.city")
	f.text(&in.Location.State, "State", "location.state")
	f.text(&in.Location.Zipcode, "Zipcode", "location.zipcode")
	f.number(&in.Beds, "Beds", "beds")
	f.number(&in.Baths, "Baths", "baths")
	f.number(&in.SquareFeet, "Square feet", "square_feet")
	f.choices(&in.Amenities, "Amenities", "amenities", listing.Amenities)
	f.number(&in.Rates.Nightly, "Nightly rate", "rates.nightly")
	f.number(&in.Rates.Weekly, "Weekly rate", "rates.weekly")
	f.number(&in.Rates.Monthly, "Monthly rate", "rates.monthly")
	f.text(&in.SellerInfo.Name, "Seller name", "seller_info.name")
	f.text(&in.SellerInfo.Email, "Seller email", "seller_info.email")
	f.text(&in.SellerInfo.Phone, "Seller phone", "seller_info.phone")
	f.list(&in.Images, "Image URLs", "images")

	if f.err != nil {
		return current, f.err
	}
	return in, nil
}

// CollectMessage prompts for the contact-owner form. The property id is
// asked for only when current does not carry one.
func CollectMessage(ctx context.Context, driver Driver, current listing.MessageInput, errs formerrors.ErrorMap) (listing.MessageInput, error) {
	in := current
	f := &form{ctx: ctx, driver: driver, errs: errs}

	if strings.TrimSpace(in.Property) == "" || len(errs.Lookup("property")) > 0 {
		f.text(&in.Property, "Property ID", "property")
	}
	f.text(&in.Name, "Name", "name")
	f.text(&in.Email, "Email", "email")
	f.text(&in.Phone, "Phone", "phone")
	f.text(&in.Body, "Message", "body")

	if f.err != nil {
		return current, f.err
	}
	return in, nil
}

// CollectCredentials prompts for an email and password. The password is
// never offered as a default.
func CollectCredentials(ctx context.Context, driver Driver, current listing.CredentialsInput, errs formerrors.ErrorMap) (listing.CredentialsInput, error) {
	in := listing.CredentialsInput{Email: current.Email}
	f := &form{ctx: ctx, driver: driver, errs: errs}

	f.text(&in.Email, "Email", "email")
	f.secret(&in.Password, "Password", "password")

	if f.err != nil {
		return current, f.err
	}
	return in, nil
}

// Retry asks whether to edit the form again after it failed validation.
func Retry(ctx context.Context, driver Driver, failures int) (bool, error) {
	noun := "errors"
	if failures == 1 {
		noun = "error"
	}
	return driver.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("%d %s found. Edit the form again?", failures, noun),
		Default: true,
	})
}

func validInt(value string) error {
	_, err := parseInt(value)
	return err
}

func parseInt(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number", value)
	}
	return n, nil
}
