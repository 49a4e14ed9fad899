// Package applications records merchant applications and notifies onboarding.
package applications

import (
	"strings"
	"time"

	"merchanthaus.com/web/internal/forms"
)

// Status values of an application.
const (
	StatusNew = "new"
)

// Address is the business location of an applicant.
type Address struct {
	Line1 string `firestore:"line1" json:"line1"`
	Line2 string `firestore:"line2,omitempty" json:"line2,omitempty"`
	City  string `firestore:"city" json:"city"`
	State string `firestore:"state" json:"state"`
	Zip   string `firestore:"zip" json:"zip"`
}

// Application is the structured record written for every merchant application.
type Application struct {
	ID            string    `firestore:"-" json:"id"`
	DBAName       string    `firestore:"dbaName" json:"dbaName"`
	LegalName     string    `firestore:"legalName,omitempty" json:"legalName,omitempty"`
	Address       Address   `firestore:"address" json:"address"`
	ContactName   string    `firestore:"contactName" json:"contactName"`
	Email         string    `firestore:"email" json:"email"`
	Phone         string    `firestore:"phone" json:"phone"`
	Website       string    `firestore:"website,omitempty" json:"website,omitempty"`
	Username      string    `firestore:"username" json:"username"`
	Notes         string    `firestore:"notes,omitempty" json:"notes,omitempty"`
	HasProcessor  bool      `firestore:"hasProcessor" json:"hasProcessor"`
	ProcessorName string    `firestore:"processorName,omitempty" json:"processorName,omitempty"`
	Products      []string  `firestore:"products" json:"products"`
	Status        string    `firestore:"status" json:"status"`
	CreatedAt     time.Time `firestore:"createdAt" json:"createdAt"`
}

// FromSubmission maps a validated merchant-application submission to a record. The
// id and timestamps are assigned by the service.
func FromSubmission(sub forms.Submission) Application {
	get := func(name string) string { return strings.TrimSpace(sub.Get(name)) }
	hasProcessor := strings.EqualFold(get("hasCurrentProcessor"), "yes")
	app := Application{
		DBAName:   get("dbaName"),
		LegalName: get("legalName"),
		Address: Address{
			Line1: get("address1"),
			Line2: get("address2"),
			City:  get("city"),
			State: strings.ToUpper(get("state")),
			Zip:   get("zip"),
		},
		ContactName:  get("contactName"),
		Email:        strings.ToLower(get("email")),
		Phone:        get("phone"),
		Website:      get("website"),
		Username:     get("username"),
		Notes:        get("notes"),
		HasProcessor: hasProcessor,
		Products:     sub.All("products"),
		Status:       StatusNew,
	}
	if hasProcessor {
		app.ProcessorName = get("currentProcessorName")
	}
	if app.LegalName == "" {
		app.LegalName = app.DBAName
	}
	return app
}
