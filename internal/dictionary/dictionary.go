// Package dictionary serves the curated enumerations the dashboard uses
// for pick lists: contact types, payment methods, discharge reasons.
package dictionary

import "github.com/arkcrm/rentledger/internal/residency"

type Def struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	// Reserved entries are written only by the system and are not offered
	// as choices when recording a real payment.
	Reserved bool `json:"reserved,omitempty"`
}

var contactTypes = []Def{
	{Code: string(residency.ContactResident), Label: "Current Resident"},
	{Code: string(residency.ContactResidentPipeline), Label: "Pipeline Resident"},
	{Code: string(residency.ContactPastResident), Label: "Past Resident"},
	{Code: string(residency.ContactDeclinedResident), Label: "Declined Resident"},
	{Code: string(residency.ContactMentor), Label: "Mentor"},
	{Code: string(residency.ContactSponsor), Label: "Sponsor"},
	{Code: string(residency.ContactVolunteer), Label: "Volunteer"},
	{Code: string(residency.ContactDonor), Label: "Donor"},
	{Code: string(residency.ContactBoard), Label: "Board Member"},
	{Code: string(residency.ContactReferralSource), Label: "Referral Source"},
	{Code: string(residency.ContactPartner), Label: "Partner"},
}

var paymentMethods = []Def{
	{Code: string(residency.MethodCash), Label: "Cash"},
	{Code: string(residency.MethodCheck), Label: "Check"},
	{Code: string(residency.MethodCreditCard), Label: "Credit Card"},
	{Code: string(residency.MethodBankTransfer), Label: "Bank Transfer"},
	{Code: string(residency.MethodMoneyOrder), Label: "Money Order"},
	{Code: string(residency.MethodSponsored), Label: "Sponsored"},
	{Code: string(residency.MethodPending), Label: "Pending"},
	{Code: string(residency.MethodSystemSync), Label: "System Sync", Reserved: true},
	{Code: string(residency.MethodSystemUpdate), Label: "System Update", Reserved: true},
}

var dischargeReasons = []Def{
	{Code: string(residency.DischargeRelapse), Label: "Relapse"},
	{Code: string(residency.DischargeHome), Label: "Discharged Home"},
	{Code: string(residency.DischargeForCause), Label: "Dismissed for Cause"},
	{Code: string(residency.DischargeForNonPayment), Label: "Dismissed for Non-Payment"},
}

func ContactTypes() []Def     { return append([]Def(nil), contactTypes...) }
func PaymentMethods() []Def   { return append([]Def(nil), paymentMethods...) }
func DischargeReasons() []Def { return append([]Def(nil), dischargeReasons...) }

// IsReserved reports whether a method may only be written by the sync engine.
func IsReserved(method residency.PaymentMethod) bool {
	for _, d := range paymentMethods {
		if d.Code == string(method) && d.Reserved {
			return true
		}
	}
	return false
}
