package user

import (
	"strings"
	"time"

	"smallbiznis-rewards/pkg/errutil"
)

type AgeGroup string

const (
	AgeGroup18To24 AgeGroup = "age18_24"
	AgeGroup25To33 AgeGroup = "age25_33"
	AgeGroup35To44 AgeGroup = "age35_44"
	AgeGroup45Plus AgeGroup = "age45Plus"
)

func (a AgeGroup) Valid() bool {
	switch a {
	case AgeGroup18To24, AgeGroup25To33, AgeGroup35To44, AgeGroup45Plus:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Demographics is the bucketed profile used to attribute option counts.
type Demographics struct {
	Age      int
	AgeGroup AgeGroup
	Gender   Gender
}

// AgeGroupOf buckets an age. 34 and anything under 18 fall back to the
// 18-24 bucket; stored statistics depend on that mapping.
func AgeGroupOf(age int) AgeGroup {
	switch {
	case age >= 18 && age <= 24:
		return AgeGroup18To24
	case age >= 25 && age <= 33:
		return AgeGroup25To33
	case age >= 35 && age <= 44:
		return AgeGroup35To44
	case age >= 45:
		return AgeGroup45Plus
	default:
		return AgeGroup18To24
	}
}

// NormalizeGender lowercases g and maps empty to other.
func NormalizeGender(g string) (Gender, error) {
	gender := Gender(strings.ToLower(strings.TrimSpace(g)))
	if gender == "" {
		return GenderOther, nil
	}
	if !gender.Valid() {
		return "", errutil.BadRequest("Invalid gender value", nil)
	}
	return gender, nil
}

// AgeFromDateOfBirth returns whole years between dob (YYYY-MM-DD) and now.
// An empty or unparseable date yields 0.
func AgeFromDateOfBirth(dob string, now time.Time) int {
	if dob == "" {
		return 0
	}
	born, err := time.Parse(time.DateOnly, dob)
	if err != nil {
		return 0
	}

	now = now.UTC()
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
