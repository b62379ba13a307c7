package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/jobboard/internal/common"
	"github.com/yourusername/jobboard/internal/models"
)

func validInput() models.VacancyInput {
	return models.VacancyInput{
		Title:            "Engineer",
		ShortDescription: "Build things",
		FullDescription:  "Build many things",
		Company:          "ACME",
		Location:         "Remote",
		Category:         "IT",
	}
}

func TestStructAcceptsValidVacancy(t *testing.T) {
	in := validInput()
	assert.NoError(t, Struct(&in))
}

func TestStructReportsFieldMessages(t *testing.T) {
	in := validInput()
	in.Title = ""
	in.Company = strings.Repeat("c", 151)
	in.Category = "it"

	err := Struct(&in)
	require.Error(t, err)

	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"title":    "This field is required.",
		"company":  "Field cannot be longer than 150 characters.",
		"category": "Not a valid choice.",
	}, verr.Fields)
}

func TestMaxCountsCharactersNotBytes(t *testing.T) {
	in := validInput()
	in.Title = strings.Repeat("é", 150)
	assert.NoError(t, Struct(&in))
}

func TestSalaryIsOptional(t *testing.T) {
	in := validInput()
	in.Salary = ""
	assert.NoError(t, Struct(&in))

	in.Salary = strings.Repeat("9", 101)
	err := Struct(&in)
	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "salary")
}
